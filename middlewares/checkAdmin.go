package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckAdmin must run after CheckAuth.
func CheckAdmin(c *gin.Context) {
	if !c.GetBool("admin") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
		return
	}
	c.Next()
}
