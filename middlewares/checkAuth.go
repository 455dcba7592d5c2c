package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int) (models.UserProfile, error)
}

type authFailure struct {
	status  int
	message string
}

// CheckAuth requires a valid bearer token and stores the caller under
// "currentUser" and their role under "admin".
func CheckAuth(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		if fail := authenticate(c, secret, users); fail != nil {
			c.AbortWithStatusJSON(fail.status, gin.H{"error": fail.message})
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A header that is present
// but invalid is still rejected.
func OptionalAuth(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if fail := authenticate(c, secret, users); fail != nil {
			c.AbortWithStatusJSON(fail.status, gin.H{"error": fail.message})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, secret string, users UserLookup) *authFailure {
	authToken := strings.Split(c.GetHeader("Authorization"), " ")
	if len(authToken) != 2 || authToken[0] != "Bearer" {
		return &authFailure{http.StatusUnauthorized, "Invalid token format"}
	}

	token, err := jwt.Parse(authToken[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return &authFailure{http.StatusUnauthorized, "Invalid or expired token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return &authFailure{http.StatusUnauthorized, "Invalid token"}
	}

	// exp is checked by Parse; a token without one is refused outright.
	if _, ok := claims["exp"].(float64); !ok {
		return &authFailure{http.StatusUnauthorized, "Invalid token"}
	}

	// Single-purpose tokens (password reset) never open a session.
	if _, scoped := claims["purpose"]; scoped {
		return &authFailure{http.StatusUnauthorized, "Invalid token"}
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return &authFailure{http.StatusUnauthorized, "Invalid token"}
	}

	user, err := users.GetUserByID(c.Request.Context(), int(id))
	if errors.Is(err, apperror.ErrNotFound) {
		return &authFailure{http.StatusUnauthorized, "User no longer exists"}
	}
	if err != nil {
		return &authFailure{http.StatusInternalServerError, "Failed to load user profile"}
	}

	c.Set("currentUser", user)
	c.Set("admin", claims["role"] == "admin")
	return nil
}
