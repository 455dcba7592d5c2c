package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

// respondError maps service errors onto HTTP statuses. Errors without a
// known sentinel are logged and hidden behind a generic 500.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("unhandled error")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(status, body)
}

// currentUser is only valid behind CheckAuth.
func currentUser(c *gin.Context) models.UserProfile {
	return c.MustGet("currentUser").(models.UserProfile)
}

// viewer returns nil for anonymous callers on OptionalAuth routes.
func viewer(c *gin.Context) *models.UserProfile {
	value, exists := c.Get("currentUser")
	if !exists {
		return nil
	}
	user := value.(models.UserProfile)
	return &user
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
