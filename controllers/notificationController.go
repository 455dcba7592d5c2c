package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/models"
)

type NotificationService interface {
	List(ctx context.Context, recipient models.UserProfile, unreadOnly bool) ([]models.PrayerNotification, error)
	ToggleRead(ctx context.Context, recipient models.UserProfile, notificationID int) (models.PrayerNotification, error)
	MarkAllRead(ctx context.Context, recipient models.UserProfile) (int64, error)
}

type NotificationController struct {
	service NotificationService
	log     logrus.FieldLogger
}

func NewNotificationController(service NotificationService, log logrus.FieldLogger) *NotificationController {
	return &NotificationController{service: service, log: log}
}

func (nc *NotificationController) List(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	notifications, err := nc.service.List(c.Request.Context(), currentUser(c), unreadOnly)
	if err != nil {
		respondError(c, nc.log, err)
		return
	}
	c.JSON(http.StatusOK, models.NotificationViews(notifications))
}

func (nc *NotificationController) ToggleRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID", "details": err.Error()})
		return
	}

	notification, err := nc.service.ToggleRead(c.Request.Context(), currentUser(c), notificationID)
	if err != nil {
		respondError(c, nc.log, err)
		return
	}
	c.JSON(http.StatusOK, notification.View())
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	updated, err := nc.service.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, nc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read.", "updated": updated})
}
