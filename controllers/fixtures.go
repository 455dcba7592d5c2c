package controllers

import (
	"time"

	"github.com/SaltAndLight/models"
)

// Test fixture data for use in tests

// MockUser creates a sample user profile for testing
func MockUser() models.UserProfile {
	return models.UserProfile{
		User_Profile_ID: 1,
		Username:        "testuser",
		First_Name:      "Test",
		Last_Name:       "User",
		Email:           "test@example.com",
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

// MockAdminUser creates a sample admin user for testing
func MockAdminUser() models.UserProfile {
	return models.UserProfile{
		User_Profile_ID: 2,
		Username:        "adminuser",
		First_Name:      "Admin",
		Last_Name:       "User",
		Email:           "admin@example.com",
		Admin:           true,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

const MockPrayerRequestID = "9b2e4c1a-7d3f-4e8b-a1c2-5f6d7e8f9a0b"

// MockPrayerRequestView creates an active public request owned by MockUser
func MockPrayerRequestView() models.PrayerRequestView {
	owner := MockUser().Summary()
	return models.PrayerRequestView{
		ID:                   MockPrayerRequestID,
		UserProfile:          &owner,
		ShortDescription:     "Healing for my mother",
		Category:             "Health",
		Visibility:           models.VisibilityPublic,
		Status:               models.StatusActive,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
		PrayerCount:          3,
		EncouragementCount:   1,
		RecentEncouragements: []models.EncouragementView{},
	}
}

// MockNotification creates an unread prayed notification for MockUser
func MockNotification() models.PrayerNotification {
	actorID := 2
	n, _ := models.NewPrayerNotification(1, &actorID, models.NotificationTypePrayed, models.PrayerNotificationPayload{
		Prayer_Request_ID: MockPrayerRequestID,
		Prayer_Request:    "Healing for my mother",
	})
	n.Prayer_Notification_ID = 10
	n.Datetime_Create = time.Now()
	return n
}
