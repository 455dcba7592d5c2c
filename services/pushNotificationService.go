package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/SaltAndLight/models"
)

// PushTokenStore looks up the registered devices of a user.
type PushTokenStore interface {
	ListPushTokens(ctx context.Context, userID int) ([]models.PushToken, error)
}

// PushSender delivers a push notification to every device of a user.
type PushSender interface {
	SendNotificationToUser(ctx context.Context, userID int, payload NotificationPayload) error
}

type NotificationPayload struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type PushNotificationService struct {
	fcm    fcmClient
	tokens PushTokenStore
	log    logrus.FieldLogger
}

// NewPushNotificationService initializes the Firebase Admin SDK. When
// Firebase cannot be initialized the service is still returned and every
// send fails with an error that callers log.
func NewPushNotificationService(ctx context.Context, serviceAccountPath string, tokens PushTokenStore, log logrus.FieldLogger) *PushNotificationService {
	s := &PushNotificationService{tokens: tokens, log: log}

	var opts []option.ClientOption
	if serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		log.WithError(err).Warn("failed to initialize Firebase app, push notifications disabled")
		return s
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to get Firebase messaging client, push notifications disabled")
		return s
	}

	s.fcm = client
	log.Info("push notification service initialized with FCM")
	return s
}

func (s *PushNotificationService) SendNotificationToUser(ctx context.Context, userID int, payload NotificationPayload) error {
	if s.fcm == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	tokens, err := s.tokens.ListPushTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		s.log.WithField("user_profile_id", userID).Debug("no push tokens registered")
		return nil
	}

	var failed int
	for _, token := range tokens {
		if err := s.sendToToken(ctx, token, payload); err != nil {
			failed++
			s.log.WithError(err).WithField("user_push_tokens_id", token.User_Push_Tokens_ID).Warn("failed to send push notification")
		}
	}

	if failed == len(tokens) {
		return fmt.Errorf("push delivery failed for all %d devices of user %d", failed, userID)
	}
	return nil
}

func (s *PushNotificationService) sendToToken(ctx context.Context, token models.PushToken, payload NotificationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	messageID, err := s.fcm.Send(ctx, buildFCMMessage(token, payload))
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	s.log.WithField("message_id", messageID).Debug("sent FCM notification")
	return nil
}

func buildFCMMessage(token models.PushToken, payload NotificationPayload) *messaging.Message {
	message := &messaging.Message{
		Token: token.Push_Token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	switch token.Platform {
	case models.PlatformIOS:
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: payload.Title,
						Body:  payload.Body,
					},
					Sound: payload.Sound,
				},
			},
		}

		if payload.Badge != "" {
			if badge, err := strconv.Atoi(payload.Badge); err == nil {
				message.APNS.Payload.Aps.Badge = &badge
			}
		}

		if payload.Priority == "high" {
			message.APNS.Headers = map[string]string{"apns-priority": "10"}
		}
	case models.PlatformAndroid:
		message.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Sound: payload.Sound,
			},
			Priority: "normal",
		}

		if payload.Priority == "high" {
			message.Android.Priority = "high"
		}
	}

	return message
}
