package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationTypePrayed   = "prayed"
	NotificationTypeAnswered = "answered"
)

type PrayerNotification struct {
	Prayer_Notification_ID int             `json:"id" db:"prayer_notification_id" goqu:"skipinsert"`
	Recipient_ID           int             `json:"recipient_id" db:"recipient_id"`
	Actor_ID               *int            `json:"actor_id" db:"actor_id"`
	Prayer_Request_ID      string          `json:"prayer_request_id" db:"prayer_request_id"`
	Notification_Type      string          `json:"notification_type" db:"notification_type"`
	Payload                json.RawMessage `json:"payload" db:"payload"`
	Is_Read                bool            `json:"is_read" db:"is_read"`
	Datetime_Create        time.Time       `json:"datetime_create" db:"datetime_create" goqu:"skipinsert"`

	// Actor_Hidden is computed on read: the actor owns the anonymous request
	// the notification points at.
	Actor_Hidden bool `json:"-" db:"actor_hidden" goqu:"skipinsert,skipupdate"`
}

// NotificationView is what a recipient sees. It never carries the id of an
// anonymous request's owner.
type NotificationView struct {
	ID                int             `json:"id"`
	Actor_ID          *int            `json:"actor_id"`
	Prayer_Request_ID string          `json:"prayer_request_id"`
	Notification_Type string          `json:"notification_type"`
	Payload           json.RawMessage `json:"payload"`
	Is_Read           bool            `json:"is_read"`
	Datetime_Create   time.Time       `json:"datetime_create"`
}

type PrayerNotificationPayload struct {
	Prayer_Request_ID string `json:"prayer_request_id"`
	Prayer_Request    string `json:"prayer_request"`
	Thank_You         string `json:"thank_you,omitempty"`
}

// NewPrayerNotification builds an unread notification with its payload
// encoded.
func NewPrayerNotification(recipientID int, actorID *int, notificationType string, payload PrayerNotificationPayload) (PrayerNotification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return PrayerNotification{}, err
	}
	return PrayerNotification{
		Recipient_ID:      recipientID,
		Actor_ID:          actorID,
		Prayer_Request_ID: payload.Prayer_Request_ID,
		Notification_Type: notificationType,
		Payload:           raw,
	}, nil
}

// VisibleActorID is the actor as recipients may learn it: nil when naming
// the actor would reveal who owns an anonymous request.
func (n PrayerNotification) VisibleActorID() *int {
	if n.Actor_Hidden {
		return nil
	}
	return n.Actor_ID
}

func (n PrayerNotification) View() NotificationView {
	payload := n.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return NotificationView{
		ID:                n.Prayer_Notification_ID,
		Actor_ID:          n.VisibleActorID(),
		Prayer_Request_ID: n.Prayer_Request_ID,
		Notification_Type: n.Notification_Type,
		Payload:           payload,
		Is_Read:           n.Is_Read,
		Datetime_Create:   n.Datetime_Create,
	}
}

func NotificationViews(notifications []PrayerNotification) []NotificationView {
	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, n.View())
	}
	return views
}

// DecodePayload returns the structured payload. Unknown keys are ignored.
func (n PrayerNotification) DecodePayload() (PrayerNotificationPayload, error) {
	var p PrayerNotificationPayload
	if len(n.Payload) == 0 {
		return p, nil
	}
	err := json.Unmarshal(n.Payload, &p)
	return p, err
}

// NotificationEvent is published to the events exchange once a
// notification has been committed.
type NotificationEvent struct {
	Notification_ID   int                       `json:"notification_id"`
	Notification_Type string                    `json:"notification_type"`
	Recipient_ID      int                       `json:"recipient_id"`
	Actor_ID          *int                      `json:"actor_id"`
	Prayer_Request_ID string                    `json:"prayer_request_id"`
	Payload           PrayerNotificationPayload `json:"payload"`
	Occurred_At       time.Time                 `json:"occurred_at"`
}
