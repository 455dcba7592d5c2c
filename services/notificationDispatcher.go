package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/metrics"
	"github.com/SaltAndLight/models"
)

// NotificationSender hands committed notifications off for delivery.
type NotificationSender interface {
	Dispatch(notifications []models.PrayerNotification)
}

const defaultDeliveryTimeout = 30 * time.Second

// NotificationDispatcher delivers notifications in the background through
// push and the events exchange. Delivery is best effort: failures are logged
// and counted, never returned to the request that produced them.
type NotificationDispatcher struct {
	push    PushSender
	events  EventPublisher
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewNotificationDispatcher(push PushSender, events EventPublisher, log logrus.FieldLogger) *NotificationDispatcher {
	return &NotificationDispatcher{
		push:    push,
		events:  events,
		log:     log,
		timeout: defaultDeliveryTimeout,
		now:     time.Now,
	}
}

func (d *NotificationDispatcher) Dispatch(notifications []models.PrayerNotification) {
	if len(notifications) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, n := range notifications {
			d.deliver(ctx, n)
		}
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) deliver(ctx context.Context, n models.PrayerNotification) {
	entry := d.log.WithFields(logrus.Fields{
		"prayer_notification_id": n.Prayer_Notification_ID,
		"notification_type":      n.Notification_Type,
		"recipient_id":           n.Recipient_ID,
	})

	payload, err := n.DecodePayload()
	if err != nil {
		entry.WithError(err).Warn("undecodable notification payload")
	}

	if d.push != nil {
		if err := d.push.SendNotificationToUser(ctx, n.Recipient_ID, pushPayloadFor(n, payload)); err != nil {
			metrics.IncDeliveryError("push")
			entry.WithError(err).Warn("push delivery failed")
		}
	}

	if d.events != nil {
		event := models.NotificationEvent{
			Notification_ID:   n.Prayer_Notification_ID,
			Notification_Type: n.Notification_Type,
			Recipient_ID:      n.Recipient_ID,
			Actor_ID:          n.VisibleActorID(),
			Prayer_Request_ID: n.Prayer_Request_ID,
			Payload:           payload,
			Occurred_At:       d.now().UTC(),
		}
		if err := d.events.Publish(ctx, "prayer.notification."+n.Notification_Type, event); err != nil {
			metrics.IncDeliveryError("events")
			entry.WithError(err).Warn("event publish failed")
		}
	}
}

// pushPayloadFor builds the device-facing text. The actor is never named:
// answered notifications can originate from anonymous requests.
func pushPayloadFor(n models.PrayerNotification, payload models.PrayerNotificationPayload) NotificationPayload {
	p := NotificationPayload{
		Sound:    "default",
		Priority: "high",
		Data: map[string]string{
			"type":              n.Notification_Type,
			"prayer_request_id": n.Prayer_Request_ID,
		},
	}

	switch n.Notification_Type {
	case models.NotificationTypeAnswered:
		p.Title = "A prayer you prayed was answered"
		p.Body = payload.Prayer_Request
		if payload.Thank_You != "" {
			p.Body = payload.Thank_You
		}
	default:
		p.Title = "Someone prayed for you"
		p.Body = payload.Prayer_Request
	}

	return p
}
