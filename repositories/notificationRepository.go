package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

type NotificationRepository interface {
	ListNotifications(ctx context.Context, recipientID int, unreadOnly bool) ([]models.PrayerNotification, error)
	ToggleRead(ctx context.Context, recipientID, notificationID int) (models.PrayerNotification, error)
	MarkAllRead(ctx context.Context, recipientID int) (int64, error)
}

// actorHidden is true when the notification's actor owns the anonymous
// request it refers to.
var actorHidden = goqu.L(`COALESCE((SELECT pr.visibility = 'anonymous' AND pr.user_profile_id = "prayer_notification"."actor_id" ` +
	`FROM prayer_request pr WHERE pr.prayer_request_id = "prayer_notification"."prayer_request_id"), FALSE)`).As("actor_hidden")

type notificationRepository struct {
	db *goqu.Database
}

func NewNotificationRepository(db *goqu.Database) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListNotifications(ctx context.Context, recipientID int, unreadOnly bool) ([]models.PrayerNotification, error) {
	ds := r.db.From("prayer_notification").
		Select(goqu.T("prayer_notification").All(), actorHidden).
		Where(goqu.C("recipient_id").Eq(recipientID)).
		Order(goqu.C("datetime_create").Desc(), goqu.C("prayer_notification_id").Desc())
	if unreadOnly {
		ds = ds.Where(goqu.C("is_read").IsFalse())
	}

	var notifications []models.PrayerNotification
	if err := ds.ScanStructsContext(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", recipientID, err)
	}
	return notifications, nil
}

// ToggleRead flips is_read on a notification owned by recipientID.
// Notifications belonging to someone else are reported as not found.
func (r *notificationRepository) ToggleRead(ctx context.Context, recipientID, notificationID int) (models.PrayerNotification, error) {
	var updated models.PrayerNotification
	found, err := r.db.Update("prayer_notification").
		Set(goqu.Record{"is_read": goqu.L("NOT is_read")}).
		Where(
			goqu.C("prayer_notification_id").Eq(notificationID),
			goqu.C("recipient_id").Eq(recipientID),
		).
		Returning(goqu.T("prayer_notification").All(), actorHidden).
		Executor().
		ScanStructContext(ctx, &updated)
	if err != nil {
		return models.PrayerNotification{}, fmt.Errorf("toggle notification %d: %w", notificationID, err)
	}
	if !found {
		return models.PrayerNotification{}, apperror.NotFound("notification", strconv.Itoa(notificationID))
	}
	return updated, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int) (int64, error) {
	result, err := r.db.Update("prayer_notification").
		Set(goqu.Record{"is_read": true}).
		Where(
			goqu.C("recipient_id").Eq(recipientID),
			goqu.C("is_read").IsFalse(),
		).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read for user %d: %w", recipientID, err)
	}
	return result.RowsAffected()
}
