package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
	"github.com/SaltAndLight/repositories"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakePrayerRepo is an in-memory PrayerRequestRepository that enforces the
// same uniqueness and visibility rules as the Postgres schema and queries.
type fakePrayerRepo struct {
	mu            sync.Mutex
	tick          int
	lastID        int
	requests      map[string]models.PrayerRequest
	users         map[int]models.UserProfile
	follows       map[[2]int]bool
	interactions  []models.PrayerInteraction
	notifications []models.PrayerNotification
}

var (
	_ repositories.PrayerRequestRepository = (*fakePrayerRepo)(nil)
	_ repositories.NotificationRepository  = (*fakePrayerRepo)(nil)
)

func newFakePrayerRepo(users ...models.UserProfile) *fakePrayerRepo {
	f := &fakePrayerRepo{
		requests: map[string]models.PrayerRequest{},
		users:    map[int]models.UserProfile{},
		follows:  map[[2]int]bool{},
	}
	for _, u := range users {
		f.users[u.User_Profile_ID] = u
	}
	return f
}

func (f *fakePrayerRepo) follow(followerID, followingID int) {
	f.follows[[2]int{followerID, followingID}] = true
}

func (f *fakePrayerRepo) next() time.Time {
	f.tick++
	return baseTime.Add(time.Duration(f.tick) * time.Minute)
}

func (f *fakePrayerRepo) WithTx(ctx context.Context, fn func(repo repositories.PrayerRequestRepository) error) error {
	return fn(f)
}

func (f *fakePrayerRepo) CreatePrayerRequest(ctx context.Context, pr models.PrayerRequest) (models.PrayerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.next()
	pr.Datetime_Create = now
	pr.Datetime_Update = now
	f.requests[pr.Prayer_Request_ID] = pr
	return pr, nil
}

func (f *fakePrayerRepo) GetPrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.requests[id]
	if !ok {
		return models.PrayerRequest{}, apperror.NotFound("prayer request", id)
	}
	return pr, nil
}

func (f *fakePrayerRepo) UpdatePrayerRequest(ctx context.Context, pr models.PrayerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[pr.Prayer_Request_ID]; !ok {
		return apperror.NotFound("prayer request", pr.Prayer_Request_ID)
	}
	pr.Datetime_Update = f.next()
	f.requests[pr.Prayer_Request_ID] = pr
	return nil
}

func (f *fakePrayerRepo) DeletePrayerRequest(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return false, nil
	}
	delete(f.requests, id)
	kept := f.interactions[:0]
	for _, i := range f.interactions {
		if i.Prayer_Request_ID != id {
			kept = append(kept, i)
		}
	}
	f.interactions = kept
	return true, nil
}

func (f *fakePrayerRepo) MarkAnswered(ctx context.Context, id, note, scripture string, answeredAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.requests[id]
	if !ok || pr.Status != models.StatusActive {
		return false, nil
	}
	pr.Status = models.StatusAnswered
	pr.Answered_Note = note
	pr.Answered_Scripture = scripture
	pr.Answered_At = &answeredAt
	f.requests[id] = pr
	return true, nil
}

func (f *fakePrayerRepo) ListPrayerRequests(ctx context.Context, filter models.PrayerRequestFilter) ([]models.PrayerRequestRow, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []models.PrayerRequestRow
	for _, pr := range f.requests {
		followsOwner := filter.ViewerID != nil && pr.User_Profile_ID != nil &&
			f.follows[[2]int{*filter.ViewerID, *pr.User_Profile_ID}]
		if !pr.VisibleTo(filter.ViewerID, followsOwner) {
			continue
		}
		if filter.PrayerRequestID != "" && pr.Prayer_Request_ID != filter.PrayerRequestID {
			continue
		}
		if filter.Status != "" && pr.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(pr.Category, filter.Category) {
			continue
		}
		rows = append(rows, f.rowFor(pr, filter.ViewerID))
	}

	sort.Slice(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		switch filter.Sort {
		case models.SortMostPrayed:
			if ra.Prayer_Count != rb.Prayer_Count {
				return ra.Prayer_Count > rb.Prayer_Count
			}
		case models.SortAnswered:
			at, bt := answeredTime(ra), answeredTime(rb)
			if !at.Equal(bt) {
				return at.After(bt)
			}
		}
		return ra.Datetime_Create.After(rb.Datetime_Create)
	})

	total := len(rows)
	if filter.Offset >= len(rows) {
		return []models.PrayerRequestRow{}, total, nil
	}
	rows = rows[filter.Offset:]
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, total, nil
}

func answeredTime(r models.PrayerRequestRow) time.Time {
	if r.Answered_At == nil {
		return time.Time{}
	}
	return *r.Answered_At
}

func (f *fakePrayerRepo) rowFor(pr models.PrayerRequest, viewerID *int) models.PrayerRequestRow {
	row := models.PrayerRequestRow{PrayerRequest: pr}
	if pr.User_Profile_ID != nil {
		if owner, ok := f.users[*pr.User_Profile_ID]; ok {
			row.Owner_Username = &owner.Username
			row.Owner_First_Name = &owner.First_Name
			row.Owner_Last_Name = &owner.Last_Name
			row.Owner_Photo_URL = owner.Photo_URL
		}
	}
	for _, i := range f.interactions {
		if i.Prayer_Request_ID != pr.Prayer_Request_ID {
			continue
		}
		switch i.Interaction_Type {
		case models.InteractionTypePrayed:
			row.Prayer_Count++
			if viewerID != nil && i.User_Profile_ID == *viewerID {
				row.Has_Prayed = true
			}
		case models.InteractionTypeEncourage:
			row.Encouragement_Count++
		}
	}
	return row
}

func (f *fakePrayerRepo) InsertPrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.interactions {
		if i.Prayer_Request_ID == prayerRequestID && i.User_Profile_ID == userID && i.Interaction_Type == models.InteractionTypePrayed {
			return false, nil
		}
	}
	f.appendInteraction(prayerRequestID, userID, models.InteractionTypePrayed, "")
	return true, nil
}

func (f *fakePrayerRepo) appendInteraction(prayerRequestID string, userID int, interactionType, message string) models.PrayerInteraction {
	f.lastID++
	i := models.PrayerInteraction{
		Prayer_Interaction_ID: f.lastID,
		Prayer_Request_ID:     prayerRequestID,
		User_Profile_ID:       userID,
		Interaction_Type:      interactionType,
		Message:               message,
		Datetime_Create:       f.next(),
	}
	f.interactions = append(f.interactions, i)
	return i
}

func (f *fakePrayerRepo) DeletePrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for idx, i := range f.interactions {
		if i.Prayer_Request_ID == prayerRequestID && i.User_Profile_ID == userID && i.Interaction_Type == models.InteractionTypePrayed {
			f.interactions = append(f.interactions[:idx], f.interactions[idx+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePrayerRepo) CountInteractions(ctx context.Context, prayerRequestID, interactionType string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, i := range f.interactions {
		if i.Prayer_Request_ID == prayerRequestID && i.Interaction_Type == interactionType {
			count++
		}
	}
	return count, nil
}

func (f *fakePrayerRepo) InsertEncouragement(ctx context.Context, prayerRequestID string, userID int, message string) (models.PrayerInteraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendInteraction(prayerRequestID, userID, models.InteractionTypeEncourage, message), nil
}

func (f *fakePrayerRepo) ListInteractions(ctx context.Context, prayerRequestID, interactionType string) ([]models.InteractionWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InteractionWithUser
	for idx := len(f.interactions) - 1; idx >= 0; idx-- {
		i := f.interactions[idx]
		if i.Prayer_Request_ID == prayerRequestID && i.Interaction_Type == interactionType {
			out = append(out, f.withUser(i))
		}
	}
	return out, nil
}

func (f *fakePrayerRepo) withUser(i models.PrayerInteraction) models.InteractionWithUser {
	u := f.users[i.User_Profile_ID]
	return models.InteractionWithUser{
		Prayer_Interaction_ID: i.Prayer_Interaction_ID,
		Prayer_Request_ID:     i.Prayer_Request_ID,
		User_Profile_ID:       i.User_Profile_ID,
		Message:               i.Message,
		Datetime_Create:       i.Datetime_Create,
		Username:              u.Username,
		First_Name:            u.First_Name,
		Last_Name:             u.Last_Name,
		Photo_URL:             u.Photo_URL,
	}
}

func (f *fakePrayerRepo) RecentEncouragements(ctx context.Context, prayerRequestIDs []string, limit int) ([]models.InteractionWithUser, error) {
	var out []models.InteractionWithUser
	for _, id := range prayerRequestIDs {
		all, _ := f.ListInteractions(ctx, id, models.InteractionTypeEncourage)
		if len(all) > limit {
			all = all[:limit]
		}
		out = append(out, all...)
	}
	return out, nil
}

func (f *fakePrayerRepo) PrayedUserIDs(ctx context.Context, prayerRequestID string, excludeUserID *int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int]bool{}
	var ids []int
	for _, i := range f.interactions {
		if i.Prayer_Request_ID != prayerRequestID || i.Interaction_Type != models.InteractionTypePrayed {
			continue
		}
		if excludeUserID != nil && i.User_Profile_ID == *excludeUserID {
			continue
		}
		if !seen[i.User_Profile_ID] {
			seen[i.User_Profile_ID] = true
			ids = append(ids, i.User_Profile_ID)
		}
	}
	return ids, nil
}

func (f *fakePrayerRepo) InsertNotifications(ctx context.Context, notifications []models.PrayerNotification) ([]models.PrayerNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted []models.PrayerNotification
	for _, n := range notifications {
		if f.hasNotification(n) {
			continue
		}
		n.Prayer_Notification_ID = len(f.notifications) + 1
		n.Datetime_Create = f.next()
		f.notifications = append(f.notifications, n)
		inserted = append(inserted, n)
	}
	return inserted, nil
}

func (f *fakePrayerRepo) hasNotification(n models.PrayerNotification) bool {
	for _, existing := range f.notifications {
		if existing.Recipient_ID == n.Recipient_ID &&
			sameActor(existing.Actor_ID, n.Actor_ID) &&
			existing.Prayer_Request_ID == n.Prayer_Request_ID &&
			existing.Notification_Type == n.Notification_Type {
			return true
		}
	}
	return false
}

func sameActor(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakePrayerRepo) notificationsFor(recipientID int) []models.PrayerNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PrayerNotification
	for _, n := range f.notifications {
		if n.Recipient_ID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// withActorHidden mirrors the read-time flag the notification queries
// compute from the referenced request.
func (f *fakePrayerRepo) withActorHidden(n models.PrayerNotification) models.PrayerNotification {
	pr, ok := f.requests[n.Prayer_Request_ID]
	n.Actor_Hidden = ok && pr.Visibility == models.VisibilityAnonymous &&
		n.Actor_ID != nil && pr.IsOwnedBy(n.Actor_ID)
	return n
}

func (f *fakePrayerRepo) ListNotifications(ctx context.Context, recipientID int, unreadOnly bool) ([]models.PrayerNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PrayerNotification
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.Recipient_ID != recipientID || (unreadOnly && n.Is_Read) {
			continue
		}
		out = append(out, f.withActorHidden(n))
	}
	return out, nil
}

func (f *fakePrayerRepo) ToggleRead(ctx context.Context, recipientID, notificationID int) (models.PrayerNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		n := &f.notifications[i]
		if n.Prayer_Notification_ID == notificationID && n.Recipient_ID == recipientID {
			n.Is_Read = !n.Is_Read
			return f.withActorHidden(*n), nil
		}
	}
	return models.PrayerNotification{}, apperror.NotFound("notification", "")
}

func (f *fakePrayerRepo) MarkAllRead(ctx context.Context, recipientID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for i := range f.notifications {
		if f.notifications[i].Recipient_ID == recipientID && !f.notifications[i].Is_Read {
			f.notifications[i].Is_Read = true
			updated++
		}
	}
	return updated, nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	dispatched []models.PrayerNotification
}

func (r *recordingNotifier) Dispatch(notifications []models.PrayerNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, notifications...)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dispatched)
}
