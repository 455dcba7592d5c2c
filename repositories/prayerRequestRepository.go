package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

type PrayerRequestRepository interface {
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(repo PrayerRequestRepository) error) error

	CreatePrayerRequest(ctx context.Context, pr models.PrayerRequest) (models.PrayerRequest, error)
	GetPrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error)
	UpdatePrayerRequest(ctx context.Context, pr models.PrayerRequest) error
	DeletePrayerRequest(ctx context.Context, id string) (bool, error)
	MarkAnswered(ctx context.Context, id, note, scripture string, answeredAt time.Time) (bool, error)
	ListPrayerRequests(ctx context.Context, filter models.PrayerRequestFilter) ([]models.PrayerRequestRow, int, error)

	InsertPrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error)
	DeletePrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error)
	CountInteractions(ctx context.Context, prayerRequestID, interactionType string) (int, error)
	InsertEncouragement(ctx context.Context, prayerRequestID string, userID int, message string) (models.PrayerInteraction, error)
	ListInteractions(ctx context.Context, prayerRequestID, interactionType string) ([]models.InteractionWithUser, error)
	RecentEncouragements(ctx context.Context, prayerRequestIDs []string, limit int) ([]models.InteractionWithUser, error)
	PrayedUserIDs(ctx context.Context, prayerRequestID string, excludeUserID *int) ([]int, error)

	InsertNotifications(ctx context.Context, notifications []models.PrayerNotification) ([]models.PrayerNotification, error)
}

type prayerRequestRepository struct {
	db *goqu.Database // nil when bound to a transaction
	q  queryRunner
}

func NewPrayerRequestRepository(db *goqu.Database) PrayerRequestRepository {
	return &prayerRequestRepository{db: db, q: db}
}

func (r *prayerRequestRepository) WithTx(ctx context.Context, fn func(repo PrayerRequestRepository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return withTx(ctx, r.db, func(tx *goqu.TxDatabase) error {
		return fn(&prayerRequestRepository{q: tx})
	})
}

func (r *prayerRequestRepository) CreatePrayerRequest(ctx context.Context, pr models.PrayerRequest) (models.PrayerRequest, error) {
	var created models.PrayerRequest
	_, err := r.q.Insert("prayer_request").
		Rows(pr).
		Returning(goqu.Star()).
		Executor().
		ScanStructContext(ctx, &created)
	if err != nil {
		return models.PrayerRequest{}, fmt.Errorf("insert prayer request: %w", err)
	}
	return created, nil
}

func (r *prayerRequestRepository) GetPrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error) {
	var pr models.PrayerRequest
	found, err := r.q.From("prayer_request").
		Where(goqu.C("prayer_request_id").Eq(id)).
		ScanStructContext(ctx, &pr)
	if err != nil {
		return models.PrayerRequest{}, fmt.Errorf("get prayer request %s: %w", id, err)
	}
	if !found {
		return models.PrayerRequest{}, apperror.NotFound("prayer request", id)
	}
	return pr, nil
}

func (r *prayerRequestRepository) UpdatePrayerRequest(ctx context.Context, pr models.PrayerRequest) error {
	_, err := r.q.Update("prayer_request").
		Set(goqu.Record{
			"short_description": pr.Short_Description,
			"category":          pr.Category,
			"visibility":        pr.Visibility,
			"datetime_update":   goqu.L("NOW()"),
		}).
		Where(goqu.C("prayer_request_id").Eq(pr.Prayer_Request_ID)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update prayer request %s: %w", pr.Prayer_Request_ID, err)
	}
	return nil
}

func (r *prayerRequestRepository) DeletePrayerRequest(ctx context.Context, id string) (bool, error) {
	result, err := r.q.Delete("prayer_request").
		Where(goqu.C("prayer_request_id").Eq(id)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("delete prayer request %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkAnswered moves an active request to answered. It reports false when
// the request was no longer active.
func (r *prayerRequestRepository) MarkAnswered(ctx context.Context, id, note, scripture string, answeredAt time.Time) (bool, error) {
	result, err := r.q.Update("prayer_request").
		Set(goqu.Record{
			"status":             models.StatusAnswered,
			"answered_note":      note,
			"answered_scripture": scripture,
			"answered_at":        answeredAt,
			"datetime_update":    goqu.L("NOW()"),
		}).
		Where(
			goqu.C("prayer_request_id").Eq(id),
			goqu.C("status").Eq(models.StatusActive),
		).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("mark prayer request %s answered: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *prayerRequestRepository) ListPrayerRequests(ctx context.Context, filter models.PrayerRequestFilter) ([]models.PrayerRequestRow, int, error) {
	where := prayerRequestConditions(filter)

	total, err := r.q.From(goqu.T("prayer_request").As("pr")).
		Where(where...).
		CountContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count prayer requests: %w", err)
	}

	ds := r.q.From(goqu.T("prayer_request").As("pr")).
		LeftJoin(
			goqu.T("user_profile").As("owner"),
			goqu.On(goqu.I("owner.user_profile_id").Eq(goqu.I("pr.user_profile_id"))),
		).
		Select(prayerRequestColumns(filter.ViewerID)...).
		Where(where...).
		Order(prayerRequestOrder(filter.Sort)...)

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	var rows []models.PrayerRequestRow
	if err := ds.ScanStructsContext(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("list prayer requests: %w", err)
	}
	return rows, int(total), nil
}

// visibilityCondition restricts requests to what viewerID may read:
// public and anonymous requests for everyone, plus the viewer's own requests
// and friends-only requests of users the viewer follows.
func visibilityCondition(viewerID *int) exp.Expression {
	open := goqu.I("pr.visibility").In(models.VisibilityPublic, models.VisibilityAnonymous)
	if viewerID == nil {
		return open
	}

	following := dialect.From("follow").
		Select("following_id").
		Where(goqu.C("follower_id").Eq(*viewerID))

	return goqu.Or(
		open,
		goqu.I("pr.user_profile_id").Eq(*viewerID),
		goqu.And(
			goqu.I("pr.visibility").Eq(models.VisibilityFriends),
			goqu.I("pr.user_profile_id").In(following),
		),
	)
}

func prayerRequestConditions(filter models.PrayerRequestFilter) []exp.Expression {
	where := []exp.Expression{visibilityCondition(filter.ViewerID)}

	if filter.PrayerRequestID != "" {
		where = append(where, goqu.I("pr.prayer_request_id").Eq(filter.PrayerRequestID))
	}
	if models.ValidStatus(filter.Status) {
		where = append(where, goqu.I("pr.status").Eq(filter.Status))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		where = append(where, goqu.Func("LOWER", goqu.I("pr.category")).Eq(strings.ToLower(category)))
	}
	if filter.Sort == models.SortAnswered {
		where = append(where, goqu.I("pr.status").Eq(models.StatusAnswered))
	}

	return where
}

func prayerRequestOrder(sort string) []exp.OrderedExpression {
	switch sort {
	case models.SortMostPrayed:
		return []exp.OrderedExpression{goqu.I("prayer_count").Desc(), goqu.I("pr.datetime_create").Desc()}
	case models.SortAnswered:
		return []exp.OrderedExpression{goqu.I("pr.answered_at").Desc(), goqu.I("pr.datetime_create").Desc()}
	default:
		return []exp.OrderedExpression{goqu.I("pr.datetime_create").Desc()}
	}
}

func interactionCount(interactionType string) *goqu.SelectDataset {
	return dialect.From(goqu.T("prayer_interaction").As("pi")).
		Select(goqu.COUNT("*")).
		Where(
			goqu.I("pi.prayer_request_id").Eq(goqu.I("pr.prayer_request_id")),
			goqu.I("pi.interaction_type").Eq(interactionType),
		)
}

func prayerRequestColumns(viewerID *int) []interface{} {
	hasPrayed := goqu.L("FALSE").As("has_prayed")
	if viewerID != nil {
		prayed := dialect.From(goqu.T("prayer_interaction").As("pi")).
			Select(goqu.L("1")).
			Where(
				goqu.I("pi.prayer_request_id").Eq(goqu.I("pr.prayer_request_id")),
				goqu.I("pi.interaction_type").Eq(models.InteractionTypePrayed),
				goqu.I("pi.user_profile_id").Eq(*viewerID),
			)
		hasPrayed = goqu.L("EXISTS ?", prayed).As("has_prayed")
	}

	return []interface{}{
		goqu.I("pr.prayer_request_id"),
		goqu.I("pr.user_profile_id"),
		goqu.I("pr.short_description"),
		goqu.I("pr.category"),
		goqu.I("pr.visibility"),
		goqu.I("pr.status"),
		goqu.I("pr.answered_note"),
		goqu.I("pr.answered_scripture"),
		goqu.I("pr.answered_at"),
		goqu.I("pr.datetime_create"),
		goqu.I("pr.datetime_update"),
		goqu.I("owner.username").As("owner_username"),
		goqu.I("owner.first_name").As("owner_first_name"),
		goqu.I("owner.last_name").As("owner_last_name"),
		goqu.I("owner.photo_url").As("owner_photo_url"),
		interactionCount(models.InteractionTypePrayed).As("prayer_count"),
		interactionCount(models.InteractionTypeEncourage).As("encouragement_count"),
		hasPrayed,
	}
}

// InsertPrayedInteraction records a prayer. It reports false when the actor
// had already prayed, including when a concurrent insert won the race: the
// partial unique index turns that into a skipped row, not an error.
func (r *prayerRequestRepository) InsertPrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error) {
	result, err := r.q.Insert("prayer_interaction").
		Rows(goqu.Record{
			"prayer_request_id": prayerRequestID,
			"user_profile_id":   userID,
			"interaction_type":  models.InteractionTypePrayed,
		}).
		OnConflict(goqu.DoNothing()).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("insert prayed interaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *prayerRequestRepository) DeletePrayedInteraction(ctx context.Context, prayerRequestID string, userID int) (bool, error) {
	result, err := r.q.Delete("prayer_interaction").
		Where(
			goqu.C("prayer_request_id").Eq(prayerRequestID),
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("interaction_type").Eq(models.InteractionTypePrayed),
		).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("delete prayed interaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *prayerRequestRepository) CountInteractions(ctx context.Context, prayerRequestID, interactionType string) (int, error) {
	count, err := r.q.From("prayer_interaction").
		Where(
			goqu.C("prayer_request_id").Eq(prayerRequestID),
			goqu.C("interaction_type").Eq(interactionType),
		).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s interactions: %w", interactionType, err)
	}
	return int(count), nil
}

func (r *prayerRequestRepository) InsertEncouragement(ctx context.Context, prayerRequestID string, userID int, message string) (models.PrayerInteraction, error) {
	var created models.PrayerInteraction
	_, err := r.q.Insert("prayer_interaction").
		Rows(models.PrayerInteraction{
			Prayer_Request_ID: prayerRequestID,
			User_Profile_ID:   userID,
			Interaction_Type:  models.InteractionTypeEncourage,
			Message:           message,
		}).
		Returning(goqu.Star()).
		Executor().
		ScanStructContext(ctx, &created)
	if err != nil {
		return models.PrayerInteraction{}, fmt.Errorf("insert encouragement: %w", err)
	}
	return created, nil
}

var interactionWithUserColumns = []interface{}{
	goqu.I("pi.prayer_interaction_id"),
	goqu.I("pi.prayer_request_id"),
	goqu.I("pi.user_profile_id"),
	goqu.I("pi.message"),
	goqu.I("pi.datetime_create"),
	goqu.I("u.username"),
	goqu.I("u.first_name"),
	goqu.I("u.last_name"),
	goqu.I("u.photo_url"),
}

func (r *prayerRequestRepository) ListInteractions(ctx context.Context, prayerRequestID, interactionType string) ([]models.InteractionWithUser, error) {
	var interactions []models.InteractionWithUser
	err := r.q.From(goqu.T("prayer_interaction").As("pi")).
		Join(goqu.T("user_profile").As("u"), goqu.On(goqu.I("u.user_profile_id").Eq(goqu.I("pi.user_profile_id")))).
		Select(interactionWithUserColumns...).
		Where(
			goqu.I("pi.prayer_request_id").Eq(prayerRequestID),
			goqu.I("pi.interaction_type").Eq(interactionType),
		).
		Order(goqu.I("pi.datetime_create").Desc(), goqu.I("pi.prayer_interaction_id").Desc()).
		ScanStructsContext(ctx, &interactions)
	if err != nil {
		return nil, fmt.Errorf("list %s interactions: %w", interactionType, err)
	}
	return interactions, nil
}

// RecentEncouragements returns up to limit newest encouragements for each of
// the given requests in a single query.
func (r *prayerRequestRepository) RecentEncouragements(ctx context.Context, prayerRequestIDs []string, limit int) ([]models.InteractionWithUser, error) {
	if len(prayerRequestIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	cols := make([]interface{}, 0, len(interactionWithUserColumns)+1)
	cols = append(cols, interactionWithUserColumns...)
	cols = append(cols, goqu.L("ROW_NUMBER() OVER (PARTITION BY pi.prayer_request_id ORDER BY pi.datetime_create DESC, pi.prayer_interaction_id DESC)").As("rn"))

	ranked := dialect.From(goqu.T("prayer_interaction").As("pi")).
		Join(goqu.T("user_profile").As("u"), goqu.On(goqu.I("u.user_profile_id").Eq(goqu.I("pi.user_profile_id")))).
		Select(cols...).
		Where(
			goqu.I("pi.prayer_request_id").In(prayerRequestIDs),
			goqu.I("pi.interaction_type").Eq(models.InteractionTypeEncourage),
		)

	var interactions []models.InteractionWithUser
	err := r.q.From(ranked.As("recent")).
		Select(
			"prayer_interaction_id", "prayer_request_id", "user_profile_id", "message",
			"datetime_create", "username", "first_name", "last_name", "photo_url",
		).
		Where(goqu.C("rn").Lte(limit)).
		Order(goqu.C("prayer_request_id").Asc(), goqu.C("rn").Asc()).
		ScanStructsContext(ctx, &interactions)
	if err != nil {
		return nil, fmt.Errorf("recent encouragements: %w", err)
	}
	return interactions, nil
}

func (r *prayerRequestRepository) PrayedUserIDs(ctx context.Context, prayerRequestID string, excludeUserID *int) ([]int, error) {
	ds := r.q.From("prayer_interaction").
		SelectDistinct("user_profile_id").
		Where(
			goqu.C("prayer_request_id").Eq(prayerRequestID),
			goqu.C("interaction_type").Eq(models.InteractionTypePrayed),
		)
	if excludeUserID != nil {
		ds = ds.Where(goqu.C("user_profile_id").Neq(*excludeUserID))
	}

	var ids []int
	if err := ds.ScanValsContext(ctx, &ids); err != nil {
		return nil, fmt.Errorf("prayed user ids: %w", err)
	}
	return ids, nil
}

// InsertNotifications bulk-inserts notifications, skipping any whose
// (recipient, actor, request, type) key already exists. Only the rows that
// were actually inserted are returned.
func (r *prayerRequestRepository) InsertNotifications(ctx context.Context, notifications []models.PrayerNotification) ([]models.PrayerNotification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	rows := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		rows = append(rows, goqu.Record{
			"recipient_id":      n.Recipient_ID,
			"actor_id":          n.Actor_ID,
			"prayer_request_id": n.Prayer_Request_ID,
			"notification_type": n.Notification_Type,
			"payload":           string(n.Payload),
		})
	}

	var inserted []models.PrayerNotification
	err := r.q.Insert("prayer_notification").
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		Returning(goqu.Star()).
		Executor().
		ScanStructsContext(ctx, &inserted)
	if err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	return inserted, nil
}
