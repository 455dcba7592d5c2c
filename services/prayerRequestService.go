package services

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/metrics"
	"github.com/SaltAndLight/models"
	"github.com/SaltAndLight/repositories"
)

const (
	detailPrayerRecorded = "Prayer recorded."
	detailAlreadyPrayed  = "You have already recorded a prayer for this request."
	detailPrayerRemoved  = "Prayer removed."
)

type PrayerRequestService struct {
	repo     repositories.PrayerRequestRepository
	notifier NotificationSender
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewPrayerRequestService(repo repositories.PrayerRequestRepository, notifier NotificationSender, log logrus.FieldLogger) *PrayerRequestService {
	return &PrayerRequestService{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// List returns one page of the requests viewer may read. viewer is nil for
// unauthenticated callers.
func (s *PrayerRequestService) List(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error) {
	page, pageSize, err := normalizePage(q.Page, q.Page_Size)
	if err != nil {
		return models.PrayerRequestPage{}, err
	}
	viewerID := viewerIDOf(viewer)

	rows, total, err := s.repo.ListPrayerRequests(ctx, models.PrayerRequestFilter{
		ViewerID: viewerID,
		Status:   q.Status,
		Category: q.Category,
		Sort:     strings.ToLower(strings.TrimSpace(q.Sort)),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return models.PrayerRequestPage{}, err
	}

	views, err := s.buildViews(ctx, rows, viewerID)
	if err != nil {
		return models.PrayerRequestPage{}, err
	}

	return models.PrayerRequestPage{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  views,
	}, nil
}

// ListAnswered is List restricted to answered requests. The caller's sort
// order is kept.
func (s *PrayerRequestService) ListAnswered(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error) {
	q.Status = models.StatusAnswered
	return s.List(ctx, viewer, q)
}

func (s *PrayerRequestService) Get(ctx context.Context, viewer *models.UserProfile, id string) (models.PrayerRequestView, error) {
	viewerID := viewerIDOf(viewer)

	row, err := s.findVisible(ctx, viewerID, id)
	if err != nil {
		return models.PrayerRequestView{}, err
	}

	views, err := s.buildViews(ctx, []models.PrayerRequestRow{row}, viewerID)
	if err != nil {
		return models.PrayerRequestView{}, err
	}
	return views[0], nil
}

func (s *PrayerRequestService) Create(ctx context.Context, owner models.UserProfile, in models.PrayerRequestCreate) (models.PrayerRequestView, error) {
	pr := models.PrayerRequest{
		Prayer_Request_ID: uuid.NewString(),
		User_Profile_ID:   &owner.User_Profile_ID,
		Short_Description: strings.TrimSpace(in.Short_Description),
		Category:          strings.TrimSpace(in.Category),
		Visibility:        strings.TrimSpace(in.Visibility),
		Status:            models.StatusActive,
	}
	if pr.Visibility == "" {
		pr.Visibility = models.VisibilityPublic
	}
	if err := validatePrayerRequest(pr); err != nil {
		return models.PrayerRequestView{}, err
	}

	created, err := s.repo.CreatePrayerRequest(ctx, pr)
	if err != nil {
		return models.PrayerRequestView{}, err
	}

	s.log.WithFields(logrus.Fields{
		"prayer_request_id": created.Prayer_Request_ID,
		"user_profile_id":   owner.User_Profile_ID,
		"visibility":        created.Visibility,
	}).Info("prayer request created")

	row := models.PrayerRequestRow{
		PrayerRequest:    created,
		Owner_Username:   &owner.Username,
		Owner_First_Name: &owner.First_Name,
		Owner_Last_Name:  &owner.Last_Name,
		Owner_Photo_URL:  owner.Photo_URL,
	}
	return newPrayerRequestView(row, &owner.User_Profile_ID, nil), nil
}

// Update edits the content fields of a request. Only the owner may edit;
// status is changed through MarkAnswered.
func (s *PrayerRequestService) Update(ctx context.Context, actor models.UserProfile, id string, in models.PrayerRequestUpdate) (models.PrayerRequestView, error) {
	row, err := s.findVisible(ctx, &actor.User_Profile_ID, id)
	if err != nil {
		return models.PrayerRequestView{}, err
	}
	if !row.IsOwnedBy(&actor.User_Profile_ID) {
		return models.PrayerRequestView{}, apperror.Forbidden("only the owner can edit this prayer request")
	}

	pr := row.PrayerRequest
	if in.Short_Description != nil {
		pr.Short_Description = strings.TrimSpace(*in.Short_Description)
	}
	if in.Category != nil {
		pr.Category = strings.TrimSpace(*in.Category)
	}
	if in.Visibility != nil {
		pr.Visibility = strings.TrimSpace(*in.Visibility)
	}
	if err := validatePrayerRequest(pr); err != nil {
		return models.PrayerRequestView{}, err
	}

	if err := s.repo.UpdatePrayerRequest(ctx, pr); err != nil {
		return models.PrayerRequestView{}, err
	}
	return s.Get(ctx, &actor, pr.Prayer_Request_ID)
}

func (s *PrayerRequestService) Delete(ctx context.Context, actor models.UserProfile, id string) error {
	row, err := s.findVisible(ctx, &actor.User_Profile_ID, id)
	if err != nil {
		return err
	}
	if !row.IsOwnedBy(&actor.User_Profile_ID) {
		return apperror.Forbidden("only the owner can delete this prayer request")
	}

	deleted, err := s.repo.DeletePrayerRequest(ctx, row.Prayer_Request_ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("prayer request", id)
	}
	return nil
}

// Pray records that actor prayed for the request. Repeated calls are no-ops
// that report the current count. The owner is notified once per actor, the
// first time that actor prays.
func (s *PrayerRequestService) Pray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error) {
	requestID, err := parsePrayerRequestID(id)
	if err != nil {
		return models.PrayResult{}, err
	}

	var result models.PrayResult
	var created []models.PrayerNotification

	err = s.repo.WithTx(ctx, func(repo repositories.PrayerRequestRepository) error {
		pr, err := repo.GetPrayerRequest(ctx, requestID)
		if err != nil {
			return err
		}

		inserted, err := repo.InsertPrayedInteraction(ctx, requestID, actor.User_Profile_ID)
		if err != nil {
			return err
		}

		if inserted && pr.User_Profile_ID != nil && !pr.IsOwnedBy(&actor.User_Profile_ID) {
			n, err := models.NewPrayerNotification(*pr.User_Profile_ID, &actor.User_Profile_ID, models.NotificationTypePrayed,
				models.PrayerNotificationPayload{
					Prayer_Request_ID: pr.Prayer_Request_ID,
					Prayer_Request:    pr.Short_Description,
				})
			if err != nil {
				return err
			}
			if created, err = repo.InsertNotifications(ctx, []models.PrayerNotification{n}); err != nil {
				return err
			}
		}

		count, err := repo.CountInteractions(ctx, requestID, models.InteractionTypePrayed)
		if err != nil {
			return err
		}

		result = models.PrayResult{Detail: detailAlreadyPrayed, PrayerCount: count, Created: inserted}
		if inserted {
			result.Detail = detailPrayerRecorded
		}
		return nil
	})
	if err != nil {
		return models.PrayResult{}, err
	}

	if result.Created {
		metrics.IncPrayerInteraction(models.InteractionTypePrayed, "created")
	} else {
		metrics.IncPrayerInteraction(models.InteractionTypePrayed, "noop")
	}
	metrics.AddNotificationsCreated(models.NotificationTypePrayed, len(created))
	s.notifier.Dispatch(created)

	return result, nil
}

// Unpray removes actor's prayer. Notifications already sent are kept.
func (s *PrayerRequestService) Unpray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error) {
	requestID, err := parsePrayerRequestID(id)
	if err != nil {
		return models.PrayResult{}, err
	}

	var result models.PrayResult
	err = s.repo.WithTx(ctx, func(repo repositories.PrayerRequestRepository) error {
		if _, err := repo.GetPrayerRequest(ctx, requestID); err != nil {
			return err
		}

		deleted, err := repo.DeletePrayedInteraction(ctx, requestID, actor.User_Profile_ID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperror.NotFound("prayer record", requestID)
		}

		count, err := repo.CountInteractions(ctx, requestID, models.InteractionTypePrayed)
		if err != nil {
			return err
		}
		result = models.PrayResult{Detail: detailPrayerRemoved, PrayerCount: count}
		return nil
	})
	if err != nil {
		return models.PrayResult{}, err
	}

	metrics.IncPrayerInteraction(models.InteractionTypePrayed, "removed")
	return result, nil
}

func (s *PrayerRequestService) AddEncouragement(ctx context.Context, actor models.UserProfile, id, message string) (models.EncouragementView, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.EncouragementView{}, apperror.ValidationFailed("message", "Encouragement message cannot be empty.")
	}
	if utf8.RuneCountInString(message) > models.MaxEncouragementLength {
		return models.EncouragementView{}, apperror.ValidationFailed("message", "Encouragement must be 100 characters or fewer.")
	}

	requestID, err := parsePrayerRequestID(id)
	if err != nil {
		return models.EncouragementView{}, err
	}
	if _, err := s.repo.GetPrayerRequest(ctx, requestID); err != nil {
		return models.EncouragementView{}, err
	}

	created, err := s.repo.InsertEncouragement(ctx, requestID, actor.User_Profile_ID, message)
	if err != nil {
		return models.EncouragementView{}, err
	}
	metrics.IncPrayerInteraction(models.InteractionTypeEncourage, "created")

	summary := actor.Summary()
	return models.EncouragementView{
		ID:        created.Prayer_Interaction_ID,
		User:      &summary,
		Message:   created.Message,
		CreatedAt: created.Datetime_Create,
	}, nil
}

func (s *PrayerRequestService) ListEncouragements(ctx context.Context, viewer *models.UserProfile, id string) ([]models.EncouragementView, error) {
	viewerID := viewerIDOf(viewer)

	row, err := s.findVisible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}

	interactions, err := s.repo.ListInteractions(ctx, row.Prayer_Request_ID, models.InteractionTypeEncourage)
	if err != nil {
		return nil, err
	}
	return newEncouragementViews(row.PrayerRequest, viewerID, interactions), nil
}

// PrayedUsers lists who prayed for a request, newest first.
func (s *PrayerRequestService) PrayedUsers(ctx context.Context, viewer *models.UserProfile, id string) ([]models.PrayedUser, error) {
	viewerID := viewerIDOf(viewer)

	row, err := s.findVisible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}

	interactions, err := s.repo.ListInteractions(ctx, row.Prayer_Request_ID, models.InteractionTypePrayed)
	if err != nil {
		return nil, err
	}

	users := make([]models.PrayedUser, 0, len(interactions))
	for _, i := range interactions {
		if hidesActor(row.PrayerRequest, viewerID, i.User_Profile_ID) {
			continue
		}
		users = append(users, models.PrayedUser{UserSummary: i.Actor(), PrayedAt: i.Datetime_Create})
	}
	return users, nil
}

// MarkAnswered closes an active request and notifies everyone who prayed
// for it. A request can be answered once; later calls fail with a conflict.
func (s *PrayerRequestService) MarkAnswered(ctx context.Context, actor models.UserProfile, id string, in models.MarkAnsweredRequest) (models.PrayerRequestView, error) {
	requestID, err := parsePrayerRequestID(id)
	if err != nil {
		return models.PrayerRequestView{}, err
	}

	note := strings.TrimSpace(in.Answered_Note)
	scripture := strings.TrimSpace(in.Answered_Scripture)

	var created []models.PrayerNotification
	err = s.repo.WithTx(ctx, func(repo repositories.PrayerRequestRepository) error {
		pr, err := repo.GetPrayerRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !pr.IsOwnedBy(&actor.User_Profile_ID) {
			return apperror.Forbidden("only the owner can mark this prayer request answered")
		}
		if utf8.RuneCountInString(note) > models.MaxAnsweredNoteLength {
			return apperror.ValidationFailed("answered_note", "Thank-you note must be 200 characters or fewer.")
		}
		if utf8.RuneCountInString(scripture) > models.MaxAnsweredScriptureLength {
			return apperror.ValidationFailed("answered_scripture", "Scripture reference must be 120 characters or fewer.")
		}
		if pr.Status == models.StatusAnswered {
			return apperror.Conflict("prayer request is already answered")
		}

		updated, err := repo.MarkAnswered(ctx, requestID, note, scripture, s.now().UTC())
		if err != nil {
			return err
		}
		if !updated {
			return apperror.Conflict("prayer request is already answered")
		}

		recipients, err := repo.PrayedUserIDs(ctx, requestID, &actor.User_Profile_ID)
		if err != nil {
			return err
		}

		payload := models.PrayerNotificationPayload{
			Prayer_Request_ID: pr.Prayer_Request_ID,
			Prayer_Request:    pr.Short_Description,
			Thank_You:         note,
		}
		notifications := make([]models.PrayerNotification, 0, len(recipients))
		for _, recipientID := range recipients {
			n, err := models.NewPrayerNotification(recipientID, &actor.User_Profile_ID, models.NotificationTypeAnswered, payload)
			if err != nil {
				return err
			}
			notifications = append(notifications, n)
		}

		if created, err = repo.InsertNotifications(ctx, notifications); err != nil {
			return err
		}
		for i := range created {
			created[i].Actor_Hidden = pr.Visibility == models.VisibilityAnonymous
		}
		return nil
	})
	if err != nil {
		return models.PrayerRequestView{}, err
	}

	s.log.WithFields(logrus.Fields{
		"prayer_request_id": requestID,
		"notified":          len(created),
	}).Info("prayer request answered")

	metrics.AddNotificationsCreated(models.NotificationTypeAnswered, len(created))
	s.notifier.Dispatch(created)

	return s.Get(ctx, &actor, requestID)
}

// findVisible loads a single request through the same visibility rule as
// List. Requests the viewer cannot read are reported as not found.
func (s *PrayerRequestService) findVisible(ctx context.Context, viewerID *int, id string) (models.PrayerRequestRow, error) {
	requestID, err := parsePrayerRequestID(id)
	if err != nil {
		return models.PrayerRequestRow{}, err
	}

	rows, _, err := s.repo.ListPrayerRequests(ctx, models.PrayerRequestFilter{
		ViewerID:        viewerID,
		PrayerRequestID: requestID,
		Limit:           1,
	})
	if err != nil {
		return models.PrayerRequestRow{}, err
	}
	if len(rows) == 0 {
		return models.PrayerRequestRow{}, apperror.NotFound("prayer request", id)
	}
	return rows[0], nil
}

func (s *PrayerRequestService) buildViews(ctx context.Context, rows []models.PrayerRequestRow, viewerID *int) ([]models.PrayerRequestView, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Prayer_Request_ID)
	}

	recent, err := s.repo.RecentEncouragements(ctx, ids, models.RecentEncouragementLimit)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[string][]models.InteractionWithUser, len(rows))
	for _, i := range recent {
		byRequest[i.Prayer_Request_ID] = append(byRequest[i.Prayer_Request_ID], i)
	}

	views := make([]models.PrayerRequestView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newPrayerRequestView(row, viewerID, byRequest[row.Prayer_Request_ID]))
	}
	return views, nil
}

// newPrayerRequestView derives every response field from the row and the
// requesting identity. The owner profile is withheld from everyone but the
// owner on anonymous requests.
func newPrayerRequestView(row models.PrayerRequestRow, viewerID *int, recent []models.InteractionWithUser) models.PrayerRequestView {
	isOwner := row.IsOwnedBy(viewerID)

	view := models.PrayerRequestView{
		ID:                   row.Prayer_Request_ID,
		ShortDescription:     row.Short_Description,
		Category:             row.Category,
		Visibility:           row.Visibility,
		Status:               row.Status,
		AnsweredNote:         row.Answered_Note,
		AnsweredScripture:    row.Answered_Scripture,
		AnsweredAt:           row.Answered_At,
		CreatedAt:            row.Datetime_Create,
		UpdatedAt:            row.Datetime_Update,
		PrayerCount:          row.Prayer_Count,
		EncouragementCount:   row.Encouragement_Count,
		HasPrayed:            row.Has_Prayed,
		IsOwner:              isOwner,
		RecentEncouragements: newEncouragementViews(row.PrayerRequest, viewerID, recent),
	}

	if row.User_Profile_ID != nil && row.Owner_Username != nil &&
		(row.Visibility != models.VisibilityAnonymous || isOwner) {
		view.UserProfile = &models.UserSummary{
			ID:          *row.User_Profile_ID,
			Username:    *row.Owner_Username,
			DisplayName: models.DisplayName(*row.Owner_Username, deref(row.Owner_First_Name), deref(row.Owner_Last_Name)),
			Avatar:      row.Owner_Photo_URL,
		}
	}

	return view
}

func newEncouragementViews(pr models.PrayerRequest, viewerID *int, interactions []models.InteractionWithUser) []models.EncouragementView {
	views := make([]models.EncouragementView, 0, len(interactions))
	for _, i := range interactions {
		view := models.EncouragementView{
			ID:        i.Prayer_Interaction_ID,
			Message:   i.Message,
			CreatedAt: i.Datetime_Create,
		}
		if !hidesActor(pr, viewerID, i.User_Profile_ID) {
			actor := i.Actor()
			view.User = &actor
		}
		views = append(views, view)
	}
	return views
}

// hidesActor reports whether naming actorID would reveal the owner of an
// anonymous request to someone else.
func hidesActor(pr models.PrayerRequest, viewerID *int, actorID int) bool {
	return pr.Visibility == models.VisibilityAnonymous &&
		pr.IsOwnedBy(&actorID) &&
		!pr.IsOwnedBy(viewerID)
}

func validatePrayerRequest(pr models.PrayerRequest) error {
	if pr.Short_Description == "" {
		return apperror.ValidationFailed("short_description", "Short description is required.")
	}
	if utf8.RuneCountInString(pr.Short_Description) > models.MaxShortDescriptionLength {
		return apperror.ValidationFailed("short_description", "Short description must be 200 characters or fewer.")
	}
	if utf8.RuneCountInString(pr.Category) > models.MaxCategoryLength {
		return apperror.ValidationFailed("category", "Category must be 50 characters or fewer.")
	}
	if !models.ValidVisibility(pr.Visibility) {
		return apperror.ValidationFailed("visibility", "Visibility must be one of public, friends, anonymous.")
	}
	return nil
}

func parsePrayerRequestID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperror.NotFound("prayer request", id)
	}
	return parsed.String(), nil
}

// normalizePage applies the page size defaults and rejects pages whose
// offset would not fit in a 32-bit int.
func normalizePage(page, pageSize int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if pageSize > models.MaxPageSize {
		pageSize = models.MaxPageSize
	}
	if page-1 > math.MaxInt32/pageSize {
		return 0, 0, apperror.ValidationFailed("page", "Page is out of range.")
	}
	return page, pageSize, nil
}

func viewerIDOf(viewer *models.UserProfile) *int {
	if viewer == nil {
		return nil
	}
	id := viewer.User_Profile_ID
	return &id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
