package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

func setupPrayerRequestRouter(t *testing.T, user *models.UserProfile) (*mockPrayerRequestService, http.Handler) {
	t.Helper()
	logger, _ := logrustest.NewNullLogger()
	svc := &mockPrayerRequestService{}
	pc := NewPrayerRequestController(svc, logger)

	router := SetupTestRouter(user)
	router.GET("/prayer_requests", pc.List)
	router.GET("/prayer_requests/answered", pc.ListAnswered)
	router.POST("/prayer_requests", pc.Create)
	router.GET("/prayer_requests/:id", pc.Get)
	router.PATCH("/prayer_requests/:id", pc.Update)
	router.DELETE("/prayer_requests/:id", pc.Delete)
	router.POST("/prayer_requests/:id/pray", pc.Pray)
	router.DELETE("/prayer_requests/:id/pray", pc.Unpray)
	router.GET("/prayer_requests/:id/encouragements", pc.ListEncouragements)
	router.POST("/prayer_requests/:id/encouragements", pc.AddEncouragement)
	router.POST("/prayer_requests/:id/mark-answered", pc.MarkAnswered)
	router.GET("/prayer_requests/:id/prayed-users", pc.PrayedUsers)
	return svc, router
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestGetPrayerRequest(t *testing.T) {
	user := MockUser()
	var anonymous *models.UserProfile

	tests := []struct {
		name           string
		user           *models.UserProfile
		serviceErr     error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "anonymous viewer",
			user:           nil,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "authenticated viewer",
			user:           &user,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not visible",
			user:           nil,
			serviceErr:     apperror.NotFound("prayer request", MockPrayerRequestID),
			expectedStatus: http.StatusNotFound,
			expectedError:  "prayer request not found with id " + MockPrayerRequestID,
		},
		{
			name:           "unexpected failure is hidden",
			user:           nil,
			serviceErr:     errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupPrayerRequestRouter(t, tt.user)

			expectedViewer := anonymous
			if tt.user != nil {
				expectedViewer = tt.user
			}
			svc.On("Get", mock.Anything, expectedViewer, MockPrayerRequestID).Return(MockPrayerRequestView(), tt.serviceErr)

			w := PerformRequest(router, http.MethodGet, "/prayer_requests/"+MockPrayerRequestID, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w.Body.Bytes())
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			} else {
				assert.Equal(t, MockPrayerRequestID, body["id"])
				assert.Equal(t, float64(3), body["prayer_count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestListPrayerRequests(t *testing.T) {
	svc, router := setupPrayerRequestRouter(t, nil)
	page := models.PrayerRequestPage{Count: 1, Page: 2, PageSize: 5, Results: []models.PrayerRequestView{MockPrayerRequestView()}}
	svc.On("List", mock.Anything, (*models.UserProfile)(nil), models.PrayerRequestQuery{
		Category: "health", Sort: "most_prayed", Page: 2, Page_Size: 5,
	}).Return(page, nil)

	w := PerformRequest(router, http.MethodGet, "/prayer_requests?category=health&sort=most_prayed&page=2&page_size=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(5), body["page_size"])
	assert.Len(t, body["results"], 1)
}

func TestListPrayerRequestsBadQuery(t *testing.T) {
	svc, router := setupPrayerRequestRouter(t, nil)

	w := PerformRequest(router, http.MethodGet, "/prayer_requests?page=abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAnsweredPrayerRequests(t *testing.T) {
	user := MockUser()
	svc, router := setupPrayerRequestRouter(t, &user)
	svc.On("ListAnswered", mock.Anything, &user, models.PrayerRequestQuery{Sort: "answered"}).
		Return(models.PrayerRequestPage{Page: 1, PageSize: 20, Results: []models.PrayerRequestView{}}, nil)

	w := PerformRequest(router, http.MethodGet, "/prayer_requests/answered?sort=answered", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCreatePrayerRequest(t *testing.T) {
	user := MockUser()

	tests := []struct {
		name           string
		body           any
		serviceErr     error
		callsService   bool
		expectedStatus int
		expectedField  string
	}{
		{
			name:           "created",
			body:           models.PrayerRequestCreate{Short_Description: "Healing for my mother", Category: "Health"},
			callsService:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing description fails binding",
			body:           map[string]string{"category": "Health"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "service validation",
			body:           models.PrayerRequestCreate{Short_Description: "x", Visibility: "secret"},
			serviceErr:     apperror.ValidationFailed("visibility", "Visibility must be one of public, friends, anonymous."),
			callsService:   true,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "visibility",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupPrayerRequestRouter(t, &user)
			if tt.callsService {
				svc.On("Create", mock.Anything, user, tt.body).Return(MockPrayerRequestView(), tt.serviceErr)
			}

			w := PerformRequest(router, http.MethodPost, "/prayer_requests", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedField != "" {
				assert.Equal(t, tt.expectedField, decodeBody(t, w.Body.Bytes())["field"])
			}
			if !tt.callsService {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUpdateAndDeletePrayerRequest(t *testing.T) {
	user := MockUser()

	t.Run("update by non-owner", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, &user)
		desc := "new text"
		svc.On("Update", mock.Anything, user, MockPrayerRequestID, models.PrayerRequestUpdate{Short_Description: &desc}).
			Return(models.PrayerRequestView{}, apperror.Forbidden("only the owner can edit this prayer request"))

		w := PerformRequest(router, http.MethodPatch, "/prayer_requests/"+MockPrayerRequestID, map[string]string{"short_description": desc})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, &user)
		svc.On("Delete", mock.Anything, user, MockPrayerRequestID).Return(nil)

		w := PerformRequest(router, http.MethodDelete, "/prayer_requests/"+MockPrayerRequestID, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestPrayAndUnpray(t *testing.T) {
	user := MockUser()

	tests := []struct {
		name           string
		method         string
		serviceMethod  string
		result         models.PrayResult
		serviceErr     error
		expectedStatus int
		expectedDetail string
	}{
		{
			name:           "first prayer",
			method:         http.MethodPost,
			serviceMethod:  "Pray",
			result:         models.PrayResult{Detail: "Prayer recorded.", PrayerCount: 4, Created: true},
			expectedStatus: http.StatusOK,
			expectedDetail: "Prayer recorded.",
		},
		{
			name:           "repeat prayer",
			method:         http.MethodPost,
			serviceMethod:  "Pray",
			result:         models.PrayResult{Detail: "You have already recorded a prayer for this request.", PrayerCount: 4},
			expectedStatus: http.StatusOK,
			expectedDetail: "You have already recorded a prayer for this request.",
		},
		{
			name:           "unpray",
			method:         http.MethodDelete,
			serviceMethod:  "Unpray",
			result:         models.PrayResult{Detail: "Prayer removed.", PrayerCount: 3},
			expectedStatus: http.StatusOK,
			expectedDetail: "Prayer removed.",
		},
		{
			name:           "unpray without prayer",
			method:         http.MethodDelete,
			serviceMethod:  "Unpray",
			serviceErr:     apperror.NotFound("prayer record", MockPrayerRequestID),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupPrayerRequestRouter(t, &user)
			svc.On(tt.serviceMethod, mock.Anything, user, MockPrayerRequestID).Return(tt.result, tt.serviceErr)

			w := PerformRequest(router, tt.method, "/prayer_requests/"+MockPrayerRequestID+"/pray", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w.Body.Bytes())
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, body["detail"])
				assert.Equal(t, float64(tt.result.PrayerCount), body["prayer_count"])
				assert.NotContains(t, body, "Created")
			}
		})
	}
}

func TestEncouragements(t *testing.T) {
	user := MockUser()

	t.Run("add", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, &user)
		summary := user.Summary()
		svc.On("AddEncouragement", mock.Anything, user, MockPrayerRequestID, "Praying!").
			Return(models.EncouragementView{ID: 7, User: &summary, Message: "Praying!"}, nil)

		w := PerformRequest(router, http.MethodPost, "/prayer_requests/"+MockPrayerRequestID+"/encouragements", models.EncouragementCreate{Message: "Praying!"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Praying!", decodeBody(t, w.Body.Bytes())["message"])
	})

	t.Run("add too long", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, &user)
		svc.On("AddEncouragement", mock.Anything, user, MockPrayerRequestID, mock.Anything).
			Return(models.EncouragementView{}, apperror.ValidationFailed("message", "Encouragement must be 100 characters or fewer."))

		w := PerformRequest(router, http.MethodPost, "/prayer_requests/"+MockPrayerRequestID+"/encouragements", models.EncouragementCreate{Message: "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, "Encouragement must be 100 characters or fewer.", body["error"])
		assert.Equal(t, "message", body["field"])
	})

	t.Run("list anonymously", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, nil)
		svc.On("ListEncouragements", mock.Anything, (*models.UserProfile)(nil), MockPrayerRequestID).
			Return([]models.EncouragementView{{ID: 1, Message: "hi"}}, nil)

		w := PerformRequest(router, http.MethodGet, "/prayer_requests/"+MockPrayerRequestID+"/encouragements", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var views []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
		require.Len(t, views, 1)
		assert.Nil(t, views[0]["user"])
	})

	t.Run("prayed users", func(t *testing.T) {
		svc, router := setupPrayerRequestRouter(t, nil)
		svc.On("PrayedUsers", mock.Anything, (*models.UserProfile)(nil), MockPrayerRequestID).
			Return([]models.PrayedUser{{UserSummary: MockAdminUser().Summary()}}, nil)

		w := PerformRequest(router, http.MethodGet, "/prayer_requests/"+MockPrayerRequestID+"/prayed-users", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var users []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
		require.Len(t, users, 1)
		assert.Equal(t, "adminuser", users[0]["username"])
		assert.Contains(t, users[0], "prayed_at")
	})
}

func TestMarkAnswered(t *testing.T) {
	user := MockUser()

	tests := []struct {
		name           string
		body           any
		expectedInput  models.MarkAnsweredRequest
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "empty body",
			expectedInput:  models.MarkAnsweredRequest{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "with note",
			body:           models.MarkAnsweredRequest{Answered_Note: "Thank you!", Answered_Scripture: "Ps 34:4"},
			expectedInput:  models.MarkAnsweredRequest{Answered_Note: "Thank you!", Answered_Scripture: "Ps 34:4"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "already answered",
			expectedInput:  models.MarkAnsweredRequest{},
			serviceErr:     apperror.Conflict("prayer request is already answered"),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "not the owner",
			expectedInput:  models.MarkAnsweredRequest{},
			serviceErr:     apperror.Forbidden("only the owner can mark this prayer request answered"),
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := setupPrayerRequestRouter(t, &user)
			answered := MockPrayerRequestView()
			answered.Status = models.StatusAnswered
			svc.On("MarkAnswered", mock.Anything, user, MockPrayerRequestID, tt.expectedInput).Return(answered, tt.serviceErr)

			w := PerformRequest(router, http.MethodPost, "/prayer_requests/"+MockPrayerRequestID+"/mark-answered", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.serviceErr == nil {
				assert.Equal(t, models.StatusAnswered, decodeBody(t, w.Body.Bytes())["status"])
			}
			svc.AssertExpectations(t)
		})
	}
}
