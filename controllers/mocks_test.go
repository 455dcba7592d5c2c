package controllers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SaltAndLight/models"
)

type mockPrayerRequestService struct {
	mock.Mock
}

func (m *mockPrayerRequestService) List(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error) {
	args := m.Called(ctx, viewer, q)
	return args.Get(0).(models.PrayerRequestPage), args.Error(1)
}

func (m *mockPrayerRequestService) ListAnswered(ctx context.Context, viewer *models.UserProfile, q models.PrayerRequestQuery) (models.PrayerRequestPage, error) {
	args := m.Called(ctx, viewer, q)
	return args.Get(0).(models.PrayerRequestPage), args.Error(1)
}

func (m *mockPrayerRequestService) Get(ctx context.Context, viewer *models.UserProfile, id string) (models.PrayerRequestView, error) {
	args := m.Called(ctx, viewer, id)
	return args.Get(0).(models.PrayerRequestView), args.Error(1)
}

func (m *mockPrayerRequestService) Create(ctx context.Context, owner models.UserProfile, in models.PrayerRequestCreate) (models.PrayerRequestView, error) {
	args := m.Called(ctx, owner, in)
	return args.Get(0).(models.PrayerRequestView), args.Error(1)
}

func (m *mockPrayerRequestService) Update(ctx context.Context, actor models.UserProfile, id string, in models.PrayerRequestUpdate) (models.PrayerRequestView, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(models.PrayerRequestView), args.Error(1)
}

func (m *mockPrayerRequestService) Delete(ctx context.Context, actor models.UserProfile, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockPrayerRequestService) Pray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(models.PrayResult), args.Error(1)
}

func (m *mockPrayerRequestService) Unpray(ctx context.Context, actor models.UserProfile, id string) (models.PrayResult, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(models.PrayResult), args.Error(1)
}

func (m *mockPrayerRequestService) AddEncouragement(ctx context.Context, actor models.UserProfile, id, message string) (models.EncouragementView, error) {
	args := m.Called(ctx, actor, id, message)
	return args.Get(0).(models.EncouragementView), args.Error(1)
}

func (m *mockPrayerRequestService) ListEncouragements(ctx context.Context, viewer *models.UserProfile, id string) ([]models.EncouragementView, error) {
	args := m.Called(ctx, viewer, id)
	views, _ := args.Get(0).([]models.EncouragementView)
	return views, args.Error(1)
}

func (m *mockPrayerRequestService) PrayedUsers(ctx context.Context, viewer *models.UserProfile, id string) ([]models.PrayedUser, error) {
	args := m.Called(ctx, viewer, id)
	users, _ := args.Get(0).([]models.PrayedUser)
	return users, args.Error(1)
}

func (m *mockPrayerRequestService) MarkAnswered(ctx context.Context, actor models.UserProfile, id string, in models.MarkAnsweredRequest) (models.PrayerRequestView, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(models.PrayerRequestView), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Signup(ctx context.Context, in models.UserProfileSignup) (models.UserProfile, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.UserProfile), args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, in models.Login) (string, models.UserProfile, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Get(1).(models.UserProfile), args.Error(2)
}

func (m *mockUserService) GetProfile(ctx context.Context, id int) (models.UserProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.UserProfile), args.Error(1)
}

func (m *mockUserService) Follow(ctx context.Context, follower models.UserProfile, targetID int) (bool, error) {
	args := m.Called(ctx, follower, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserService) Unfollow(ctx context.Context, follower models.UserProfile, targetID int) error {
	return m.Called(ctx, follower, targetID).Error(0)
}

func (m *mockUserService) StorePushToken(ctx context.Context, user models.UserProfile, in models.PushTokenRequest) error {
	return m.Called(ctx, user, in).Error(0)
}

type mockNotificationService struct {
	mock.Mock
}

func (m *mockNotificationService) List(ctx context.Context, recipient models.UserProfile, unreadOnly bool) ([]models.PrayerNotification, error) {
	args := m.Called(ctx, recipient, unreadOnly)
	notifications, _ := args.Get(0).([]models.PrayerNotification)
	return notifications, args.Error(1)
}

func (m *mockNotificationService) ToggleRead(ctx context.Context, recipient models.UserProfile, notificationID int) (models.PrayerNotification, error) {
	args := m.Called(ctx, recipient, notificationID)
	return args.Get(0).(models.PrayerNotification), args.Error(1)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, recipient models.UserProfile) (int64, error) {
	args := m.Called(ctx, recipient)
	return args.Get(0).(int64), args.Error(1)
}

type mockPasswordResetService struct {
	mock.Mock
}

func (m *mockPasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockPasswordResetService) VerifyResetCode(ctx context.Context, email, code string) (string, int, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *mockPasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}
