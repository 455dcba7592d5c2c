package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
	"github.com/SaltAndLight/repositories"
)

// WelcomeMailer sends the signup greeting. A nil *EmailService satisfies it
// and always fails, which the caller only logs.
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
}

type UserService struct {
	users    repositories.UserRepository
	mailer   WelcomeMailer
	secret   []byte
	tokenTTL time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewUserService(users repositories.UserRepository, mailer WelcomeMailer, secret string, tokenTTL time.Duration, log logrus.FieldLogger) *UserService {
	return &UserService{
		users:    users,
		mailer:   mailer,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		log:      log,
		now:      time.Now,
	}
}

func (s *UserService) Signup(ctx context.Context, in models.UserProfileSignup) (models.UserProfile, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.UserProfile{}, apperror.ValidationFailed("username", "Username is required.")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserProfile{}, err
	}

	user, err := s.users.CreateUser(ctx, models.UserProfile{
		Username:   username,
		Password:   string(passwordHash),
		Email:      strings.TrimSpace(in.Email),
		First_Name: strings.TrimSpace(in.First_Name),
		Last_Name:  strings.TrimSpace(in.Last_Name),
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	s.log.WithField("user_profile_id", user.User_Profile_ID).Info("user signed up")

	if s.mailer != nil {
		s.wg.Add(1)
		go func(email, name string) {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.mailer.SendWelcomeEmail(ctx, email, name); err != nil {
				s.log.WithError(err).Warn("failed to send welcome email")
			}
		}(user.Email, user.Summary().DisplayName)
	}

	return user, nil
}

// Login checks credentials and issues a signed token. Unknown users and bad
// passwords fail identically.
func (s *UserService) Login(ctx context.Context, in models.Login) (string, models.UserProfile, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, apperror.ErrNotFound) {
		return "", models.UserProfile{}, apperror.Unauthorized("invalid username or password")
	}
	if err != nil {
		return "", models.UserProfile{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", models.UserProfile{}, apperror.Unauthorized("invalid username or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", models.UserProfile{}, err
	}
	return token, user, nil
}

func (s *UserService) issueToken(user models.UserProfile) (string, error) {
	role := "user"
	if user.Admin {
		role = "admin"
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   user.User_Profile_ID,
		"exp":  s.now().Add(s.tokenTTL).Unix(),
		"role": role,
	})
	return token.SignedString(s.secret)
}

func (s *UserService) GetProfile(ctx context.Context, id int) (models.UserProfile, error) {
	return s.users.GetUserByID(ctx, id)
}

// Follow creates the follower -> target edge that grants the follower
// access to the target's friends-only requests. Following twice is a no-op.
func (s *UserService) Follow(ctx context.Context, follower models.UserProfile, targetID int) (bool, error) {
	if follower.User_Profile_ID == targetID {
		return false, apperror.ValidationFailed("user_profile_id", "You cannot follow yourself.")
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return false, err
	}
	return s.users.Follow(ctx, follower.User_Profile_ID, targetID)
}

func (s *UserService) Unfollow(ctx context.Context, follower models.UserProfile, targetID int) error {
	removed, err := s.users.Unfollow(ctx, follower.User_Profile_ID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("follow", strconv.Itoa(targetID))
	}
	return nil
}

func (s *UserService) StorePushToken(ctx context.Context, user models.UserProfile, in models.PushTokenRequest) error {
	token := strings.TrimSpace(in.Push_Token)
	if token == "" {
		return apperror.ValidationFailed("push_token", "Push token is required.")
	}
	if in.Platform != models.PlatformIOS && in.Platform != models.PlatformAndroid {
		return apperror.ValidationFailed("platform", "Platform must be ios or android.")
	}

	return s.users.UpsertPushToken(ctx, models.PushToken{
		User_Profile_ID: user.User_Profile_ID,
		Push_Token:      token,
		Platform:        in.Platform,
	})
}

// Wait blocks until background welcome emails have been attempted.
func (s *UserService) Wait() {
	s.wg.Wait()
}
