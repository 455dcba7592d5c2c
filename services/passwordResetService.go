package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
	"github.com/SaltAndLight/repositories"
)

const (
	resetCodeTTL        = 15 * time.Minute
	resetTokenTTL       = 5 * time.Minute
	maxResetAttempts    = 3
	resetTokenPurpose   = "password_reset"
	minPasswordLength   = 8
	invalidResetCodeMsg = "Invalid or expired verification code"
)

type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, code, name string) error
}

type PasswordResetService struct {
	repo    repositories.PasswordResetRepository
	mailer  ResetMailer
	secret  []byte
	log     logrus.FieldLogger
	now     func() time.Time
	newCode func() (string, error)
}

func NewPasswordResetService(repo repositories.PasswordResetRepository, mailer ResetMailer, secret string, log logrus.FieldLogger) *PasswordResetService {
	return &PasswordResetService{
		repo:    repo,
		mailer:  mailer,
		secret:  []byte(secret),
		log:     log,
		now:     time.Now,
		newCode: generateResetCode,
	}
}

// ForgotPassword mails a fresh code when the address belongs to an account.
// Unknown addresses succeed silently so the endpoint can't be used to probe
// for accounts.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return fmt.Errorf("email service unavailable")
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	err = s.repo.CreateResetToken(ctx, models.PasswordResetToken{
		User_Profile_ID: user.User_Profile_ID,
		Code:            code,
		Expires_At:      s.now().Add(resetCodeTTL).UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, code, user.Summary().DisplayName); err != nil {
		return err
	}

	s.log.WithField("user_profile_id", user.User_Profile_ID).Info("password reset code sent")
	return nil
}

// VerifyResetCode checks the newest outstanding code and, on a match,
// returns a short-lived token for ResetPassword. Every check counts
// toward the attempt limit.
func (s *PasswordResetService) VerifyResetCode(ctx context.Context, email, code string) (string, int, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperror.ErrNotFound) {
		return "", 0, apperror.Unauthorized(invalidResetCodeMsg)
	}
	if err != nil {
		return "", 0, err
	}

	token, err := s.repo.LatestActiveToken(ctx, user.User_Profile_ID, s.now().UTC())
	if errors.Is(err, apperror.ErrNotFound) {
		return "", 0, apperror.Unauthorized(invalidResetCodeMsg)
	}
	if err != nil {
		return "", 0, err
	}

	if token.Attempts >= maxResetAttempts {
		return "", 0, apperror.Unauthorized("Maximum verification attempts exceeded. Please request a new code.")
	}
	if err := s.repo.IncrementAttempts(ctx, token.Token_ID); err != nil {
		return "", 0, err
	}

	if subtle.ConstantTimeCompare([]byte(token.Code), []byte(code)) != 1 {
		s.log.WithFields(logrus.Fields{
			"user_profile_id": user.User_Profile_ID,
			"attempts":        token.Attempts + 1,
		}).Warn("password reset code mismatch")
		return "", 0, apperror.Unauthorized(invalidResetCodeMsg)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      user.User_Profile_ID,
		"purpose": resetTokenPurpose,
		"exp":     s.now().Add(resetTokenTTL).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, user.User_Profile_ID, nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperror.ValidationFailed("new_password", "Password must be at least 8 characters long.")
	}

	userID, err := s.parseResetToken(resetToken)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.ResetPassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("Invalid or expired token")
		}
		return err
	}

	s.log.WithField("user_profile_id", userID).Info("password reset")
	return nil
}

func (s *PasswordResetService) parseResetToken(tokenString string) (int, error) {
	invalid := apperror.Unauthorized("Invalid or expired token")

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return 0, invalid
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return 0, invalid
	}
	if purpose, _ := claims["purpose"].(string); purpose != resetTokenPurpose {
		return 0, invalid
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return 0, invalid
	}
	return int(id), nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
