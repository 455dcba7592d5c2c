package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

type PasswordResetRepository interface {
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error)
	CreateResetToken(ctx context.Context, token models.PasswordResetToken) error
	// LatestActiveToken returns the newest unused, unexpired code for the user.
	LatestActiveToken(ctx context.Context, userID int, now time.Time) (models.PasswordResetToken, error)
	IncrementAttempts(ctx context.Context, tokenID int) error
	// ResetPassword stores the new hash and burns every outstanding code for
	// the user in one transaction.
	ResetPassword(ctx context.Context, userID int, passwordHash string) error
}

type passwordResetRepository struct {
	db *goqu.Database
}

func NewPasswordResetRepository(db *goqu.Database) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	var user models.UserProfile
	found, err := r.db.From("user_profile").
		Where(goqu.Func("LOWER", goqu.C("email")).Eq(goqu.Func("LOWER", email))).
		Order(goqu.C("user_profile_id").Asc()).
		ScanStructContext(ctx, &user)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get user profile by email: %w", err)
	}
	if !found {
		return models.UserProfile{}, apperror.NotFound("user", email)
	}
	return user, nil
}

func (r *passwordResetRepository) CreateResetToken(ctx context.Context, token models.PasswordResetToken) error {
	_, err := r.db.Insert("password_reset_tokens").
		Rows(token).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) LatestActiveToken(ctx context.Context, userID int, now time.Time) (models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	found, err := r.db.From("password_reset_tokens").
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("used").IsFalse(),
			goqu.C("expires_at").Gt(now),
		).
		Order(goqu.C("created_at").Desc(), goqu.C("password_reset_tokens_id").Desc()).
		ScanStructContext(ctx, &token)
	if err != nil {
		return models.PasswordResetToken{}, fmt.Errorf("get password reset token: %w", err)
	}
	if !found {
		return models.PasswordResetToken{}, apperror.NotFound("password reset token", fmt.Sprint(userID))
	}
	return token, nil
}

func (r *passwordResetRepository) IncrementAttempts(ctx context.Context, tokenID int) error {
	_, err := r.db.Update("password_reset_tokens").
		Set(goqu.Record{"attempts": goqu.L("attempts + 1")}).
		Where(goqu.C("password_reset_tokens_id").Eq(tokenID)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("increment reset attempts: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) ResetPassword(ctx context.Context, userID int, passwordHash string) error {
	return withTx(ctx, r.db, func(tx *goqu.TxDatabase) error {
		result, err := tx.Update("user_profile").
			Set(goqu.Record{
				"password":        passwordHash,
				"datetime_update": goqu.L("NOW()"),
			}).
			Where(goqu.C("user_profile_id").Eq(userID)).
			Executor().
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperror.NotFound("user", fmt.Sprint(userID))
		}

		_, err = tx.Update("password_reset_tokens").
			Set(goqu.Record{"used": true}).
			Where(
				goqu.C("user_profile_id").Eq(userID),
				goqu.C("used").IsFalse(),
			).
			Executor().
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("mark reset tokens used: %w", err)
		}
		return nil
	})
}
