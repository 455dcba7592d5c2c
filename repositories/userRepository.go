package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"

	"github.com/SaltAndLight/apperror"
	"github.com/SaltAndLight/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error)
	GetUserByID(ctx context.Context, id int) (models.UserProfile, error)
	GetUserByUsername(ctx context.Context, username string) (models.UserProfile, error)

	Follow(ctx context.Context, followerID, followingID int) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID int) (bool, error)

	UpsertPushToken(ctx context.Context, token models.PushToken) error
	ListPushTokens(ctx context.Context, userID int) ([]models.PushToken, error)
}

type userRepository struct {
	db *goqu.Database
}

func NewUserRepository(db *goqu.Database) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error) {
	var created models.UserProfile
	_, err := r.db.Insert("user_profile").
		Rows(user).
		Returning(goqu.Star()).
		Executor().
		ScanStructContext(ctx, &created)
	if err != nil {
		if isUniqueViolation(err) {
			return models.UserProfile{}, apperror.Conflict("username already exists")
		}
		return models.UserProfile{}, fmt.Errorf("insert user profile: %w", err)
	}
	return created, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int) (models.UserProfile, error) {
	var user models.UserProfile
	found, err := r.db.From("user_profile").
		Where(goqu.C("user_profile_id").Eq(id)).
		ScanStructContext(ctx, &user)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get user profile %d: %w", id, err)
	}
	if !found {
		return models.UserProfile{}, apperror.NotFound("user", strconv.Itoa(id))
	}
	return user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (models.UserProfile, error) {
	var user models.UserProfile
	found, err := r.db.From("user_profile").
		Where(goqu.C("username").Eq(username)).
		ScanStructContext(ctx, &user)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get user profile %q: %w", username, err)
	}
	if !found {
		return models.UserProfile{}, apperror.NotFound("user", username)
	}
	return user, nil
}

// Follow creates the follower -> following edge. It reports false when the
// edge already existed.
func (r *userRepository) Follow(ctx context.Context, followerID, followingID int) (bool, error) {
	result, err := r.db.Insert("follow").
		Rows(goqu.Record{"follower_id": followerID, "following_id": followingID}).
		OnConflict(goqu.DoNothing()).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followingID int) (bool, error) {
	result, err := r.db.Delete("follow").
		Where(
			goqu.C("follower_id").Eq(followerID),
			goqu.C("following_id").Eq(followingID),
		).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertPushToken stores a device token, moving it to the given user if the
// device was previously registered to someone else.
func (r *userRepository) UpsertPushToken(ctx context.Context, token models.PushToken) error {
	_, err := r.db.Insert("user_push_tokens").
		Rows(goqu.Record{
			"user_profile_id": token.User_Profile_ID,
			"push_token":      token.Push_Token,
			"platform":        token.Platform,
		}).
		OnConflict(goqu.DoUpdate("push_token", goqu.Record{
			"user_profile_id": token.User_Profile_ID,
			"platform":        token.Platform,
			"updated_at":      goqu.L("NOW()"),
		})).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

func (r *userRepository) ListPushTokens(ctx context.Context, userID int) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.From("user_push_tokens").
		Where(goqu.C("user_profile_id").Eq(userID)).
		ScanStructsContext(ctx, &tokens)
	if err != nil {
		return nil, fmt.Errorf("get push tokens for user %d: %w", userID, err)
	}
	return tokens, nil
}
