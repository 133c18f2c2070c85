package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/dberrors"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// IUserRepository defines the interface for account and profile database operations
type IUserRepository interface {
	// Accounts
	CreateUserWithProfile(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameExists(ctx context.Context, username string, excludeUserID int64) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	// Profiles
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
	UpdateAvatarURL(ctx context.Context, userID int64, avatarURL string) error
}

// UserRepository handles the users and user_profiles tables
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUserWithProfile inserts the account and its empty profile in one transaction
func (r *UserRepository) CreateUserWithProfile(ctx context.Context, user *models.User) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := squirrel.Insert("users").
			Columns("username", "email", "password").
			Values(user.Username, user.Email, user.Password).
			Suffix("RETURNING id, created_at, updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&id, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}

		sql, args, err = squirrel.Insert("user_profiles").
			Columns("id", "username").
			Values(id, user.Username).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_username_lower_key") {
			return 0, apperrors.ErrUsernameAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, "users_email_lower_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return 0, err
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) selectUser() squirrel.SelectBuilder {
	return squirrel.Select("id", "username", "email", "password", "created_at", "updated_at").
		From("users").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepository) getUser(ctx context.Context, query squirrel.SelectBuilder) (*models.User, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, err
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user")
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, r.selectUser().Where(squirrel.Eq{"id": id}))
}

// GetUserByLogin retrieves a user whose username or email equals login, ignoring case
func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getUser(ctx, r.loginQuery(login))
}

func (r *UserRepository) loginQuery(login string) squirrel.SelectBuilder {
	return r.selectUser().
		Where(squirrel.Or{
			squirrel.Expr("LOWER(username) = LOWER(?)", login),
			squirrel.Expr("LOWER(email) = LOWER(?)", login),
		}).
		OrderBy("id").
		Limit(1)
}

// existsQuery wraps a users lookup in SELECT EXISTS so it always yields one boolean row
func (r *UserRepository) existsQuery(where squirrel.Sqlizer) squirrel.SelectBuilder {
	return squirrel.Select("1").From("users").Where(where).
		Prefix("SELECT EXISTS (").Suffix(")").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepository) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.existsQuery(where).ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Msg("Error checking user existence")
		return false, err
	}
	return exists, nil
}

// UsernameExists checks for another account with the same username, ignoring case
func (r *UserRepository) UsernameExists(ctx context.Context, username string, excludeUserID int64) (bool, error) {
	return r.exists(ctx, usernameTaken(username, excludeUserID))
}

func usernameTaken(username string, excludeUserID int64) squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Expr("LOWER(username) = LOWER(?)", username),
		squirrel.NotEq{"id": excludeUserID},
	}
}

// EmailExists checks if an email already exists, ignoring case
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, emailTaken(email))
}

func emailTaken(email string) squirrel.Sqlizer {
	return squirrel.Expr("LOWER(email) = LOWER(?)", email)
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	sql, args, err := squirrel.Update("users").
		Set("password", passwordHash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating password")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetProfile retrieves the profile of a user
func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	sql, args, err := squirrel.Select(
		"id", "username", "university", "major", "avatar_url", "study_start_year", "created_at", "updated_at",
	).From("user_profiles").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var p models.UserProfile
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&p.ID, &p.Username, &p.University, &p.Major, &p.AvatarURL, &p.StudyStartYear, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning profile")
		return nil, err
	}
	return &p, nil
}

// UpdateProfile stores profile fields and keeps users.username in step
func (r *UserRepository) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	now := time.Now()
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := squirrel.Update("user_profiles").
			Set("username", profile.Username).
			Set("university", profile.University).
			Set("major", profile.Major).
			Set("study_start_year", profile.StudyStartYear).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": profile.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrProfileNotFound
		}

		sql, args, err = squirrel.Update("users").
			Set("username", profile.Username).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": profile.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_username_lower_key") {
			return apperrors.ErrUsernameAlreadyExists
		}
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			logger.Error().Err(err).Int64("userID", profile.ID).Msg("Error updating profile")
		}
		return err
	}

	profile.UpdatedAt = now
	return nil
}

// UpdateAvatarURL sets the avatar URL of a profile
func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID int64, avatarURL string) error {
	sql, args, err := squirrel.Update("user_profiles").
		Set("avatar_url", avatarURL).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error updating avatar URL")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProfileNotFound
	}
	return nil
}
