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

// IRatingRepository defines the interface for rating database operations
type IRatingRepository interface {
	StarsByNote(ctx context.Context) (map[int64][]int, error)
	StarsForNote(ctx context.Context, noteID int64) ([]int, error)
	ListByNote(ctx context.Context, noteID int64) ([]*models.Rating, error)
	GetByNoteAndUser(ctx context.Context, noteID, userID int64) (*models.Rating, error)
	Create(ctx context.Context, rating *models.Rating) (int64, error)
	Update(ctx context.Context, rating *models.Rating) error
}

// RatingRepository handles database operations for ratings
type RatingRepository struct {
	db *pgxpool.Pool
}

// NewRatingRepository creates a new RatingRepository
func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) selectRatingQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"r.id", "r.note_id", "r.user_id", "r.stars", "r.comment", "r.created_at", "r.updated_at",
		"COALESCE(up.username, '') AS rater_username", "up.avatar_url AS rater_avatar_url",
	).From("ratings r").
		LeftJoin("user_profiles up ON r.user_id = up.id").
		PlaceholderFormat(squirrel.Dollar)
}

func scanRating(row pgx.Row) (*models.Rating, error) {
	var rt models.Rating
	err := row.Scan(
		&rt.ID, &rt.NoteID, &rt.UserID, &rt.Stars, &rt.Comment, &rt.CreatedAt, &rt.UpdatedAt,
		&rt.RaterUsername, &rt.RaterAvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// StarsByNote returns the stars of every rating grouped by note
func (r *RatingRepository) StarsByNote(ctx context.Context) (map[int64][]int, error) {
	sql, args, err := squirrel.Select("note_id", "stars").From("ratings").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying rating stars")
		return nil, err
	}
	defer rows.Close()

	stars := make(map[int64][]int)
	for rows.Next() {
		var noteID int64
		var s int
		if err := rows.Scan(&noteID, &s); err != nil {
			logger.Error().Err(err).Msg("Error scanning rating stars")
			return nil, err
		}
		stars[noteID] = append(stars[noteID], s)
	}
	return stars, rows.Err()
}

// StarsForNote returns the stars of one note's ratings
func (r *RatingRepository) StarsForNote(ctx context.Context, noteID int64) ([]int, error) {
	sql, args, err := squirrel.Select("stars").From("ratings").
		Where(squirrel.Eq{"note_id": noteID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying note stars")
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// ListByNote returns a note's ratings, newest first
func (r *RatingRepository) ListByNote(ctx context.Context, noteID int64) ([]*models.Rating, error) {
	sql, args, err := r.selectRatingQuery().
		Where(squirrel.Eq{"r.note_id": noteID}).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error querying ratings")
		return nil, err
	}
	defer rows.Close()

	ratings := make([]*models.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning rating row")
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// GetByNoteAndUser returns a user's rating of a note
func (r *RatingRepository) GetByNoteAndUser(ctx context.Context, noteID, userID int64) (*models.Rating, error) {
	sql, args, err := r.selectRatingQuery().
		Where(squirrel.Eq{"r.note_id": noteID, "r.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rating, err := scanRating(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRatingNotFound
		}
		logger.Error().Err(err).Int64("noteID", noteID).Int64("userID", userID).Msg("Error scanning rating")
		return nil, err
	}
	return rating, nil
}

// Create inserts a rating. A second rating by the same user yields ErrResourceAlreadyExists.
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) (int64, error) {
	sql, args, err := squirrel.Insert("ratings").
		Columns("note_id", "user_id", "stars", "comment").
		Values(rating.NoteID, rating.UserID, rating.Stars, rating.Comment).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "ratings_note_user_key") {
			return 0, apperrors.ErrResourceAlreadyExists
		}
		logger.Error().Err(err).Int64("noteID", rating.NoteID).Msg("Error inserting rating")
		return 0, err
	}
	return rating.ID, nil
}

// Update stores new stars and comment for the (note, user) rating
func (r *RatingRepository) Update(ctx context.Context, rating *models.Rating) error {
	rating.UpdatedAt = time.Now()
	sql, args, err := squirrel.Update("ratings").
		Set("stars", rating.Stars).
		Set("comment", rating.Comment).
		Set("updated_at", rating.UpdatedAt).
		Where(squirrel.Eq{"note_id": rating.NoteID, "user_id": rating.UserID}).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrRatingNotFound
		}
		logger.Error().Err(err).Int64("noteID", rating.NoteID).Msg("Error updating rating")
		return err
	}
	return nil
}
