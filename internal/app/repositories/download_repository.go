package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// IDownloadRepository records note downloads
type IDownloadRepository interface {
	Create(ctx context.Context, download *models.Download) (int64, error)
	CountByNote(ctx context.Context, noteID int64) (int64, error)
}

// DownloadRepository handles the downloads table
type DownloadRepository struct {
	db *pgxpool.Pool
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *pgxpool.Pool) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a download row
func (r *DownloadRepository) Create(ctx context.Context, download *models.Download) (int64, error) {
	sql, args, err := squirrel.Insert("downloads").
		Columns("note_id", "user_id").
		Values(download.NoteID, download.UserID).
		Suffix("RETURNING id, downloaded_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&download.ID, &download.DownloadedAt); err != nil {
		logger.Error().Err(err).Int64("noteID", download.NoteID).Msg("Error recording download")
		return 0, err
	}
	return download.ID, nil
}

// CountByNote returns how many times a note was downloaded
func (r *DownloadRepository) CountByNote(ctx context.Context, noteID int64) (int64, error) {
	sql, args, err := squirrel.Select("COUNT(*)").From("downloads").
		Where(squirrel.Eq{"note_id": noteID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("noteID", noteID).Msg("Error counting downloads")
		return 0, err
	}
	return count, nil
}
