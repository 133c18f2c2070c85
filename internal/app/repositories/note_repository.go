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
	"github.com/notatki/notehub/internal/pkg/logger"
)

// INoteRepository defines the interface for note database operations
type INoteRepository interface {
	Create(ctx context.Context, note *models.Note) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Note, error)
	ListAll(ctx context.Context) ([]*models.Note, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id int64) error
}

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db *pgxpool.Pool
}

// NewNoteRepository creates a new instance of NoteRepository
func NewNoteRepository(db *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{db: db}
}

// selectNoteQuery joins subject, professor and uploader profile names
func (r *NoteRepository) selectNoteQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"n.id", "n.title", "n.subject_id", "n.professor_id", "n.year", "n.user_id",
		"n.file_path", "n.file_type", "n.content", "n.created_at", "n.updated_at",
		"s.name AS subject_name", "p.name AS professor_name",
		"COALESCE(up.username, '') AS uploader_username", "up.university AS uploader_university",
		"up.avatar_url AS uploader_avatar_url",
	).From("notes n").
		Join("subjects s ON n.subject_id = s.id").
		Join("professors p ON n.professor_id = p.id").
		LeftJoin("user_profiles up ON n.user_id = up.id").
		PlaceholderFormat(squirrel.Dollar)
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID, &n.Title, &n.SubjectID, &n.ProfessorID, &n.Year, &n.UserID,
		&n.FilePath, &n.FileKind, &n.Content, &n.CreatedAt, &n.UpdatedAt,
		&n.SubjectName, &n.ProfessorName,
		&n.UploaderUsername, &n.UploaderUniversity, &n.UploaderAvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Note, error) {
	sql, args, err := query.OrderBy("n.created_at DESC", "n.id DESC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list notes SQL")
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list notes query")
		return nil, err
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning note row")
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating note rows")
		return nil, err
	}
	return notes, nil
}

// Create inserts a new note
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) (int64, error) {
	sql, args, err := squirrel.Insert("notes").
		Columns("title", "subject_id", "professor_id", "year", "user_id", "file_path", "file_type", "content").
		Values(note.Title, note.SubjectID, note.ProfessorID, note.Year, note.UserID, note.FilePath, note.FileKind, note.Content).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create note SQL")
		return 0, err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create note query")
		return 0, err
	}
	return note.ID, nil
}

// GetByID retrieves a single note with joined names
func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*models.Note, error) {
	sql, args, err := r.selectNoteQuery().Where(squirrel.Eq{"n.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get note by ID SQL")
		return nil, err
	}

	note, err := scanNote(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Int64("noteID", id).Msg("Error scanning note")
		return nil, err
	}
	return note, nil
}

// ListAll retrieves every note, newest first
func (r *NoteRepository) ListAll(ctx context.Context) ([]*models.Note, error) {
	return r.list(ctx, r.selectNoteQuery())
}

// ListByUser retrieves the notes a user uploaded, newest first
func (r *NoteRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Note, error) {
	return r.list(ctx, r.selectNoteQuery().Where(squirrel.Eq{"n.user_id": userID}))
}

// Update stores editable note fields
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	note.UpdatedAt = time.Now()
	sql, args, err := squirrel.Update("notes").
		Set("title", note.Title).
		Set("subject_id", note.SubjectID).
		Set("professor_id", note.ProfessorID).
		Set("year", note.Year).
		Set("content", note.Content).
		Set("updated_at", note.UpdatedAt).
		Where(squirrel.Eq{"id": note.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update note SQL")
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", note.ID).Msg("Error executing update note query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNoteNotFound
	}
	return nil
}

// Delete removes a note; ratings and downloads cascade
func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := squirrel.Delete("notes").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("noteID", id).Msg("Error executing delete note query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNoteNotFound
	}
	return nil
}
