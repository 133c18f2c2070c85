package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/dberrors"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// Tables backed by NamedEntityRepository
const (
	SubjectsTable   = "subjects"
	ProfessorsTable = "professors"
)

// INamedEntityRepository defines operations on a table of unique names
type INamedEntityRepository interface {
	List(ctx context.Context) ([]*models.NamedEntity, error)
	GetByID(ctx context.Context, id int64) (*models.NamedEntity, error)
	FindByName(ctx context.Context, name string) (*models.NamedEntity, error)
	Create(ctx context.Context, name string) (*models.NamedEntity, error)
}

// NamedEntityRepository handles the subjects or professors table
type NamedEntityRepository struct {
	db       *pgxpool.Pool
	table    string
	notFound error
}

// NewSubjectRepository creates a repository over the subjects table
func NewSubjectRepository(db *pgxpool.Pool) *NamedEntityRepository {
	return &NamedEntityRepository{db: db, table: SubjectsTable, notFound: apperrors.ErrSubjectNotFound}
}

// NewProfessorRepository creates a repository over the professors table
func NewProfessorRepository(db *pgxpool.Pool) *NamedEntityRepository {
	return &NamedEntityRepository{db: db, table: ProfessorsTable, notFound: apperrors.ErrProfessorNotFound}
}

func (r *NamedEntityRepository) selectQuery() squirrel.SelectBuilder {
	return squirrel.Select("id", "name", "created_at").From(r.table).PlaceholderFormat(squirrel.Dollar)
}

func (r *NamedEntityRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.NamedEntity, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var e models.NamedEntity
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.notFound
		}
		logger.Error().Err(err).Str("table", r.table).Msg("Error scanning named entity")
		return nil, err
	}
	return &e, nil
}

// List returns every row ordered by name
func (r *NamedEntityRepository) List(ctx context.Context) ([]*models.NamedEntity, error) {
	sql, args, err := r.selectQuery().OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", r.table).Msg("Error listing named entities")
		return nil, err
	}
	defer rows.Close()

	entities := make([]*models.NamedEntity, 0)
	for rows.Next() {
		var e models.NamedEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

// GetByID returns one row
func (r *NamedEntityRepository) GetByID(ctx context.Context, id int64) (*models.NamedEntity, error) {
	return r.getOne(ctx, r.selectQuery().Where(squirrel.Eq{"id": id}))
}

// FindByName returns the row whose name matches ignoring case
func (r *NamedEntityRepository) FindByName(ctx context.Context, name string) (*models.NamedEntity, error) {
	return r.getOne(ctx, r.findByNameQuery(name))
}

func (r *NamedEntityRepository) findByNameQuery(name string) squirrel.SelectBuilder {
	return r.selectQuery().Where(squirrel.Expr("LOWER(name) = LOWER(?)", name))
}

// Create inserts a name. A case-insensitive duplicate yields ErrResourceAlreadyExists.
func (r *NamedEntityRepository) Create(ctx context.Context, name string) (*models.NamedEntity, error) {
	sql, args, err := squirrel.Insert(r.table).
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var e models.NamedEntity
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrResourceAlreadyExists
		}
		logger.Error().Err(err).Str("table", r.table).Msg("Error inserting named entity")
		return nil, err
	}
	return &e, nil
}
