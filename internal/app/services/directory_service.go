package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/catalog"
	"github.com/rs/zerolog"
)

const maxEntityNameLength = 255

// DirectoryService manages subjects or professors picked from searchable dropdowns
type DirectoryService interface {
	List(ctx context.Context) ([]*models.NamedEntity, error)
	Suggest(ctx context.Context, term string, limit int) (catalog.Suggestions, error)
	// Create returns the existing entry with the same name (ignoring case) instead of
	// adding a duplicate; created reports whether a new row was inserted
	Create(ctx context.Context, name string) (entity *models.NamedEntity, created bool, err error)
}

type directoryServiceImpl struct {
	repo   repositories.INamedEntityRepository
	logger zerolog.Logger
}

// NewDirectoryService creates a DirectoryService over one repository
func NewDirectoryService(repo repositories.INamedEntityRepository, logger zerolog.Logger) DirectoryService {
	return &directoryServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// List returns all entries ordered by name
func (s *directoryServiceImpl) List(ctx context.Context) ([]*models.NamedEntity, error) {
	return s.repo.List(ctx)
}

// Suggest applies dropdown matching to every entry
func (s *directoryServiceImpl) Suggest(ctx context.Context, term string, limit int) (catalog.Suggestions, error) {
	entities, err := s.repo.List(ctx)
	if err != nil {
		return catalog.Suggestions{}, err
	}

	options := make([]catalog.Option, 0, len(entities))
	for _, e := range entities {
		options = append(options, catalog.Option{ID: e.ID, Name: e.Name})
	}
	return catalog.Suggest(options, term, limit), nil
}

// Create adds a trimmed name or returns the matching existing entry
func (s *directoryServiceImpl) Create(ctx context.Context, name string) (*models.NamedEntity, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperrors.NewValidationError().Add("name", "Name is required")
	}
	if utf8.RuneCountInString(name) > maxEntityNameLength {
		return nil, false, apperrors.NewValidationError().Add("name", "Name must be at most 255 characters")
	}

	existing, err := s.findByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	entity, err := s.repo.Create(ctx, name)
	if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
		// Lost a race with a concurrent insert of the same name
		existing, err = s.findByName(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, apperrors.ErrConflict
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.Info().Int64("id", entity.ID).Str("name", entity.Name).Msg("Directory entry created")
	return entity, true, nil
}

func (s *directoryServiceImpl) findByName(ctx context.Context, name string) (*models.NamedEntity, error) {
	entity, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return entity, nil
	}
	if errors.Is(err, apperrors.ErrSubjectNotFound) || errors.Is(err, apperrors.ErrProfessorNotFound) {
		return nil, nil
	}
	return nil, err
}
