package services

import (
	"context"
	"errors"
	"strings"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// Rating save actions reported to clients and metrics
const (
	RatingActionCreated = "created"
	RatingActionUpdated = "updated"
)

// Allowed star range
const (
	MinStars = 1
	MaxStars = 5
)

// RatingService defines the interface for rating operations
type RatingService interface {
	ListRatings(ctx context.Context, noteID int64) ([]*models.Rating, error)
	GetMyRating(ctx context.Context, userID, noteID int64) (*models.Rating, error)
	SaveRating(ctx context.Context, userID, noteID int64, req *dto.SaveRatingRequest) (*dto.SaveRatingResponse, error)
}

type ratingServiceImpl struct {
	ratingRepo repositories.IRatingRepository
	noteRepo   repositories.INoteRepository
	catalog    *CatalogCache
	publisher  EventPublisher
	recorder   ActivityRecorder
	logger     zerolog.Logger
}

// NewRatingService creates a new RatingService. publisher and recorder may be nil.
func NewRatingService(
	ratingRepo repositories.IRatingRepository,
	noteRepo repositories.INoteRepository,
	catalogCache *CatalogCache,
	publisher EventPublisher,
	recorder ActivityRecorder,
	logger zerolog.Logger,
) RatingService {
	return &ratingServiceImpl{
		ratingRepo: ratingRepo,
		noteRepo:   noteRepo,
		catalog:    catalogCache,
		publisher:  publisherOrNop(publisher),
		recorder:   recorderOrNop(recorder),
		logger:     logger,
	}
}

// ListRatings returns a note's ratings, newest first
func (s *ratingServiceImpl) ListRatings(ctx context.Context, noteID int64) ([]*models.Rating, error) {
	if _, err := s.noteRepo.GetByID(ctx, noteID); err != nil {
		return nil, err
	}
	return s.ratingRepo.ListByNote(ctx, noteID)
}

// GetMyRating returns the caller's rating of a note
func (s *ratingServiceImpl) GetMyRating(ctx context.Context, userID, noteID int64) (*models.Rating, error) {
	return s.ratingRepo.GetByNoteAndUser(ctx, noteID, userID)
}

// SaveRating creates the caller's rating or replaces the existing one
func (s *ratingServiceImpl) SaveRating(ctx context.Context, userID, noteID int64, req *dto.SaveRatingRequest) (*dto.SaveRatingResponse, error) {
	if req.Stars < MinStars || req.Stars > MaxStars {
		return nil, apperrors.NewValidationError().Because("stars", apperrors.ErrInvalidStars)
	}

	if _, err := s.noteRepo.GetByID(ctx, noteID); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		NoteID: noteID,
		UserID: userID,
		Stars:  req.Stars,
	}
	if req.Comment != nil {
		if comment := strings.TrimSpace(*req.Comment); comment != "" {
			rating.Comment = &comment
		}
	}

	created, err := s.upsert(ctx, rating)
	if err != nil {
		return nil, err
	}

	action := RatingActionUpdated
	if created {
		action = RatingActionCreated
	}

	s.catalog.Invalidate()
	s.recorder.RecordRatingSaved(action)
	s.publisher.Publish(websocket.Event{Type: websocket.EventRatingSaved, NoteID: noteID, UserID: userID})
	s.logger.Info().Int64("noteID", noteID).Int64("userID", userID).Int("stars", rating.Stars).Str("action", action).Msg("Rating saved")

	return &dto.SaveRatingResponse{Rating: rating, Created: created, Action: action}, nil
}

// upsert updates an existing rating or inserts a new one, falling back to update on an insert race
func (s *ratingServiceImpl) upsert(ctx context.Context, rating *models.Rating) (bool, error) {
	_, err := s.ratingRepo.GetByNoteAndUser(ctx, rating.NoteID, rating.UserID)
	switch {
	case err == nil:
		return false, s.ratingRepo.Update(ctx, rating)
	case !errors.Is(err, apperrors.ErrRatingNotFound):
		return false, err
	}

	if _, err := s.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			s.logger.Debug().Int64("noteID", rating.NoteID).Int64("userID", rating.UserID).Msg("Concurrent rating insert, updating instead")
			return false, s.ratingRepo.Update(ctx, rating)
		}
		return false, err
	}
	return true, nil
}
