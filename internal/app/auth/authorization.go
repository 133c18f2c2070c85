package auth

import (
	"context"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// AuthorizationService handles ownership checks
type AuthorizationService struct {
	noteRepo repositories.INoteRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(noteRepo repositories.INoteRepository) *AuthorizationService {
	return &AuthorizationService{
		noteRepo: noteRepo,
	}
}

// ValidateNoteOwnership returns the note when the user owns it, ErrNotNoteOwner otherwise
func (s *AuthorizationService) ValidateNoteOwnership(ctx context.Context, noteID, userID int64) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if note.UserID != userID {
		logger.Warn().
			Int64("noteID", noteID).
			Int64("ownerID", note.UserID).
			Int64("userID", userID).
			Msg("Note modification denied")
		return nil, apperrors.ErrNotNoteOwner
	}

	return note, nil
}
