package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/filestorage"
	"github.com/notatki/notehub/internal/pkg/logger"
)

// HandleAPIError maps service errors to status codes and the error envelope
func HandleAPIError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewFieldErrorsDetail(validationErr.Fields),
		})
		return
	}

	switch {
	// Accounts
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrUserNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeUserNotFound, "User not found")
	case errors.Is(err, apperrors.ErrUsernameAlreadyExists):
		respondError(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Username is already taken")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		respondError(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email is already registered")
	case errors.Is(err, apperrors.ErrInvalidAvatarFileType):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Avatar must be an image (jpg, jpeg, png, gif, webp)")
	case errors.Is(err, apperrors.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required")

	// Ownership
	case errors.Is(err, apperrors.ErrNotNoteOwner):
		respondError(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Only the owner can modify this note")

	// Missing resources
	case errors.Is(err, apperrors.ErrNoteNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Note not found")
	case errors.Is(err, apperrors.ErrNoteHasNoFile):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "This note has no file to download")
	case errors.Is(err, apperrors.ErrRatingNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Rating not found")
	case errors.Is(err, apperrors.ErrSubjectNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Subject not found")
	case errors.Is(err, apperrors.ErrProfessorNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Professor not found")
	case errors.Is(err, apperrors.ErrProfileNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Profile not found")
	case apperrors.Is(err, apperrors.ErrObjectNotFound, filestorage.ErrObjectNotFound):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "File not found")

	// Conflicts and bad input
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		respondError(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists")
	case errors.Is(err, apperrors.ErrConflict):
		respondError(c, http.StatusConflict, dto.ErrorCodeConflict, "Conflict")
	case errors.Is(err, apperrors.ErrValidationFailed):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, filestorage.ErrInvalidKey):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Invalid file name")

	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled API error")
		respondError(c, http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func respondError(c *gin.Context, status int, code dto.ErrorCode, message string) {
	c.JSON(status, dto.APIResponse{Error: dto.NewErrorDetail(code, message)})
}
