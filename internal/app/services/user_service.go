package services

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/auth"
	"github.com/notatki/notehub/internal/pkg/filestorage"
	"github.com/notatki/notehub/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// UserService handles the signed-in user's profile, password and avatar
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (string, error)
}

type userServiceImpl struct {
	userRepo      repositories.IUserRepository
	storage       filestorage.ObjectStorage
	avatarsBucket string
	catalog       *CatalogCache
	logger        zerolog.Logger
}

// NewUserService creates a new UserService. The catalog cache is invalidated when
// fields shown on notes (username, university, avatar) change.
func NewUserService(
	userRepo repositories.IUserRepository,
	storage filestorage.ObjectStorage,
	avatarsBucket string,
	catalog *CatalogCache,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:      userRepo,
		storage:       storage,
		avatarsBucket: avatarsBucket,
		catalog:       catalog,
		logger:        logger,
	}
}

// GetProfile returns the user's profile
func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	return s.userRepo.GetProfile(ctx, userID)
}

// optionalText trims s and maps empty to nil
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// UpdateProfile validates and stores the editable profile fields
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.UserProfile, error) {
	username := strings.TrimSpace(req.Username)

	ve := apperrors.NewValidationError()
	validateUsername(ve, username)
	if req.StudyStartYear != nil &&
		!validation.NewNumericValidation(*req.StudyStartYear).WithMin(validation.StudyYearMin).WithMax(validation.StudyYearMax).Validate() {
		ve.Add("studyStartYear", fmt.Sprintf("Study start year must be between %d and %d", validation.StudyYearMin, validation.StudyYearMax))
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.userRepo.UsernameExists(ctx, username, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	profile.Username = username
	profile.University = optionalText(req.University)
	profile.Major = optionalText(req.Major)
	profile.StudyStartYear = req.StudyStartYear

	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.catalog.Invalidate()

	s.logger.Info().Int64("userID", userID).Msg("Profile updated")
	return profile, nil
}

// ChangePassword replaces the user's password
func (s *userServiceImpl) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	ve := apperrors.NewValidationError()
	validateNewPassword(ve, "newPassword", req.NewPassword, req.ConfirmPassword)
	if err := ve.OrNil(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

// UploadAvatar stores the image at <userID>/avatar.<ext>, overwriting the previous one,
// and saves its public URL on the profile
func (s *userServiceImpl) UploadAvatar(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", apperrors.NewValidationError().Add("avatar", "Avatar file is required")
	}
	if !validation.IsAllowedExtension(fileHeader.Filename, validation.AllowedAvatarExtensions) {
		return "", apperrors.ErrInvalidAvatarFileType
	}
	if fileHeader.Size > validation.MaxUploadSize {
		return "", apperrors.NewValidationError().Add("avatar", "Avatar must be at most 10 MB")
	}

	ext := validation.FileExtension(fileHeader.Filename)
	key := fmt.Sprintf("%d/avatar.%s", userID, ext)

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded avatar")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	if err := s.storage.Put(ctx, s.avatarsBucket, key, file, fileHeader.Size, contentTypeFor(fileHeader, ext)); err != nil {
		return "", err
	}

	// An avatar with another extension would otherwise linger
	for _, other := range validation.AllowedAvatarExtensions {
		if other == ext {
			continue
		}
		if err := s.storage.Delete(ctx, s.avatarsBucket, fmt.Sprintf("%d/avatar.%s", userID, other)); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Str("ext", other).Msg("Failed to remove previous avatar")
		}
	}

	url := s.storage.PublicURL(s.avatarsBucket, key)
	if err := s.userRepo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	s.catalog.Invalidate()

	s.logger.Info().Int64("userID", userID).Str("key", key).Msg("Avatar uploaded")
	return url, nil
}

// contentTypeFor prefers the declared part type and falls back to the extension
func contentTypeFor(fileHeader *multipart.FileHeader, ext string) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
