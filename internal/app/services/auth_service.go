package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/auth"
	"github.com/notatki/notehub/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// AuthService handles registration and login
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authServiceImpl struct {
	userRepo   repositories.IUserRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.IUserRepository, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// validateUsername appends a message when the trimmed username is out of bounds
func validateUsername(ve *apperrors.ValidationError, username string) {
	switch n := utf8.RuneCountInString(username); {
	case n < validation.UsernameMinLength:
		ve.Add("username", "Username must be at least 2 characters")
	case n > validation.UsernameMaxLength:
		ve.Add("username", "Username must be at most 50 characters")
	}
}

// validateNewPassword appends messages for a password and its confirmation
func validateNewPassword(ve *apperrors.ValidationError, field, password, confirm string) {
	if utf8.RuneCountInString(password) < validation.PasswordMinLength {
		ve.Add(field, "Password must be at least 6 characters")
	}
	if password != confirm {
		ve.Add("confirmPassword", apperrors.ErrPasswordMismatch.Error())
	}
}

// Register creates the account and an empty profile, then signs a token
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	ve := apperrors.NewValidationError()
	validateUsername(ve, username)
	if !validation.IsValidEmail(email) {
		ve.Add("email", "Enter a valid email address")
	}
	validateNewPassword(ve, "password", req.Password, req.ConfirmPassword)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.UsernameExists(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	taken, err = s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Password: hash}
	if _, err := s.userRepo.CreateUserWithProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("username", username).Msg("User registered")
	return s.issueToken(user)
}

// Login accepts a username or an email
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		ve := apperrors.NewValidationError()
		if login == "" {
			ve.Add("login", "Username or email is required")
		}
		if req.Password == "" {
			ve.Add("password", "Password is required")
		}
		return nil, ve
	}

	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("login", login).Msg("Login for unknown user")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Info().Int64("userID", user.ID).Msg("Login with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authServiceImpl) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to generate token")
		return nil, err
	}

	return &dto.AuthResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}
