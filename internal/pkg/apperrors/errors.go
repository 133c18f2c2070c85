package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// User errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrInvalidAvatarFileType = errors.New("avatar must be an image")
)

// Note errors
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrNoteHasNoFile     = errors.New("note has no file to download")
	ErrNotNoteOwner      = errors.New("only the owner can modify this note")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrProfessorNotFound = errors.New("professor not found")
)

// Rating errors
var (
	ErrRatingNotFound = errors.New("rating not found")
	ErrInvalidStars   = errors.New("stars must be between 1 and 5")
)

// Storage errors
var (
	ErrObjectNotFound = errors.New("stored object not found")
)

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// FieldError is a single inline validation message
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects inline field messages that block a submission
type ValidationError struct {
	Fields []FieldError
	// Cause is an optional domain error the failure stems from
	Cause error
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// Add appends a field message
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// Because records the domain error behind the failure and adds its text as the field message
func (e *ValidationError) Because(field string, cause error) *ValidationError {
	e.Cause = cause
	return e.Add(field, cause.Error())
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns the error only when it carries field messages
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Error implements error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + e.Fields[0].Field + ": " + e.Fields[0].Message
}

// Unwrap lets errors.Is match ErrValidationFailed and the cause, if any
func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidationFailed, e.Cause}
	}
	return []error{ErrValidationFailed}
}
