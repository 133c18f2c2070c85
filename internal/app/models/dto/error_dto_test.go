package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError_ValidatorErrors(t *testing.T) {
	type payload struct {
		Login     string `validate:"required"`
		SubjectID int64  `validate:"min=1"`
	}
	err := validator.New().Struct(payload{})
	require.Error(t, err)

	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)

	fields, ok := detail.Details.([]apperrors.FieldError)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, apperrors.FieldError{Field: "login", Message: "login is required"}, fields[0])
	assert.Equal(t, apperrors.FieldError{Field: "subjectId", Message: "subjectId must be at least 1"}, fields[1])
}

func TestHandleValidationError_JSON(t *testing.T) {
	var v struct {
		Stars int `json:"stars"`
	}
	err := json.Unmarshal([]byte(`{"stars":"five"}`), &v)
	detail := HandleValidationError(err)
	assert.Equal(t, "Invalid request format", detail.Message)
	assert.Equal(t, "stars", detail.Field)

	err = json.Unmarshal([]byte(`{`), &v)
	detail = HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)

	detail = HandleValidationError(errors.New("EOF"))
	assert.Equal(t, "EOF", detail.Details)
}

func TestNewFieldErrorsDetail(t *testing.T) {
	detail := NewFieldErrorsDetail([]apperrors.FieldError{{Field: "title", Message: "too short"}})
	assert.Equal(t, "title", detail.Field)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
}
