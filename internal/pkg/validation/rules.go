package validation

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Validation rule patterns and limits
var (
	// EmailPattern accepts anything shaped like local@domain.tld
	EmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

	PasswordMinLength = 6
	UsernameMinLength = 2
	UsernameMaxLength = 50

	TitleMinLength   = 3
	TitleMaxLength   = 100
	ContentMinLength = 10
	ContentMaxLength = 10000

	NoteYearMin = 2000
	NoteYearMax = 2100

	StudyYearMin = 1950
	StudyYearMax = 2100

	// MaxUploadSize is the largest accepted note file, 10 MiB
	MaxUploadSize int64 = 10 * 1024 * 1024

	// AllowedNoteExtensions are the accepted note file extensions, lowercase without dot
	AllowedNoteExtensions = []string{"pdf", "jpg", "jpeg", "png", "gif", "webp"}

	// AllowedAvatarExtensions are the accepted avatar file extensions
	AllowedAvatarExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
}

// StringValidation checks a string against length and pattern rules
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Trim     bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Trimmed measures the value after trimming surrounding whitespace
func (v *StringValidation) Trimmed() *StringValidation {
	v.Trim = true
	return v
}

// Validate performs validation. Lengths are counted in runes.
func (v *StringValidation) Validate() bool {
	value := v.Value
	if v.Trim {
		value = strings.TrimSpace(value)
	}

	if v.Required && value == "" {
		return false
	}
	if !v.Required && value == "" {
		return true
	}

	n := utf8.RuneCountInString(value)
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}

	return true
}

// NumericValidation checks an integer range
type NumericValidation struct {
	Value int
	Min   int
	Max   int
}

// NewNumericValidation creates a new numeric validation
func NewNumericValidation(value int) *NumericValidation {
	return &NumericValidation{Value: value}
}

// WithMin sets minimum value
func (v *NumericValidation) WithMin(min int) *NumericValidation {
	v.Min = min
	return v
}

// WithMax sets maximum value
func (v *NumericValidation) WithMax(max int) *NumericValidation {
	v.Max = max
	return v
}

// Validate performs validation
func (v *NumericValidation) Validate() bool {
	if v.Min != 0 && v.Value < v.Min {
		return false
	}
	if v.Max != 0 && v.Value > v.Max {
		return false
	}
	return true
}

// IsValidEmail reports whether email looks like an address
func IsValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(email)
}

// FileExtension returns the lowercase extension of filename without the dot
func FileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsAllowedExtension reports whether filename has one of the allowed extensions
func IsAllowedExtension(filename string, allowed []string) bool {
	ext := FileExtension(filename)
	return ext != "" && slices.Contains(allowed, ext)
}
