// Package catalog filters, sorts and aggregates the in-memory note catalog.
package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the ordering applied after filtering
type SortMode string

const (
	SortNewest     SortMode = "newest"
	SortOldest     SortMode = "oldest"
	SortTitleAsc   SortMode = "title-asc"
	SortTitleDesc  SortMode = "title-desc"
	SortRatingDesc SortMode = "rating-desc"
	SortRatingAsc  SortMode = "rating-asc"
)

// DefaultLanguage is the collation language used for title ordering
var DefaultLanguage = language.Polish

// SortModes lists every accepted sort mode
var SortModes = []SortMode{SortNewest, SortOldest, SortTitleAsc, SortTitleDesc, SortRatingDesc, SortRatingAsc}

// ParseSortMode validates a sort mode. Empty input means SortNewest.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortNewest, nil
	}
	mode := SortMode(s)
	if slices.Contains(SortModes, mode) {
		return mode, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// FilterOptions holds the catalog filter state
type FilterOptions struct {
	SearchTerm         string   `json:"searchTerm" form:"search"`
	SelectedSubject    string   `json:"selectedSubject" form:"subject"`
	SelectedProfessor  string   `json:"selectedProfessor" form:"professor"`
	SelectedUniversity string   `json:"selectedUniversity" form:"university"`
	SortBy             SortMode `json:"sortBy" form:"sortBy"`
}

// DefaultFilterOptions returns the state the catalog starts in
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{SortBy: SortNewest}
}

// ClearFilters resets every criterion and the sort mode
func ClearFilters(FilterOptions) FilterOptions {
	return DefaultFilterOptions()
}

// HasActiveFilters reports whether any filter criterion is set. The sort mode is not a filter.
func (o FilterOptions) HasActiveFilters() bool {
	return o.SearchTerm != "" || o.SelectedSubject != "" || o.SelectedProfessor != "" || o.SelectedUniversity != ""
}

// Entry is a note as seen by the catalog
type Entry struct {
	ID            int64
	Title         string
	SubjectName   string
	ProfessorName string
	University    *string
	CreatedAt     *time.Time
	AverageRating float64
}

// Matches reports whether the entry passes every non-empty criterion
func (o FilterOptions) Matches(e Entry) bool {
	if o.SearchTerm != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(o.SearchTerm)) {
		return false
	}
	if o.SelectedSubject != "" && e.SubjectName != o.SelectedSubject {
		return false
	}
	if o.SelectedProfessor != "" && e.ProfessorName != o.SelectedProfessor {
		return false
	}
	if o.SelectedUniversity != "" && (e.University == nil || *e.University != o.SelectedUniversity) {
		return false
	}
	return true
}

// Apply filters and sorts entries using the default collation language.
// The input slice is left untouched.
func Apply(entries []Entry, opts FilterOptions) []Entry {
	return ApplyWithLanguage(entries, opts, DefaultLanguage)
}

// ApplyWithLanguage is Apply with an explicit collation language for title ordering
func ApplyWithLanguage(entries []Entry, opts FilterOptions, lang language.Tag) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if opts.Matches(e) {
			filtered = append(filtered, e)
		}
	}

	cmp := comparator(opts.SortBy, lang)
	if cmp != nil {
		slices.SortStableFunc(filtered, cmp)
	}
	return filtered
}

func comparator(mode SortMode, lang language.Tag) func(a, b Entry) int {
	switch mode {
	case SortNewest:
		return func(a, b Entry) int { return compareTime(b.CreatedAt, a.CreatedAt) }
	case SortOldest:
		return func(a, b Entry) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	case SortTitleAsc, SortTitleDesc:
		// collate.Collator keeps internal buffers, one per sort call
		coll := collate.New(lang)
		if mode == SortTitleAsc {
			return func(a, b Entry) int {
				return coll.CompareString(strings.ToLower(a.Title), strings.ToLower(b.Title))
			}
		}
		return func(a, b Entry) int {
			return coll.CompareString(strings.ToLower(b.Title), strings.ToLower(a.Title))
		}
	case SortRatingDesc:
		return func(a, b Entry) int { return compareFloat(b.AverageRating, a.AverageRating) }
	case SortRatingAsc:
		return func(a, b Entry) int { return compareFloat(a.AverageRating, b.AverageRating) }
	default:
		return nil
	}
}

func compareTime(a, b *time.Time) int {
	var ta, tb time.Time
	if a != nil {
		ta = *a
	}
	if b != nil {
		tb = *b
	}
	return ta.Compare(tb)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AverageRating returns the mean star count rounded to one decimal, and the number of ratings.
// A note without ratings averages 0.
func AverageRating(stars []int) (float64, int) {
	if len(stars) == 0 {
		return 0, 0
	}
	sum := 0
	for _, s := range stars {
		sum += s
	}
	avg := float64(sum) / float64(len(stars))
	return math.Round(avg*10) / 10, len(stars)
}
