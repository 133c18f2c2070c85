package seed

import (
	"context"
	"errors"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/rs/zerolog"
)

// Directory is the part of a subject or professor directory the seeder needs
type Directory interface {
	Create(ctx context.Context, name string) (*models.NamedEntity, bool, error)
}

// DefaultSubjects are offered in the subject dropdown on a fresh install
var DefaultSubjects = []string{
	"Algebra liniowa",
	"Analiza matematyczna",
	"Bazy danych",
	"Fizyka",
	"Programowanie obiektowe",
	"Systemy operacyjne",
}

// DefaultProfessors are offered in the professor dropdown on a fresh install
var DefaultProfessors = []string{
	"dr Anna Kowalska",
	"dr hab. Piotr Nowak",
	"prof. Maria Wiśniewska",
}

// CreateDefaultData adds the default subjects and professors that do not exist yet.
// Existing names (ignoring case) are left untouched; failures are collected and returned together.
func CreateDefaultData(ctx context.Context, subjects, professors Directory, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (Subjects/Professors)...")

	var finalErr error
	created := 0
	for _, set := range []struct {
		kind  string
		dir   Directory
		names []string
	}{
		{"subject", subjects, DefaultSubjects},
		{"professor", professors, DefaultProfessors},
	} {
		for _, name := range set.names {
			_, isNew, err := set.dir.Create(ctx, name)
			if err != nil {
				lgr.Error().Err(err).Str("kind", set.kind).Str("name", name).Msg("Error creating default entry")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			if isNew {
				created++
			}
		}
	}

	lgr.Info().Int("created", created).Msg("Default data check complete")
	return finalErr
}
