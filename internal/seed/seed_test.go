package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDirectory struct {
	names []string
	fail  string
}

func (d *memoryDirectory) Create(_ context.Context, name string) (*models.NamedEntity, bool, error) {
	if name == d.fail {
		return nil, false, errors.New("insert failed")
	}
	for i, existing := range d.names {
		if strings.EqualFold(existing, name) {
			return &models.NamedEntity{ID: int64(i + 1), Name: existing}, false, nil
		}
	}
	d.names = append(d.names, name)
	return &models.NamedEntity{ID: int64(len(d.names)), Name: name}, true, nil
}

func TestCreateDefaultData_Idempotent(t *testing.T) {
	subjects := &memoryDirectory{names: []string{"bazy danych"}}
	professors := &memoryDirectory{}

	require.NoError(t, CreateDefaultData(context.Background(), subjects, professors, zerolog.Nop()))
	assert.Len(t, subjects.names, len(DefaultSubjects))
	assert.Len(t, professors.names, len(DefaultProfessors))

	require.NoError(t, CreateDefaultData(context.Background(), subjects, professors, zerolog.Nop()))
	assert.Len(t, subjects.names, len(DefaultSubjects))
	assert.Len(t, professors.names, len(DefaultProfessors))
}

func TestCreateDefaultData_CollectsErrors(t *testing.T) {
	subjects := &memoryDirectory{fail: DefaultSubjects[0]}
	professors := &memoryDirectory{fail: DefaultProfessors[1]}

	err := CreateDefaultData(context.Background(), subjects, professors, zerolog.Nop())
	require.Error(t, err)
	assert.Len(t, subjects.names, len(DefaultSubjects)-1)
	assert.Len(t, professors.names, len(DefaultProfessors)-1)
}
