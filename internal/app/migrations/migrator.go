package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migration is a single versioned SQL file
type Migration struct {
	Version string
	Path    string
}

// Migrator manages database migrations
type Migrator struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger.With().Str("component", "migrator").Logger(),
	}
}

func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Apply runs a single migration unless its version is already recorded
func (m *Migrator) Apply(ctx context.Context, migration Migration) (bool, error) {
	applied, err := m.isMigrationApplied(ctx, migration.Version)
	if err != nil {
		return false, err
	}
	if applied {
		m.logger.Debug().Str("version", migration.Version).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := os.ReadFile(migration.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	m.logger.Info().Str("version", migration.Version).Str("file", filepath.Base(migration.Path)).Msg("Migration applied")
	return true, nil
}

// MigrateFromDirectory applies every pending SQL file in dirPath in version order
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) (int, error) {
	migrations, err := CollectMigrations(dirPath)
	if err != nil {
		return 0, err
	}

	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range migrations {
		applied, err := m.Apply(ctx, migration)
		if err != nil {
			return count, err
		}
		if applied {
			count++
		}
	}

	m.logger.Info().Int("applied", count).Int("total", len(migrations)).Msg("Migrations complete")
	return count, nil
}

// CollectMigrations lists the .sql files in dirPath sorted by name.
// The version is the filename prefix before the first underscore ("001_init.sql" => "001").
func CollectMigrations(dirPath string) ([]Migration, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		version := strings.TrimSuffix(strings.SplitN(name, "_", 2)[0], ".sql")
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, prev, name)
		}
		seen[version] = name
		migrations = append(migrations, Migration{Version: version, Path: filepath.Join(dirPath, name)})
	}
	return migrations, nil
}
