// internal/migrations/migrations.go
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var files embed.FS

var (
	ErrNothingToRevert = errors.New("no applied migrations to revert")
	ErrMissingDown     = errors.New("migration has no down script")
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Load reads the embedded migrations ordered by version.
func Load() ([]Migration, error) {
	return loadFS(files, "sql")
}

func loadFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, direction, err := parseFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration %04d has conflicting names %q and %q", version, m.Name, name)
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up script", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseFilename splits "0001_add_travel_entity.up.sql".
func parseFilename(filename string) (int, string, string, error) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return 0, "", "", fmt.Errorf("unexpected migration file %q", filename)
	}
	var direction string
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", fmt.Errorf("migration file %q lacks .up or .down", filename)
	}
	base = strings.TrimSuffix(base, "."+direction)

	rawVersion, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("migration file %q lacks a name", filename)
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil || version < 1 {
		return 0, "", "", fmt.Errorf("migration file %q has invalid version", filename)
	}
	return version, name, direction, nil
}

// Migrator applies migrations and records them in schema_migrations.
type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
}

// NewMigrator creates a migrator over the embedded migrations.
func NewMigrator(db *sqlx.DB) (*Migrator, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: migrations}, nil
}

func (m *Migrator) init(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Applied returns the applied versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	versions := []int{}
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	return versions, nil
}

// Up applies every pending migration, each in its own transaction, and returns the
// ones it applied. It stops at the first failure.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var ran []Migration
	for _, mig := range m.migrations {
		if done[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return ran, err
		}
		ran = append(ran, mig)
	}
	return ran, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %04d: %w", mig.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
		return fmt.Errorf("apply migration %04d_%s: %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
		return fmt.Errorf("record migration %04d: %w", mig.Version, err)
	}
	return tx.Commit()
}

// Down reverts the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) (Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return Migration{}, err
	}
	if len(applied) == 0 {
		return Migration{}, ErrNothingToRevert
	}
	latest := applied[len(applied)-1]

	var mig Migration
	for _, candidate := range m.migrations {
		if candidate.Version == latest {
			mig = candidate
		}
	}
	if mig.Down == "" {
		return Migration{}, fmt.Errorf("%w: version %04d", ErrMissingDown, latest)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return Migration{}, fmt.Errorf("begin revert %04d: %w", latest, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
		return Migration{}, fmt.Errorf("revert migration %04d_%s: %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version); err != nil {
		return Migration{}, fmt.Errorf("unrecord migration %04d: %w", mig.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return Migration{}, fmt.Errorf("commit revert %04d: %w", mig.Version, err)
	}
	return mig, nil
}
