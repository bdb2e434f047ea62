// Package migrator applies versioned schema migrations to the pantry
// database and reports drift between the live schema and the catalog.
//
// The first migration is always the baseline generated from the catalog.
// Later changes are plain SQL files in the migrations directory, named so
// they sort in apply order, with "-- +migrate Up" and "-- +migrate Down"
// sections.
package migrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/internal/schema"
	"github.com/jmoiron/sqlx"
)

const (
	// BaselineName is the name recorded for the catalog baseline.
	BaselineName = "0000_baseline"

	// DefaultTable records applied migrations.
	DefaultTable = "schema_migrations"

	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one versioned schema change.
type Migration struct {
	Name     string
	UpSQL    string
	DownSQL  string
	Checksum string
}

// Record is an applied migration as stored in the migrations table.
type Record struct {
	Name      string    `db:"name"`
	AppliedAt time.Time `db:"applied_at"`
	Checksum  string    `db:"checksum"`
}

// Status summarises applied and pending migrations.
type Status struct {
	Applied  []string
	Pending  []string
	Current  string
	Modified []string
}

type Options struct {
	// Dir holds *.sql migrations. Empty means baseline only.
	Dir string
	// Table records applied migrations; defaults to DefaultTable.
	Table string
}

type Migrator struct {
	db      *sqlx.DB
	catalog *schema.Catalog
	opts    Options
	log     logger.Logger
}

func New(db *sqlx.DB, catalog *schema.Catalog, opts Options) *Migrator {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	return &Migrator{
		db:      db,
		catalog: catalog,
		opts:    opts,
		log:     logger.Migration(),
	}
}

// Baseline returns the migration creating every catalog table.
func (m *Migrator) Baseline() (*Migration, error) {
	up, err := m.catalog.CreateSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate baseline: %w", err)
	}
	down, err := m.catalog.DropSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate baseline rollback: %w", err)
	}
	return &Migration{
		Name:     BaselineName,
		UpSQL:    up,
		DownSQL:  down,
		Checksum: Checksum(up),
	}, nil
}

// Available returns the baseline followed by the directory's migrations in
// name order.
func (m *Migrator) Available() ([]*Migration, error) {
	baseline, err := m.Baseline()
	if err != nil {
		return nil, err
	}
	migrations := []*Migration{baseline}

	if m.opts.Dir == "" {
		return migrations, nil
	}

	files, err := filepath.Glob(filepath.Join(m.opts.Dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		migration, err := LoadMigration(file)
		if err != nil {
			return nil, err
		}
		if migration.Name == BaselineName {
			return nil, fmt.Errorf("migration file %s uses the reserved name %s", file, BaselineName)
		}
		migrations = append(migrations, migration)
	}
	return migrations, nil
}

// Up applies every pending migration in order and returns their names.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, migration := range pending {
		if err := m.Apply(ctx, migration); err != nil {
			return applied, err
		}
		applied = append(applied, migration.Name)
	}
	return applied, nil
}

// Apply executes a migration and records it in one transaction.
func (m *Migrator) Apply(ctx context.Context, migration *Migration) error {
	m.log.Info("Applying migration...", "name", migration.Name)

	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execScript(ctx, tx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Name, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (name, applied_at, checksum) VALUES ($1, $2, $3)`, schema.Quote(m.opts.Table))
	if _, err := tx.ExecContext(ctx, query, migration.Name, time.Now(), migration.Checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	m.log.Info("Migration applied successfully", "name", migration.Name)
	return nil
}

// Down rolls back the most recently applied migration and returns its
// name, or "" when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	history, err := m.History(ctx)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", nil
	}
	last := history[0].Name

	available, err := m.Available()
	if err != nil {
		return "", err
	}
	for _, migration := range available {
		if migration.Name == last {
			return last, m.Rollback(ctx, migration)
		}
	}
	return "", fmt.Errorf("migration %s is applied but its file is missing", last)
}

// Rollback runs a migration's down script and forgets it.
func (m *Migrator) Rollback(ctx context.Context, migration *Migration) error {
	m.log.Info("Rolling back migration...", "name", migration.Name)

	if strings.TrimSpace(migration.DownSQL) == "" {
		return fmt.Errorf("no rollback script available for migration %s", migration.Name)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execScript(ctx, tx, migration.DownSQL); err != nil {
		return fmt.Errorf("failed to execute rollback of %s: %w", migration.Name, err)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, schema.Quote(m.opts.Table))
	if _, err := tx.ExecContext(ctx, query, migration.Name); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}

	m.log.Info("Migration rolled back successfully", "name", migration.Name)
	return nil
}

// History returns applied migrations, most recent first.
func (m *Migrator) History(ctx context.Context) ([]Record, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT name, applied_at, checksum FROM %s ORDER BY applied_at DESC, name DESC`, schema.Quote(m.opts.Table))

	records := make([]Record, 0)
	if err := m.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	return records, nil
}

// Pending returns the available migrations not yet applied. A migration
// file that changed after it was applied is an error.
func (m *Migrator) Pending(ctx context.Context) ([]*Migration, error) {
	status, available, err := m.status(ctx)
	if err != nil {
		return nil, err
	}
	if len(status.Modified) > 0 {
		return nil, fmt.Errorf("applied migrations were modified: %s", strings.Join(status.Modified, ", "))
	}

	pending := make(map[string]bool, len(status.Pending))
	for _, name := range status.Pending {
		pending[name] = true
	}

	var out []*Migration
	for _, migration := range available {
		if pending[migration.Name] {
			out = append(out, migration)
		}
	}
	return out, nil
}

// Status compares available migrations with the migrations table.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	status, _, err := m.status(ctx)
	return status, err
}

func (m *Migrator) status(ctx context.Context) (*Status, []*Migration, error) {
	available, err := m.Available()
	if err != nil {
		return nil, nil, err
	}
	history, err := m.History(ctx)
	if err != nil {
		return nil, nil, err
	}

	applied := make(map[string]Record, len(history))
	for _, record := range history {
		applied[record.Name] = record
	}

	status := &Status{}
	if len(history) > 0 {
		status.Current = history[0].Name
	}
	for _, migration := range available {
		record, ok := applied[migration.Name]
		if !ok {
			status.Pending = append(status.Pending, migration.Name)
			continue
		}
		status.Applied = append(status.Applied, migration.Name)
		// The baseline is regenerated from the catalog on every run, so its
		// checksum follows the models. Drift after it is applied is reported
		// by verify, not here.
		if migration.Name != BaselineName && record.Checksum != migration.Checksum {
			status.Modified = append(status.Modified, migration.Name)
		}
	}
	return status, available, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	checksum VARCHAR(64) NOT NULL
)`, schema.Quote(m.opts.Table))

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// LoadMigration reads a migration file; its name is the file name without
// the .sql extension.
func LoadMigration(filename string) (*Migration, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(filename), ".sql")
	return ParseMigration(name, string(content)), nil
}

// ParseMigration splits content into up and down scripts.
func ParseMigration(name, content string) *Migration {
	parts := strings.SplitN(content, downMarker, 2)
	up := strings.TrimSpace(parts[0])
	up = strings.TrimSpace(strings.TrimPrefix(up, upMarker))

	down := ""
	if len(parts) > 1 {
		down = strings.TrimSpace(parts[1])
	}

	return &Migration{
		Name:     name,
		UpSQL:    up,
		DownSQL:  down,
		Checksum: Checksum(up),
	}
}

// FormatMigration renders a migration in the file format ParseMigration
// reads.
func FormatMigration(migration *Migration) string {
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n", upMarker, migration.UpSQL, downMarker, migration.DownSQL)
}

// Checksum is the hex SHA-256 of an up script.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func execScript(ctx context.Context, tx *sqlx.Tx, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %s: %w", stmt, err)
		}
	}
	return nil
}

// splitStatements splits a script on semicolons, dropping blanks and
// comment-only fragments.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || commentOnly(stmt) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func commentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
