package migrator

import (
	"context"
	"database/sql"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"github.com/eleven-am/pantry/internal/database"
	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/internal/schema"
)

// Drift is the difference between a live database and the catalog.
type Drift struct {
	Changes      []atlas.Change
	Statements   []string
	Destructive  int
	Descriptions []string
}

// Empty reports whether the live schema matches the catalog.
func (d *Drift) Empty() bool {
	return len(d.Changes) == 0
}

// Verifier diffs a live database against the catalog. The catalog DDL is
// applied to a throwaway database next to the live one so both sides are
// read back through the same atlas inspector.
type Verifier struct {
	cfg     *database.Config
	catalog *schema.Catalog
	exclude []string
}

// NewVerifier ignores the tables named in exclude, typically the
// migrations table.
func NewVerifier(cfg *database.Config, catalog *schema.Catalog, exclude ...string) *Verifier {
	return &Verifier{cfg: cfg, catalog: catalog, exclude: exclude}
}

// Verify inspects live and returns the changes that would bring it to the
// catalog.
func (v *Verifier) Verify(ctx context.Context, live *sql.DB) (*Drift, error) {
	log := logger.Atlas()

	liveDriver, err := postgres.Open(live)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	current, err := liveDriver.InspectRealm(ctx, &atlas.InspectRealmOption{Schemas: []string{"public"}})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect current schema: %w", err)
	}

	targetDDL, err := v.catalog.CreateSQL()
	if err != nil {
		return nil, err
	}

	tempDB, cleanup, err := database.TempDB(ctx, v.cfg, "pantry_verify")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp database: %w", err)
	}
	defer cleanup()

	if _, err := tempDB.ExecContext(ctx, targetDDL); err != nil {
		return nil, fmt.Errorf("failed to execute DDL in temp database: %w", err)
	}

	targetDriver, err := postgres.Open(tempDB.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create target driver: %w", err)
	}
	target, err := targetDriver.InspectRealm(ctx, &atlas.InspectRealmOption{Schemas: []string{"public"}})
	if err != nil {
		return nil, fmt.Errorf("failed to inspect target schema: %w", err)
	}

	for _, name := range v.exclude {
		excludeTable(current, name)
		excludeTable(target, name)
	}

	changes, err := liveDriver.RealmDiff(current, target)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate diff: %w", err)
	}

	drift := &Drift{Changes: changes}
	drift.Destructive, drift.Descriptions = CountDestructiveChanges(changes)
	if len(changes) == 0 {
		log.Debug("Schema matches catalog")
		return drift, nil
	}

	drift.Statements, err = GenerateAtlasSQL(ctx, liveDriver, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	log.Info("Schema drift detected", "changes", len(changes), "destructive", drift.Destructive)
	return drift, nil
}

// GenerateAtlasSQL renders changes as SQL statements, prefixing each with
// its planner comment.
func GenerateAtlasSQL(ctx context.Context, driver migrate.Driver, changes []atlas.Change) ([]string, error) {
	plan, err := driver.PlanChanges(ctx, "", changes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	statements := make([]string, len(plan.Changes))
	for i, change := range plan.Changes {
		statements[i] = change.Cmd
		if change.Comment != "" {
			statements[i] = fmt.Sprintf("-- %s\n%s", change.Comment, change.Cmd)
		}
	}
	return statements, nil
}

func excludeTable(realm *atlas.Realm, name string) {
	for _, s := range realm.Schemas {
		kept := s.Tables[:0]
		for _, t := range s.Tables {
			if t.Name != name {
				kept = append(kept, t)
			}
		}
		s.Tables = kept
	}
}

func IsDestructiveChange(change atlas.Change) bool {
	switch c := change.(type) {
	case *atlas.DropTable, *atlas.DropColumn, *atlas.DropIndex, *atlas.DropForeignKey:
		return true
	case *atlas.ModifyColumn:
		return c.Change&atlas.ChangeType != 0
	case *atlas.ModifyTable:
		for _, subChange := range c.Changes {
			if IsDestructiveChange(subChange) {
				return true
			}
		}
	}
	return false
}

func DescribeChange(change atlas.Change) string {
	switch c := change.(type) {
	case *atlas.AddTable:
		return fmt.Sprintf("Create table %s", c.T.Name)
	case *atlas.DropTable:
		return fmt.Sprintf("Drop table %s", c.T.Name)
	case *atlas.ModifyTable:
		return fmt.Sprintf("Modify table %s (%d changes)", c.T.Name, len(c.Changes))
	case *atlas.AddColumn:
		return fmt.Sprintf("Add column %s", c.C.Name)
	case *atlas.DropColumn:
		return fmt.Sprintf("Drop column %s", c.C.Name)
	case *atlas.ModifyColumn:
		return fmt.Sprintf("Modify column %s", c.To.Name)
	case *atlas.AddIndex:
		return fmt.Sprintf("Add index %s", c.I.Name)
	case *atlas.DropIndex:
		return fmt.Sprintf("Drop index %s", c.I.Name)
	case *atlas.AddForeignKey:
		return fmt.Sprintf("Add foreign key %s", c.F.Symbol)
	case *atlas.DropForeignKey:
		return fmt.Sprintf("Drop foreign key %s", c.F.Symbol)
	default:
		return fmt.Sprintf("Change type %T", change)
	}
}

// CountDestructiveChanges counts changes that can lose data and describes
// each one.
func CountDestructiveChanges(changes []atlas.Change) (count int, descriptions []string) {
	for _, change := range changes {
		if IsDestructiveChange(change) {
			count++
			descriptions = append(descriptions, DescribeChange(change))
		}
	}
	return count, descriptions
}
