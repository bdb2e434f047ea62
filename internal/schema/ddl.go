package schema

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Quote quotes an identifier for PostgreSQL.
func Quote(ident string) string {
	return pq.QuoteIdentifier(ident)
}

// CreateStatements returns the DDL creating every table and index, in
// dependency order.
func (c *Catalog) CreateStatements() ([]string, error) {
	tables, err := c.Sorted()
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, t := range tables {
		stmts = append(stmts, createTable(t))
		for _, idx := range t.Indexes {
			stmts = append(stmts, createIndex(t, idx))
		}
	}
	return stmts, nil
}

// DropStatements returns the DDL dropping every table, dependents first.
func (c *Catalog) DropStatements() ([]string, error) {
	tables, err := c.Sorted()
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", Quote(tables[i].Name)))
	}
	return stmts, nil
}

// CreateSQL joins CreateStatements into one script.
func (c *Catalog) CreateSQL() (string, error) {
	stmts, err := c.CreateStatements()
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n\n") + "\n", nil
}

// DropSQL joins DropStatements into one script.
func (c *Catalog) DropSQL() (string, error) {
	stmts, err := c.DropStatements()
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n") + "\n", nil
}

func createTable(t *Table) string {
	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "    "+columnDefinition(col))
	}

	lines = append(lines, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
		Quote(t.Name+"_pkey"), Quote(t.PrimaryKey.Name)))

	for _, u := range t.Uniques {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)", Quote(u.Name), quoteList(u.Columns)))
	}

	for _, fk := range t.ForeignKeys {
		def := fmt.Sprintf("    CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			Quote(fk.Name), Quote(fk.Column), Quote(fk.RefTable), Quote(fk.RefColumn))
		if fk.OnDelete != "" {
			def += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			def += " ON UPDATE " + fk.OnUpdate
		}
		lines = append(lines, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", Quote(t.Name), strings.Join(lines, ",\n"))
}

func columnDefinition(col *Column) string {
	parts := []string{Quote(col.Name), col.Type}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	return strings.Join(parts, " ")
}

func createIndex(t *Table, idx Constraint) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", Quote(idx.Name), Quote(t.Name), quoteList(idx.Columns))
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(c)
	}
	return strings.Join(quoted, ", ")
}
