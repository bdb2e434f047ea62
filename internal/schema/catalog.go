package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/eleven-am/pantry/internal/logger"
)

// Column describes one mapped struct field.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
	Unique     bool
	Default    string
	ForeignKey *ForeignKey

	// FieldIndex locates the field for reflect.Value.FieldByIndex.
	FieldIndex []int
}

// ForeignKey is a single-column reference to another table.
type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

// Constraint names a set of columns, used for unique sets and indexes.
type Constraint struct {
	Name    string
	Columns []string
}

// Table is the catalog entry for one row type.
type Table struct {
	Name        string
	GoType      reflect.Type
	Columns     []*Column
	PrimaryKey  *Column
	Uniques     []Constraint
	Indexes     []Constraint
	ForeignKeys []ForeignKey

	byName map[string]*Column
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// ColumnNames returns the column names in field order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table maps the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// ForeignKeyFor returns the foreign key declared on column, if any.
func (t *Table) ForeignKeyFor(column string) (*ForeignKey, bool) {
	for i := range t.ForeignKeys {
		if t.ForeignKeys[i].Column == column {
			return &t.ForeignKeys[i], true
		}
	}
	return nil, false
}

// Catalog is the set of tables derived from the registered row types.
type Catalog struct {
	tables []*Table
	byName map[string]*Table
	byType map[reflect.Type]*Table
}

// Build reads the dbdef tags of every model into a catalog and checks that
// every foreign key points at a known table and column.
func Build(models ...interface{}) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*Table),
		byType: make(map[reflect.Type]*Table),
	}

	for _, m := range models {
		rt := reflect.TypeOf(m)
		for rt != nil && rt.Kind() == reflect.Ptr {
			rt = rt.Elem()
		}
		if rt == nil || rt.Kind() != reflect.Struct {
			return nil, fmt.Errorf("model %T is not a struct", m)
		}

		table, err := parseTable(rt)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", rt.Name(), err)
		}
		if _, dup := c.byName[table.Name]; dup {
			return nil, fmt.Errorf("table %s registered twice", table.Name)
		}

		c.tables = append(c.tables, table)
		c.byName[table.Name] = table
		c.byType[rt] = table
		logger.Schema().Debug("Registered table", "table", table.Name, "columns", len(table.Columns))
	}

	if err := c.validateReferences(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustBuild is Build for package-level catalogs.
func MustBuild(models ...interface{}) *Catalog {
	c, err := Build(models...)
	if err != nil {
		panic(err)
	}
	return c
}

// Tables returns the tables in registration order.
func (c *Catalog) Tables() []*Table {
	return c.tables
}

// Table looks a table up by name.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// TableFor looks a table up by its row type.
func (c *Catalog) TableFor(rt reflect.Type) (*Table, bool) {
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	t, ok := c.byType[rt]
	return t, ok
}

// Referencing returns every foreign key that points at table.
func (c *Catalog) Referencing(table string) []ForeignKey {
	var refs []ForeignKey
	for _, t := range c.tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == table {
				refs = append(refs, fk)
			}
		}
	}
	return refs
}

func (c *Catalog) validateReferences() error {
	for _, t := range c.tables {
		for _, fk := range t.ForeignKeys {
			ref, ok := c.byName[fk.RefTable]
			if !ok {
				return fmt.Errorf("%s.%s references unknown table %s", t.Name, fk.Column, fk.RefTable)
			}
			if !ref.HasColumn(fk.RefColumn) {
				return fmt.Errorf("%s.%s references unknown column %s.%s", t.Name, fk.Column, fk.RefTable, fk.RefColumn)
			}
		}
	}
	return nil
}

func parseTable(rt reflect.Type) (*Table, error) {
	table := &Table{
		GoType: rt,
		byName: make(map[string]*Column),
	}

	var tableAttrs map[string]string
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Name != "_" {
			continue
		}
		tableAttrs = ParseDBDefTag(f.Tag.Get("dbdef"))
	}
	if tableAttrs == nil || tableAttrs["table"] == "" {
		return nil, fmt.Errorf("missing table-level dbdef tag")
	}
	table.Name = tableAttrs["table"]

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Name == "_" || !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		if name == "" || name == "-" {
			continue
		}
		def := f.Tag.Get("dbdef")
		if err := ValidateColumnTag(def); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		col, err := parseColumn(table.Name, name, def)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		col.FieldIndex = f.Index

		if _, dup := table.byName[col.Name]; dup {
			return nil, fmt.Errorf("column %s mapped twice", col.Name)
		}
		table.Columns = append(table.Columns, col)
		table.byName[col.Name] = col

		if col.PrimaryKey {
			if table.PrimaryKey != nil {
				return nil, fmt.Errorf("composite primary keys are not supported")
			}
			table.PrimaryKey = col
		}
		if col.Unique {
			table.Uniques = append(table.Uniques, Constraint{
				Name:    fmt.Sprintf("%s_%s_key", table.Name, col.Name),
				Columns: []string{col.Name},
			})
		}
		if col.ForeignKey != nil {
			table.ForeignKeys = append(table.ForeignKeys, *col.ForeignKey)
		}
	}

	if table.PrimaryKey == nil {
		return nil, fmt.Errorf("table %s has no primary key", table.Name)
	}

	for attr, target := range map[string]*[]Constraint{"unique": &table.Uniques, "index": &table.Indexes} {
		value, ok := tableAttrs[attr]
		if !ok {
			continue
		}
		for _, spec := range strings.Split(value, ";") {
			name, cols, err := parseNamedColumns(spec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", attr, err)
			}
			for _, col := range cols {
				if !table.HasColumn(col) {
					return nil, fmt.Errorf("%s %s: unknown column %s", attr, name, col)
				}
			}
			*target = append(*target, Constraint{Name: name, Columns: cols})
		}
	}

	return table, nil
}

func parseColumn(table, name, def string) (*Column, error) {
	attrs := ParseDBDefTag(def)

	col := &Column{
		Name:       name,
		Type:       attrs["type"],
		PrimaryKey: HasFlag(attrs, "primary_key"),
		Unique:     HasFlag(attrs, "unique"),
		Default:    attrs["default"],
	}
	col.NotNull = col.PrimaryKey || HasFlag(attrs, "not_null")
	if col.Type == "" {
		return nil, fmt.Errorf("column %s has no type", name)
	}

	ref := attrs["foreign_key"]
	if ref == "" {
		ref = attrs["fk"]
	}
	if ref != "" {
		refTable, refColumn, err := splitReference(ref)
		if err != nil {
			return nil, err
		}
		col.ForeignKey = &ForeignKey{
			Name:      fmt.Sprintf("%s_%s_fkey", table, name),
			Table:     table,
			Column:    name,
			RefTable:  refTable,
			RefColumn: refColumn,
			OnDelete:  strings.ToUpper(attrs["on_delete"]),
			OnUpdate:  strings.ToUpper(attrs["on_update"]),
		}
	}
	return col, nil
}
