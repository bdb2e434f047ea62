package schema

import "fmt"

// Sorted returns the tables ordered so that every table follows the tables
// it references. Ties keep registration order.
func (c *Catalog) Sorted() ([]*Table, error) {
	sorted := make([]*Table, 0, len(c.tables))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(*Table) error
	visit = func(t *Table) error {
		if visited[t.Name] {
			return nil
		}
		if visiting[t.Name] {
			return fmt.Errorf("circular dependency detected involving table %s", t.Name)
		}

		visiting[t.Name] = true
		for _, dep := range dependencies(t) {
			if dep == t.Name {
				continue
			}
			if err := visit(c.byName[dep]); err != nil {
				return err
			}
		}
		visiting[t.Name] = false
		visited[t.Name] = true
		sorted = append(sorted, t)
		return nil
	}

	for _, t := range c.tables {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// dependencies returns the distinct referenced tables in declaration order.
func dependencies(t *Table) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fk := range t.ForeignKeys {
		if !seen[fk.RefTable] {
			seen[fk.RefTable] = true
			deps = append(deps, fk.RefTable)
		}
	}
	return deps
}
