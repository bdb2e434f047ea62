package orm

import (
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/pantry/internal/schema"
)

// Column represents a type-safe database column reference
type Column[T any] struct {
	Name  string
	Table string
}

// Col declares a column of table.
func Col[T any](table, name string) Column[T] {
	return Column[T]{Name: name, Table: table}
}

// String returns the quoted, table-qualified column.
func (c Column[T]) String() string {
	if c.Table != "" {
		return schema.Quote(c.Table) + "." + schema.Quote(c.Name)
	}
	return schema.Quote(c.Name)
}

func (c Column[T]) Eq(value T) Condition {
	return Condition{squirrel.Eq{c.String(): value}}
}

// InSelect matches rows whose column value is produced by sub.
func (c Column[T]) InSelect(sub squirrel.SelectBuilder) Condition {
	return Condition{squirrel.Expr(c.String()+" IN (?)", sub)}
}

func (c Column[T]) Asc() string {
	return c.String() + " ASC"
}

// ComparableColumn provides comparison operations for comparable types
type ComparableColumn[T Comparable] struct {
	Column[T]
}

// Comparable types that support comparison operators
type Comparable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 |
		~string |
		time.Time
}

// Cmp declares a comparable column of table.
func Cmp[T Comparable](table, name string) ComparableColumn[T] {
	return ComparableColumn[T]{Column: Col[T](table, name)}
}

func (c ComparableColumn[T]) Gt(value T) Condition {
	return Condition{squirrel.Gt{c.String(): value}}
}

func (c ComparableColumn[T]) Gte(value T) Condition {
	return Condition{squirrel.GtOrEq{c.String(): value}}
}

func (c ComparableColumn[T]) Lt(value T) Condition {
	return Condition{squirrel.Lt{c.String(): value}}
}

func (c ComparableColumn[T]) Lte(value T) Condition {
	return Condition{squirrel.LtOrEq{c.String(): value}}
}

// Shift returns an expression adding delta to the column, for use as an
// Update value.
func (c ComparableColumn[T]) Shift(delta int) squirrel.Sqlizer {
	return squirrel.Expr(schema.Quote(c.Name)+" + ?", delta)
}

// Condition wraps a squirrel predicate
type Condition struct {
	clause squirrel.Sqlizer
}

func (c Condition) ToSqlizer() squirrel.Sqlizer {
	return c.clause
}

// And combines conditions with AND
func And(conditions ...Condition) Condition {
	and := make(squirrel.And, len(conditions))
	for i, c := range conditions {
		and[i] = c.clause
	}
	return Condition{and}
}

// Or combines conditions with OR
func Or(conditions ...Condition) Condition {
	or := make(squirrel.Or, len(conditions))
	for i, c := range conditions {
		or[i] = c.clause
	}
	return Condition{or}
}
