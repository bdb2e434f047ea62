package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/pantry/internal/schema"
	"github.com/google/uuid"
)

// Repository provides constraint-aware CRUD for one row type. Writes check
// unique sets first and foreign keys second, so a row violating both is
// reported as a validation failure. Database constraints stay in place and
// map to the same error kinds when a concurrent writer slips past a check.
type Repository[T any] struct {
	db         DBExecutor
	table      *schema.Table
	columns    []string
	middleware *middlewareManager
}

// NewRepository binds T's catalog entry to an executor.
func NewRepository[T any](db DBExecutor, catalog *schema.Catalog) (*Repository[T], error) {
	var zero T
	table, ok := catalog.TableFor(reflect.TypeOf(zero))
	if !ok {
		return nil, fmt.Errorf("orm: %T is not registered in the catalog", zero)
	}

	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = schema.Quote(col.Name)
	}

	return &Repository[T]{
		db:      db,
		table:   table,
		columns: columns,
	}, nil
}

// Use returns a copy of the repository with middleware appended.
func (r *Repository[T]) Use(middleware QueryMiddleware) *Repository[T] {
	clone := *r
	if clone.middleware == nil {
		clone.middleware = &middlewareManager{}
	}
	clone.middleware = clone.middleware.add(middleware)
	return &clone
}

// Columns returns the quoted column list used in SELECTs.
func (r *Repository[T]) Columns() []string {
	return r.columns
}

// Create inserts record after checking its unique sets and references.
func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "create", Table: r.table.Name, Kind: ErrValidation, Err: fmt.Errorf("nil record")}
	}

	values := r.values(record)
	if err := r.checkUnique(ctx, "create", values, nil); err != nil {
		return err
	}
	if err := r.checkReferences(ctx, "create", values); err != nil {
		return err
	}

	insertValues := make([]interface{}, len(r.table.Columns))
	for i, col := range r.table.Columns {
		insertValues[i] = values[col.Name]
	}

	insertBuilder := squirrel.Insert(schema.Quote(r.table.Name)).
		Columns(r.columns...).
		Values(insertValues...).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpCreate, ctx, record, insertBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.InsertBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "create",
				Table: r.table.Name,
				Err:   fmt.Errorf("failed to build insert query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "create", r.table.Name)
		}
		return nil
	})
}

// FindByID loads one row by primary key.
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	pk := r.table.PrimaryKey
	if !matchable(pk, id) {
		return nil, NotFound("find", r.table.Name)
	}

	selectBuilder := squirrel.Select(r.columns...).
		From(schema.Quote(r.table.Name)).
		Where(squirrel.Eq{schema.Quote(pk.Name): id}).
		PlaceholderFormat(squirrel.Dollar)

	var record T
	err := r.executeQueryMiddleware(OpFind, ctx, nil, selectBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: r.table.Name,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := r.db.GetContext(ctx, &record, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", r.table.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Exists reports whether a row with the given primary key is present.
func (r *Repository[T]) Exists(ctx context.Context, id interface{}) (bool, error) {
	pk := r.table.PrimaryKey
	if !matchable(pk, id) {
		return false, nil
	}
	return r.exists(ctx, "exists", r.table.Name, squirrel.Eq{schema.Quote(pk.Name): id})
}

// Update applies changes (column name to value) to the row with the given
// primary key. The primary key itself cannot change. An empty change set
// only verifies the row exists.
func (r *Repository[T]) Update(ctx context.Context, id interface{}, changes map[string]interface{}) error {
	pk := r.table.PrimaryKey
	if !matchable(pk, id) {
		return NotFound("update", r.table.Name)
	}

	for column := range changes {
		if !r.table.HasColumn(column) {
			return Invalid("update", r.table.Name, ValidationError{Field: column, Message: "unknown column"})
		}
		if column == pk.Name {
			return Invalid("update", r.table.Name, ValidationError{Field: column, Message: "primary key is immutable"})
		}
		if col, _ := r.table.Column(column); col.NotNull && changes[column] == nil {
			return Invalid("update", r.table.Name, ValidationError{Field: column, Message: "cannot be cleared"})
		}
	}

	if len(changes) == 0 {
		found, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return NotFound("update", r.table.Name)
		}
		return nil
	}

	if err := r.checkUnique(ctx, "update", changes, id); err != nil {
		return err
	}
	if err := r.checkReferences(ctx, "update", changes); err != nil {
		return err
	}

	n, err := r.Query(ctx).
		Where(Condition{squirrel.Eq{schema.Quote(pk.Name): id}}).
		Update(changes)
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFound("update", r.table.Name)
	}
	return nil
}

// Delete removes the row with the given primary key. Deleting a missing
// row is an error, so a second delete of the same id reports ErrNotFound.
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	pk := r.table.PrimaryKey
	if !matchable(pk, id) {
		return NotFound("delete", r.table.Name)
	}

	deleteBuilder := squirrel.Delete(schema.Quote(r.table.Name)).
		Where(squirrel.Eq{schema.Quote(pk.Name): id}).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpDelete, ctx, id, deleteBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: r.table.Name,
				Err:   fmt.Errorf("failed to build delete query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		result, err := r.db.ExecContext(ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", r.table.Name)
		}
		n, err := affected(result, "delete", r.table.Name)
		if err != nil {
			return err
		}
		if n == 0 {
			return NotFound("delete", r.table.Name)
		}
		return nil
	})
}

func (r *Repository[T]) values(record *T) map[string]interface{} {
	rv := reflect.ValueOf(record).Elem()
	values := make(map[string]interface{}, len(r.table.Columns))
	for _, col := range r.table.Columns {
		values[col.Name] = columnValue(rv.FieldByIndex(col.FieldIndex))
	}
	return values
}

func columnValue(v reflect.Value) interface{} {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

// checkUnique runs one EXISTS check per unique set whose columns are all
// present in values. excludeID skips the row being updated.
func (r *Repository[T]) checkUnique(ctx context.Context, op string, values map[string]interface{}, excludeID interface{}) error {
	for _, unique := range r.table.Uniques {
		where := squirrel.Eq{}
		complete := true
		for _, name := range unique.Columns {
			v, ok := values[name]
			col, _ := r.table.Column(name)
			if !ok || v == nil || !matchable(col, v) {
				complete = false
				break
			}
			where[schema.Quote(name)] = v
		}
		if !complete {
			continue
		}

		var pred squirrel.Sqlizer = where
		if excludeID != nil {
			pred = squirrel.And{where, squirrel.NotEq{schema.Quote(r.table.PrimaryKey.Name): excludeID}}
		}

		taken, err := r.exists(ctx, op, r.table.Name, pred)
		if err != nil {
			return err
		}
		if taken {
			return &Error{
				Op:         op,
				Table:      r.table.Name,
				Kind:       ErrValidation,
				Err:        fmt.Errorf("%w: %s already taken", ErrDuplicateKey, strings.Join(unique.Columns, ", ")),
				Constraint: unique.Name,
				Column:     unique.Columns[0],
			}
		}
	}
	return nil
}

// checkReferences verifies every non-null foreign key present in values
// points at an existing row.
func (r *Repository[T]) checkReferences(ctx context.Context, op string, values map[string]interface{}) error {
	for _, fk := range r.table.ForeignKeys {
		v, ok := values[fk.Column]
		if !ok || v == nil {
			continue
		}

		found := false
		col, _ := r.table.Column(fk.Column)
		if matchable(col, v) {
			var err error
			found, err = r.exists(ctx, op, fk.RefTable, squirrel.Eq{schema.Quote(fk.RefColumn): v})
			if err != nil {
				return err
			}
		}
		if !found {
			return &Error{
				Op:         op,
				Table:      r.table.Name,
				Kind:       ErrReference,
				Err:        fmt.Errorf("%w: %s %v not found in %s", ErrForeignKey, fk.Column, v, fk.RefTable),
				Constraint: fk.Name,
				Column:     fk.Column,
			}
		}
	}
	return nil
}

func (r *Repository[T]) exists(ctx context.Context, op, table string, pred squirrel.Sqlizer) (bool, error) {
	sub := squirrel.Select("1").From(schema.Quote(table)).Where(pred)
	existsBuilder := squirrel.Select().
		Column(squirrel.Expr("EXISTS (?)", sub)).
		PlaceholderFormat(squirrel.Dollar)

	var found bool
	err := r.executeQueryMiddleware(OpCheck, ctx, nil, existsBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    op,
				Table: table,
				Err:   fmt.Errorf("failed to build exists query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := r.db.GetContext(ctx, &found, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, op, table)
		}
		return nil
	})
	return found, err
}

// matchable reports whether v could equal a value stored in col. Values
// that cannot be cast to a uuid column never match, and skipping the query
// avoids an invalid-input error for what is simply an unknown id.
func matchable(col *schema.Column, v interface{}) bool {
	if col == nil || !strings.EqualFold(col.Type, "uuid") {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}
