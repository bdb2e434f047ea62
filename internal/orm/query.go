package orm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/pantry/internal/schema"
)

// Query provides a fluent interface for building database queries.
// Subqueries passed through conditions must use the default "?"
// placeholders; the outer query renumbers them.
type Query[T any] struct {
	repo *Repository[T]
	ctx  context.Context

	limit       *uint64
	offset      *uint64
	orderBy     []string
	whereClause squirrel.And
}

func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	return &Query[T]{
		repo:        r,
		ctx:         ctx,
		whereClause: squirrel.And{},
	}
}

func (q *Query[T]) Where(condition Condition) *Query[T] {
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

func (q *Query[T]) Limit(limit uint64) *Query[T] {
	q.limit = &limit
	return q
}

func (q *Query[T]) Offset(offset uint64) *Query[T] {
	q.offset = &offset
	return q
}

func (q *Query[T]) table() string {
	return schema.Quote(q.repo.table.Name)
}

func (q *Query[T]) selectBuilder() squirrel.SelectBuilder {
	builder := squirrel.Select(q.repo.columns...).
		From(q.table()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}

	for _, orderBy := range q.orderBy {
		builder = builder.OrderBy(orderBy)
	}

	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}

	if q.offset != nil {
		builder = builder.Offset(*q.offset)
	}
	return builder
}

// ToSQL renders the SELECT statement without running it.
func (q *Query[T]) ToSQL() (string, []interface{}, error) {
	return q.selectBuilder().ToSql()
}

func (q *Query[T]) Find() ([]T, error) {
	records := make([]T, 0)
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, q.selectBuilder(), func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: q.repo.table.Name,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := q.repo.db.SelectContext(q.ctx, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", q.repo.table.Name)
		}
		return nil
	})

	return records, err
}

func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, NotFound("first", q.repo.table.Name)
	}

	return &records[0], nil
}

func (q *Query[T]) Count() (int64, error) {
	countBuilder := squirrel.Select("COUNT(*)").
		From(q.table()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		countBuilder = countBuilder.Where(q.whereClause)
	}

	var count int64
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, countBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "count",
				Table: q.repo.table.Name,
				Err:   fmt.Errorf("failed to build count query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		if err := q.repo.db.GetContext(q.ctx, &count, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "count", q.repo.table.Name)
		}
		return nil
	})

	return count, err
}

// Delete removes every matching row and reports how many went.
func (q *Query[T]) Delete() (int64, error) {
	deleteBuilder := squirrel.Delete(q.table()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		deleteBuilder = deleteBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpDeleteMany, q.ctx, nil, deleteBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: q.repo.table.Name,
				Err:   fmt.Errorf("failed to build delete query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", q.repo.table.Name)
		}
		rowsAffected, err = affected(result, "delete", q.repo.table.Name)
		return err
	})

	return rowsAffected, err
}

// Update sets columns on every matching row. Keys are column names;
// values may be squirrel expressions such as ComparableColumn.Shift.
func (q *Query[T]) Update(updates map[string]interface{}) (int64, error) {
	if len(updates) == 0 {
		return 0, &Error{
			Op:    "update",
			Table: q.repo.table.Name,
			Err:   fmt.Errorf("no updates provided"),
		}
	}

	set := make(map[string]interface{}, len(updates))
	for column, value := range updates {
		if !q.repo.table.HasColumn(column) {
			return 0, Invalid("update", q.repo.table.Name, ValidationError{Field: column, Message: "unknown column"})
		}
		set[schema.Quote(column)] = value
	}

	updateBuilder := squirrel.Update(q.table()).
		SetMap(set).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		updateBuilder = updateBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpUpdateMany, q.ctx, updates, updateBuilder, func(middlewareCtx *MiddlewareContext) error {
		finalQuery := middlewareCtx.QueryBuilder.(squirrel.UpdateBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "update",
				Table: q.repo.table.Name,
				Err:   fmt.Errorf("failed to build update query: %w", err),
			}
		}
		middlewareCtx.Query = sqlQuery
		middlewareCtx.Args = args

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", q.repo.table.Name)
		}
		rowsAffected, err = affected(result, "update", q.repo.table.Name)
		return err
	})

	return rowsAffected, err
}

func affected(result sql.Result, op, table string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, &Error{
			Op:    op,
			Table: table,
			Err:   fmt.Errorf("failed to get rows affected: %w", err),
		}
	}
	return n, nil
}
