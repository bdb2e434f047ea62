package orm

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, so a
// repository runs the same way inside or outside a transaction.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ DBExecutor = (*sqlx.DB)(nil)
	_ DBExecutor = (*sqlx.Tx)(nil)
)
