package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// DefaultTransactionOptions returns read committed, read-write.
func DefaultTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	}
}

// ToTxOptions converts TransactionOptions to sql.TxOptions
func (o *TransactionOptions) ToTxOptions() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: o.Isolation,
		ReadOnly:  o.ReadOnly,
	}
}

// Beginner starts transactions. *sqlx.DB satisfies it.
type Beginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TransactionManager runs functions inside a transaction
type TransactionManager struct {
	db Beginner
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db Beginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction executes a function within a transaction
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return tm.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions executes fn within a transaction. The transaction
// is rolled back when fn returns an error or panics, and committed
// otherwise. Begin and commit failures are classified like query failures.
func (tm *TransactionManager) WithTransactionOptions(ctx context.Context, opts *TransactionOptions, fn func(*sqlx.Tx) error) (err error) {
	if opts == nil {
		opts = DefaultTransactionOptions()
	}

	tx, err := tm.db.BeginTxx(ctx, opts.ToTxOptions())
	if err != nil {
		return ParsePostgreSQLError(fmt.Errorf("failed to begin transaction: %w", err), "begin", "")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ParsePostgreSQLError(fmt.Errorf("failed to commit: %w", err), "commit", "")
	}

	return nil
}
