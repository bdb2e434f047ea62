// Package store is the domain data store of pantry: typed create, read,
// update, delete and relationship queries for every entity, backed by
// PostgreSQL.
//
// Every operation runs under Options.OperationTimeout. Mutations run in a
// single transaction each; recipe families are written atomically. Errors
// carry one of the kinds in package orm (ErrValidation, ErrReference,
// ErrNotFound, ErrStorageUnavailable).
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/pantry/internal/database"
	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
	"github.com/eleven-am/pantry/internal/schema"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DefaultOperationTimeout bounds each store call when Options leaves it unset.
const DefaultOperationTimeout = 5 * time.Second

var catalog = schema.MustBuild(model.Tables()...)

// Catalog returns the schema catalog of every stored entity.
func Catalog() *schema.Catalog {
	return catalog
}

type Options struct {
	// OperationTimeout bounds every call, including its transaction.
	OperationTimeout time.Duration

	// Logger receives per-query debug lines and infrastructure warnings.
	Logger logger.Logger

	// Clock and NewID are overridable for tests.
	Clock func() time.Time
	NewID func() string
}

// Store is the explicit handle through which all entity access flows. It
// is safe for concurrent use; open one per process and Close it on
// shutdown.
type Store struct {
	db       *sqlx.DB
	txm      *orm.TransactionManager
	validate *validator.Validate
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time
	newID    func() string
	logging  orm.QueryMiddleware
}

// Open connects to PostgreSQL and returns a ready store.
func Open(ctx context.Context, cfg *database.Config, opts Options) (*Store, error) {
	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, orm.ParsePostgreSQLError(err, "open", "")
	}
	return New(db, opts), nil
}

// New wraps an existing pool.
func New(db *sqlx.DB, opts Options) *Store {
	s := &Store{
		db:       db,
		txm:      orm.NewTransactionManager(db),
		validate: newValidator(),
		timeout:  opts.OperationTimeout,
		log:      opts.Logger,
		now:      opts.Clock,
		newID:    opts.NewID,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultOperationTimeout
	}
	if s.log == nil {
		s.log = logger.Store()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	s.logging = orm.Timing(s.observe)
	return s
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable within the operation timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.classify(ctx, s.db.PingContext(ctx), "ping", "")
}

func (s *Store) observe(mc *orm.MiddlewareContext) {
	if mc.Error != nil && errors.Is(mc.Error, orm.ErrStorageUnavailable) {
		s.log.Warn("Query failed", "op", mc.Operation, "table", mc.TableName, "duration", mc.Duration, "error", mc.Error)
		return
	}
	s.log.Debug("Query", "op", mc.Operation, "table", mc.TableName, "duration", mc.Duration, "sql", mc.Query)
}

// write runs fn in a transaction bounded by the operation timeout.
func (s *Store) write(ctx context.Context, op, table string, fn func(ctx context.Context, exec orm.DBExecutor) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.txm.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, tx)
	})
	return s.classify(ctx, err, op, table)
}

// read runs fn on the pool bounded by the operation timeout.
func (s *Store) read(ctx context.Context, op, table string, fn func(ctx context.Context, exec orm.DBExecutor) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.classify(ctx, fn(ctx, s.db), op, table)
}

// classify maps err to an orm kind. Once the operation deadline has passed
// any failure that is not already a domain outcome is reported as
// unavailable storage, whatever the driver said.
func (s *Store) classify(ctx context.Context, err error, op, table string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, orm.ErrValidation) || errors.Is(err, orm.ErrReference) || errors.Is(err, orm.ErrNotFound) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, orm.ErrStorageUnavailable) {
		return orm.Unavailable(op, table, fmt.Errorf("%w: %v", ctxErr, err))
	}
	return orm.ParsePostgreSQLError(err, op, table)
}

func (s *Store) check(op, table string, in interface{}) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError(op, table, err)
	}
	return nil
}
