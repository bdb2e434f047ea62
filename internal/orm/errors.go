package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Error kinds. Every *Error carries exactly one of these as its Kind, so
// callers branch with errors.Is(err, orm.ErrNotFound) and friends.
var (
	ErrValidation         = errors.New("validation failed")
	ErrReference          = errors.New("dangling reference")
	ErrNotFound           = errors.New("record not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Causes, carried in Error.Err.
var (
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrCheckConstraint  = errors.New("check constraint violation")
	ErrNotNull          = errors.New("not null constraint violation")
	ErrInvalidInput     = errors.New("invalid input syntax")
	ErrConnectionFailed = errors.New("database connection failed")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Table      string // Table involved
	Kind       error  // One of ErrValidation, ErrReference, ErrNotFound, ErrStorageUnavailable
	Err        error  // Underlying error
	Constraint string // Constraint name (if applicable)
	Column     string // Column name (if applicable)
	Retryable  bool   // Whether the operation can be retried
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("orm: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("constraint=%s", e.Constraint))
	}

	if e.Kind != nil && !errors.Is(e.Err, e.Kind) {
		parts = append(parts, e.Kind.Error())
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	if e.Kind != nil && e.Kind == target {
		return true
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != nil && e.Kind == t.Kind {
		return true
	}
	return t.Op != "" && e.Op == t.Op
}

func newError(kind error, op, table string, err error) *Error {
	return &Error{
		Op:        op,
		Table:     table,
		Kind:      kind,
		Err:       err,
		Retryable: kind == ErrStorageUnavailable,
	}
}

// NotFound reports a missing row.
func NotFound(op, table string) *Error {
	return newError(ErrNotFound, op, table, ErrNotFound)
}

// Unavailable wraps an infrastructure failure.
func Unavailable(op, table string, err error) *Error {
	return newError(ErrStorageUnavailable, op, table, err)
}

// Invalid reports field-level validation failures.
func Invalid(op, table string, errs ...ValidationError) *Error {
	e := newError(ErrValidation, op, table, ValidationErrors(errs))
	if len(errs) == 1 {
		e.Column = errs[0].Field
	}
	return e
}

// ParsePostgreSQLError converts driver errors to ORM errors. Errors that
// are already *Error pass through untouched.
func ParsePostgreSQLError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	var ormErr *Error
	if errors.As(err, &ormErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(op, table)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %v", ErrTimeout, err))
	}

	if errors.Is(err, context.Canceled) {
		e := newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %v", ErrCanceled, err))
		e.Retryable = false
		return e
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromPQ(pqErr, op, table)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "canceling query due to user request") {
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	return &Error{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

func fromPQ(pqErr *pq.Error, op, table string) error {
	if pqErr.Table != "" {
		table = pqErr.Table
	}

	switch pqErr.Code {
	case "23505":
		e := newError(ErrValidation, op, table, fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Message))
		e.Constraint = pqErr.Constraint
		return e
	case "23503":
		e := newError(ErrReference, op, table, fmt.Errorf("%w: %s", ErrForeignKey, pqErr.Message))
		e.Constraint = pqErr.Constraint
		return e
	case "23502":
		e := newError(ErrValidation, op, table, fmt.Errorf("%w: %s", ErrNotNull, pqErr.Message))
		e.Column = pqErr.Column
		return e
	case "23514":
		e := newError(ErrValidation, op, table, fmt.Errorf("%w: %s", ErrCheckConstraint, pqErr.Message))
		e.Constraint = pqErr.Constraint
		return e
	case "22P02", "22001", "22003", "22007", "22008":
		return newError(ErrValidation, op, table, fmt.Errorf("%w: %s", ErrInvalidInput, pqErr.Message))
	case "57014":
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %s", ErrTimeout, pqErr.Message))
	case "40001", "40P01", "53300", "57P01", "57P02", "57P03":
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %s", ErrConnectionFailed, pqErr.Message))
	}

	if pqErr.Code.Class() == "08" {
		return newError(ErrStorageUnavailable, op, table, fmt.Errorf("%w: %s", ErrConnectionFailed, pqErr.Message))
	}

	return &Error{
		Op:    op,
		Table: table,
		Err:   pqErr,
	}
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Retryable
	}
	return false
}

// IsConstraintError checks if an error is a constraint violation
func IsConstraintError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrForeignKey) ||
		errors.Is(err, ErrCheckConstraint) ||
		errors.Is(err, ErrNotNull)
}

// GetConstraintName extracts the constraint name from an error
func GetConstraintName(err error) string {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Constraint
	}
	return ""
}

// GetColumnName extracts the column name from an error
func GetColumnName(err error) string {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Column
	}
	return ""
}
