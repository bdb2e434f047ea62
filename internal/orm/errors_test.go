package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func pqError(code, constraint string) *pq.Error {
	return &pq.Error{Code: pq.ErrorCode(code), Constraint: constraint, Message: "boom"}
}

func TestParsePostgreSQLError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      error
		cause     error
		retryable bool
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound, ErrNotFound, false},
		{"unique", pqError("23505", "users_email_key"), ErrValidation, ErrDuplicateKey, false},
		{"foreign key", pqError("23503", "posts_author_id_fkey"), ErrReference, ErrForeignKey, false},
		{"not null", pqError("23502", ""), ErrValidation, ErrNotNull, false},
		{"check", pqError("23514", "chk"), ErrValidation, ErrCheckConstraint, false},
		{"bad uuid", pqError("22P02", ""), ErrValidation, ErrInvalidInput, false},
		{"statement timeout", pqError("57014", ""), ErrStorageUnavailable, ErrTimeout, true},
		{"connection class", pqError("08006", ""), ErrStorageUnavailable, ErrConnectionFailed, true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrStorageUnavailable, ErrTimeout, true},
		{"canceled", context.Canceled, ErrStorageUnavailable, ErrCanceled, false},
		{"bad conn", driver.ErrBadConn, ErrStorageUnavailable, ErrConnectionFailed, true},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), ErrStorageUnavailable, ErrConnectionFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParsePostgreSQLError(tt.err, "create", "users")
			assert.True(t, errors.Is(err, tt.kind), "kind: %v", err)
			assert.True(t, errors.Is(err, tt.cause), "cause: %v", err)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestParsePostgreSQLErrorKeepsDetails(t *testing.T) {
	err := ParsePostgreSQLError(pqError("23505", "users_email_key"), "create", "users")
	assert.Equal(t, "users_email_key", GetConstraintName(err))
	assert.True(t, IsConstraintError(err))

	nn := ParsePostgreSQLError(&pq.Error{Code: "23502", Column: "email", Message: "null value"}, "create", "users")
	assert.Equal(t, "email", GetColumnName(nn))
}

func TestParsePostgreSQLErrorPassesThrough(t *testing.T) {
	assert.Nil(t, ParsePostgreSQLError(nil, "find", "users"))

	original := NotFound("find", "users")
	assert.Same(t, original, ParsePostgreSQLError(original, "other", "table"))

	unknown := ParsePostgreSQLError(errors.New("syntax error"), "find", "users")
	assert.False(t, errors.Is(unknown, ErrValidation))
	assert.False(t, errors.Is(unknown, ErrStorageUnavailable))
	assert.False(t, IsRetryable(unknown))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "create", Table: "users", Kind: ErrValidation, Constraint: "users_email_key", Err: ErrDuplicateKey}
	assert.Equal(t, "orm: create: table=users: constraint=users_email_key: validation failed: duplicate key violation", err.Error())

	assert.Equal(t, "orm: find: table=users: record not found", NotFound("find", "users").Error())
}

func TestErrorIsMatchesByKindAndOp(t *testing.T) {
	err := Invalid("update", "tags", ValidationError{Field: "name", Message: "required"})
	assert.True(t, errors.Is(err, &Error{Kind: ErrValidation}))
	assert.True(t, errors.Is(err, &Error{Op: "update"}))
	assert.False(t, errors.Is(err, &Error{Op: "create"}))
	assert.Equal(t, "name", GetColumnName(err))

	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 1)
}

func TestValidationErrors(t *testing.T) {
	one := ValidationErrors{{Field: "email", Message: "required"}}
	assert.Equal(t, "validation failed for email: required", one.Error())

	two := ValidationErrors{{Field: "email", Message: "required"}, {Field: "name", Message: "too long"}}
	assert.Equal(t, "validation failed: validation failed for email: required; validation failed for name: too long", two.Error())
}
