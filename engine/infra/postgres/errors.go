package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intrence/catalog/engine/core"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrInvalidDescriptor wraps descriptor validation failures.
var ErrInvalidDescriptor = errors.New("postgres: invalid connection descriptor")

// ErrManagerClosed is returned by Pool after Close.
var ErrManagerClosed = errors.New("postgres: pool manager closed")

// MissingCredentialError means the descriptor lacks the role a tier needs.
type MissingCredentialError struct {
	Tier Tier
	Role Role
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("postgres: %s tier requires %s credentials", e.Tier, e.Role)
}

// InvalidConnectionPropertyError means an SSL mode or extra connection
// property could not be applied to the connection configuration.
type InvalidConnectionPropertyError struct {
	Property string
	Err      error
}

func (e *InvalidConnectionPropertyError) Error() string {
	return fmt.Sprintf("postgres: error setting property %s: %v", e.Property, e.Err)
}

func (e *InvalidConnectionPropertyError) Unwrap() error { return e.Err }

// PoolConstructionError means the first connect of a tier failed. Nothing is
// cached; a later call retries.
type PoolConstructionError struct {
	Pool string
	Err  error
}

func (e *PoolConstructionError) Error() string {
	return fmt.Sprintf("postgres: building %s: %s", e.Pool, core.RedactError(e.Err))
}

func (e *PoolConstructionError) Unwrap() error { return e.Err }

// PoolExhaustedError means no connection became free within the acquire timeout.
type PoolExhaustedError struct {
	Pool    string
	Timeout time.Duration
	Err     error
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("postgres: no connection from %s within %s", e.Pool, e.Timeout)
}

func (e *PoolExhaustedError) Unwrap() error { return e.Err }

// StatementTimeoutError means a statement ran past the statement timeout.
type StatementTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *StatementTimeoutError) Error() string {
	return fmt.Sprintf("postgres: statement exceeded %s: %v", e.Timeout, e.Err)
}

func (e *StatementTimeoutError) Unwrap() error { return e.Err }

// ConflictError reports a unique-key collision, typically two concurrent
// upserts of the same identifier both taking the insert branch.
type ConflictError struct {
	Entity     string
	ID         core.ID
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("postgres: %s %s already exists (%s)", e.Entity, e.ID, e.Constraint)
}

func (e *ConflictError) Unwrap() error { return e.Err }

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error) (string, bool) {
	code, constraint := pgCode(err)
	return constraint, code == pgerrcode.UniqueViolation
}

// classifyStatementError maps timeouts raised while a statement ran. parent
// is the caller's context; a deadline there belongs to the caller and is
// returned untouched.
func classifyStatementError(parent, stmt context.Context, timeout time.Duration, err error) error {
	if err == nil || parent.Err() != nil {
		return err
	}
	if code, _ := pgCode(err); code == pgerrcode.QueryCanceled {
		return &StatementTimeoutError{Timeout: timeout, Err: err}
	}
	if errors.Is(stmt.Err(), context.DeadlineExceeded) {
		return &StatementTimeoutError{Timeout: timeout, Err: err}
	}
	return err
}
