package committer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"google.golang.org/grpc/codes"
)

// Reason classifies why a store did not commit.
type Reason string

const (
	ReasonConflict    Reason = "conflict"    // serialization failure, deadlock, aborted
	ReasonConstraint  Reason = "constraint"  // unique, not-null, check, foreign key
	ReasonUnavailable Reason = "unavailable" // connectivity, timeouts, busy store
	ReasonUnknown     Reason = "unknown"
)

// TransactionError is returned when the target store rejects or cannot
// complete a commit. It is never retried by this package.
type TransactionError struct {
	Reason Reason
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed (%s): %v", e.Reason, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// IsTransactionError reports whether err is, or wraps, a *TransactionError.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}

func newTransactionError(reason Reason, err error) error {
	if err == nil {
		return nil
	}
	var te *TransactionError
	if errors.As(err, &te) {
		return err
	}
	return &TransactionError{Reason: reason, Err: err}
}

func classifyContext(err error) (Reason, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonUnavailable, true
	}
	return "", false
}

func classifySpanner(err error) Reason {
	if r, ok := classifyContext(err); ok {
		return r
	}
	switch spanner.ErrCode(err) {
	case codes.Aborted:
		return ReasonConflict
	case codes.AlreadyExists, codes.FailedPrecondition, codes.InvalidArgument, codes.OutOfRange, codes.NotFound:
		return ReasonConstraint
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Canceled:
		return ReasonUnavailable
	default:
		return ReasonUnknown
	}
}

func classifySQL(err error) Reason {
	if r, ok := classifyContext(err); ok {
		return r
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return ReasonConstraint
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return ReasonConflict
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrFull:
			return ReasonUnavailable
		}
		return ReasonUnknown
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1048, 1452, 1451, 3819: // duplicate, not null, foreign key, check
			return ReasonConstraint
		case 1213, 1205: // deadlock, lock wait timeout
			return ReasonConflict
		}
		return ReasonUnknown
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return ReasonUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return ReasonConstraint
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return ReasonConflict
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return ReasonUnavailable
		}
	}
	return ReasonUnknown
}
