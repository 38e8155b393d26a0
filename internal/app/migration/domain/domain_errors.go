package domain

import (
	"errors"
	"fmt"

	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// Domain errors for entity validation
var (
	// ErrEmptyNaturalKey indicates an entity without the key that identifies it in both stores.
	ErrEmptyNaturalKey = errors.New("natural key cannot be empty")

	// ErrEmptyRepoID indicates a contact without a repository id.
	ErrEmptyRepoID = errors.New("repo id cannot be empty")

	// ErrInvalidCountryCode indicates a country code that is not two letters.
	ErrInvalidCountryCode = errors.New("country code must be two letters")

	// ErrInvalidRegistrarType indicates an unrecognised registrar type.
	ErrInvalidRegistrarType = errors.New("unknown registrar type")

	// ErrInvalidRegistrarState indicates an unrecognised registrar state.
	ErrInvalidRegistrarState = errors.New("unknown registrar state")

	// ErrMissingIanaID indicates a REAL registrar without an IANA identifier.
	ErrMissingIanaID = errors.New("real registrars must have an iana identifier")
)

// Pipeline configuration errors
var (
	ErrUnknownKind        = errors.New("no decoder registered for kind")
	ErrInvalidWriterCount = errors.New("number of writers must be at least 1")
	ErrInvalidBatchSize   = errors.New("batch size must be at least 1")
	ErrNilFactory         = errors.New("transaction manager factory is nil")
	ErrNilManager         = errors.New("factory returned a nil transaction manager")
	ErrKindMismatch       = errors.New("record kind does not match stage kind")
	ErrEmptyPayload       = errors.New("payload is empty")
	ErrNoRecordSource     = errors.New("record source is nil")
)

// DecodeError means a record's payload could not be turned into an entity.
// The batch it belongs to is not committed. Version is the record's commit
// version and Position its zero-based index within the batch, or -1 when the
// record was decoded outside a batch.
type DecodeError struct {
	Kind     string
	Version  int64
	Position int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("decode %s version %d (batch position %d): %v", e.Kind, e.Version, e.Position, e.Err)
	}
	return fmt.Sprintf("decode %s version %d: %v", e.Kind, e.Version, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransactionError is the store-side failure raised by a transaction manager.
type TransactionError = committer.TransactionError

// ConfigurationError is raised before any record is processed when a stage
// cannot run as configured, or when a worker cannot obtain a transaction
// manager.
type ConfigurationError struct {
	Kind  string
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration of %s (%s): %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("configuration of %s: %v", e.Kind, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StageError records which writer of which kind failed.
type StageError struct {
	Kind   string
	Worker int
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("kind %s writer %d: %v", e.Kind, e.Worker, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func IsDecodeFailure(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func IsTransactionFailure(err error) bool {
	return committer.IsTransactionError(err)
}

func IsConfigurationFailure(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
