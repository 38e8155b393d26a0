package committer

import (
	"context"
	"errors"
	"time"

	"github.com/nzb155/nomulus/internal/pkg/clock"
)

// ErrNoTransaction is returned by TransactionTime and Upsert when they are
// called outside of Transact.
var ErrNoTransaction = errors.New("committer: no transaction in progress")

// ErrRowNotFound is returned by LoadRow on the SQL and GORM managers.
var ErrRowNotFound = errors.New("committer: row not found")

// TransactionManager runs units of work atomically against a target store.
//
// A manager is owned by a single goroutine and is not safe for concurrent
// use. Writers get their own instance from a factory.
type TransactionManager interface {
	// Transact runs work so that either every upsert it performs becomes
	// visible or none does. A Transact call made from inside work joins the
	// running transaction. Store rejections are returned as *TransactionError.
	Transact(ctx context.Context, work func(ctx context.Context) error) error

	// TransactionTime returns the time every entity saved by the running
	// transaction is stamped with.
	TransactionTime() (time.Time, error)

	// Upsert stamps e with the transaction time and inserts it, or overwrites
	// the existing row with the same key.
	Upsert(ctx context.Context, e Entity) error

	Close() error
}

// TransactResult runs work in a transaction and returns its result. The zero
// value is returned when the transaction does not commit.
func TransactResult[T any](ctx context.Context, tm TransactionManager, work func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := tm.Transact(ctx, func(ctx context.Context) error {
		v, err := work(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// txState is the per-manager bookkeeping shared by every store implementation:
// whether a transaction is open, its time, and the rows it has buffered.
type txState struct {
	clock  clock.Clock
	active bool
	time   time.Time
	plan   *Plan
}

func newTxState(clk clock.Clock) txState {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return txState{clock: clk}
}

// transact opens a transaction, runs work, and hands the buffered plan to apply
// if work succeeded. Nested calls run work inside the outer transaction.
func (s *txState) transact(ctx context.Context, work func(ctx context.Context) error, apply func(ctx context.Context, plan *Plan) error) error {
	if s.active {
		return work(ctx)
	}

	s.active = true
	s.time = s.clock.Now().UTC()
	s.plan = NewPlan()
	defer func() {
		s.active = false
		s.time = time.Time{}
		s.plan = nil
	}()

	if err := work(ctx); err != nil {
		return err
	}
	if s.plan.IsEmpty() {
		return nil
	}
	return apply(ctx, s.plan)
}

func (s *txState) transactionTime() (time.Time, error) {
	if !s.active {
		return time.Time{}, ErrNoTransaction
	}
	return s.time, nil
}

func (s *txState) upsert(e Entity) error {
	if !s.active {
		return ErrNoTransaction
	}
	e.PrepareForSave(s.time)
	row := e.Row()
	if err := row.Validate(); err != nil {
		return err
	}
	s.plan.Add(row)
	return nil
}
