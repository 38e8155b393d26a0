package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// ErrConcurrentUse is recorded when a tracked manager is entered by two
// goroutines at once.
var ErrConcurrentUse = errors.New("testutil: transaction manager used concurrently")

// TrackingFactory wraps a factory and records how many managers were created,
// how many were open at the same time, and whether any was used concurrently.
type TrackingFactory struct {
	inner contracts.TransactionManagerFactory

	mu        sync.Mutex
	created   int
	open      int
	maxOpen   int
	violation error
	failNext  error
}

func NewTrackingFactory(inner contracts.TransactionManagerFactory) *TrackingFactory {
	return &TrackingFactory{inner: inner}
}

// FailWith makes every subsequent call fail with err.
func (f *TrackingFactory) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

// Factory is the function to hand to the code under test.
func (f *TrackingFactory) Factory() (committer.TransactionManager, error) {
	f.mu.Lock()
	if f.failNext != nil {
		err := f.failNext
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	tm, err := f.inner()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.created++
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	f.mu.Unlock()
	return &trackedManager{inner: tm, factory: f}, nil
}

func (f *TrackingFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func (f *TrackingFactory) MaxOpen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxOpen
}

func (f *TrackingFactory) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Violation returns ErrConcurrentUse if any manager was shared between goroutines.
func (f *TrackingFactory) Violation() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violation
}

func (f *TrackingFactory) closed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open--
}

func (f *TrackingFactory) report(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.violation == nil {
		f.violation = err
	}
}

type trackedManager struct {
	inner   committer.TransactionManager
	factory *TrackingFactory
	inUse   atomic.Int32
	depth   int
}

func (m *trackedManager) Transact(ctx context.Context, work func(ctx context.Context) error) error {
	if m.depth == 0 {
		if !m.inUse.CompareAndSwap(0, 1) {
			m.factory.report(ErrConcurrentUse)
		}
		// Widen the window in which overlapping use would be seen.
		time.Sleep(time.Millisecond)
		defer m.inUse.Store(0)
	}
	m.depth++
	defer func() { m.depth-- }()
	return m.inner.Transact(ctx, work)
}

func (m *trackedManager) TransactionTime() (time.Time, error) {
	return m.inner.TransactionTime()
}

func (m *trackedManager) Upsert(ctx context.Context, e committer.Entity) error {
	return m.inner.Upsert(ctx, e)
}

func (m *trackedManager) Close() error {
	m.factory.closed()
	return m.inner.Close()
}
