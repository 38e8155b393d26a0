package contracts

import (
	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// TransactionManagerFactory builds a new, independent transaction manager.
// Writers call it at most once each and never share the result, so it must be
// safe to call from several goroutines at once.
type TransactionManagerFactory func() (committer.TransactionManager, error)
