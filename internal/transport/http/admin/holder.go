package admin

import (
	"sync"

	"github.com/nzb155/nomulus/internal/app/migration/usecases/init_sql"
)

// ReportHolder keeps the report of the latest run for the admin endpoints.
type ReportHolder struct {
	mu     sync.RWMutex
	report *init_sql.Report
}

func (h *ReportHolder) Set(r init_sql.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.report = &r
}

// Get returns the latest report, or false before the first run finished.
func (h *ReportHolder) Get() (init_sql.Report, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.report == nil {
		return init_sql.Report{}, false
	}
	return *h.report, true
}
