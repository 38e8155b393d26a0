// Package admin serves the operator endpoints of a migration run: liveness,
// Prometheus metrics, the run report and on-demand count verification.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/pkg/telemetry"
)

// Verifier compares source and target counts per kind.
type Verifier interface {
	Execute(ctx context.Context, kinds []string) ([]dto.KindCountDTO, error)
}

// Handlers holds what the admin endpoints read from. Verifier may be nil.
type Handlers struct {
	Reports  *ReportHolder
	Verifier Verifier
	Kinds    []string
}

// NewRouter returns the chi router for the admin endpoints.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)

	r.Route("/report", func(r chi.Router) {
		r.Get("/", h.handleReport)
		r.Get("/{kind}", h.handleKindOutcome)
	})

	r.Get("/verify", h.handleVerify)
	return r
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	mh := telemetry.GetMetricsHandler()
	if mh == nil {
		writeError(w, http.StatusNotFound, "metrics are disabled")
		return
	}
	mh.ServeHTTP(w, r)
}

func (h *Handlers) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := h.Reports.Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no run has finished yet")
		return
	}
	writeJSON(w, http.StatusOK, mapReport(report))
}

func (h *Handlers) handleKindOutcome(w http.ResponseWriter, r *http.Request) {
	report, ok := h.Reports.Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no run has finished yet")
		return
	}
	kind := chi.URLParam(r, "kind")
	o, ok := report.Outcome(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "kind "+kind+" was not part of the run")
		return
	}
	writeJSON(w, http.StatusOK, mapOutcome(o))
}

// handleVerify accepts an optional comma-separated kind query parameter and
// defaults to every configured kind.
func (h *Handlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeError(w, http.StatusNotImplemented, "verification is not configured")
		return
	}
	kinds := h.Kinds
	if q := strings.TrimSpace(r.URL.Query().Get("kind")); q != "" {
		kinds = strings.Split(q, ",")
	}

	counts, err := h.Verifier.Execute(r.Context(), kinds)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": counts})
}
