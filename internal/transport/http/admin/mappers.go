package admin

import (
	"time"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/usecases/init_sql"
)

type outcomeResponse struct {
	Kind       string  `json:"kind"`
	Records    int     `json:"records"`
	DurationMS float64 `json:"duration_ms"`
	Succeeded  bool    `json:"succeeded"`
	Failure    string  `json:"failure,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type reportResponse struct {
	RunID        string            `json:"run_id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Succeeded    bool              `json:"succeeded"`
	TotalRecords int               `json:"total_records"`
	Failed       []string          `json:"failed"`
	Outcomes     []outcomeResponse `json:"outcomes"`
}

// failureClass names the family of a stage failure.
func failureClass(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsConfigurationFailure(err):
		return "configuration"
	case domain.IsDecodeFailure(err):
		return "decode"
	case domain.IsTransactionFailure(err):
		return "transaction"
	default:
		return "other"
	}
}

func mapOutcome(o init_sql.KindOutcome) outcomeResponse {
	out := outcomeResponse{
		Kind:       o.Kind,
		Records:    o.Records,
		DurationMS: float64(o.Duration) / float64(time.Millisecond),
		Succeeded:  o.Succeeded(),
		Failure:    failureClass(o.Err),
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return out
}

func mapReport(r init_sql.Report) reportResponse {
	out := reportResponse{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt.UTC(),
		FinishedAt:   r.FinishedAt.UTC(),
		Succeeded:    r.Succeeded(),
		TotalRecords: r.TotalRecords(),
		Failed:       r.Failed(),
		Outcomes:     make([]outcomeResponse, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		out.Outcomes = append(out.Outcomes, mapOutcome(o))
	}
	return out
}
