package init_sql

import (
	"errors"
	"fmt"
	"time"
)

// KindOutcome is how one kind's stage ended. Err is nil on success.
type KindOutcome struct {
	Kind     string
	Records  int
	Duration time.Duration
	Err      error
}

func (o KindOutcome) Succeeded() bool {
	return o.Err == nil
}

// Report lists the outcome of every kind of a run, sorted by kind.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []KindOutcome
}

// Failed returns the kinds whose stage failed.
func (r Report) Failed() []string {
	out := make([]string, 0)
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o.Kind)
		}
	}
	return out
}

func (r Report) Succeeded() bool {
	return len(r.Failed()) == 0
}

// Err joins the failures of every failed kind, or returns nil.
func (r Report) Err() error {
	errs := make([]error, 0)
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Kind, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Outcome returns the outcome of kind.
func (r Report) Outcome(kind string) (KindOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			return o, true
		}
	}
	return KindOutcome{}, false
}

func (r Report) TotalRecords() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Records
	}
	return n
}
