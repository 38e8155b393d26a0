package init_sql

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/usecases/write_to_sql"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/telemetry"
)

// KindConfig sizes one kind's writer pool.
type KindConfig struct {
	NumWriters int
	BatchSize  int
}

// Interactor runs one writer stage per kind, all kinds at once, and reports
// every kind's outcome. A failing kind never stops or rolls back another.
type Interactor struct {
	Decoders contracts.Decoders
	Factory  contracts.TransactionManagerFactory
	Clock    clock.Clock
}

func NewInteractor(decoders contracts.Decoders, factory contracts.TransactionManagerFactory, clk clock.Clock) *Interactor {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Interactor{
		Decoders: decoders,
		Factory:  factory,
		Clock:    clk,
	}
}

// Execute reads each kind from source and writes it to the target. It waits
// for every kind to finish.
func (it *Interactor) Execute(ctx context.Context, kinds map[string]KindConfig, source contracts.RecordSource) Report {
	report := Report{
		RunID:     uuid.New().String(),
		StartedAt: it.Clock.Now(),
	}
	logger := log.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("kinds", len(kinds)).Msg("Starting migration run")

	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]KindOutcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, kind string, cfg KindConfig) {
			defer wg.Done()
			outcomes[i] = it.runKind(ctx, kind, cfg, source)
		}(i, name, kinds[name])
	}
	wg.Wait()

	report.Outcomes = outcomes
	report.FinishedAt = it.Clock.Now()

	for _, o := range outcomes {
		ev := logger.Info()
		result := "success"
		if o.Err != nil {
			ev = logger.Error().Err(o.Err)
			result = "failed"
		}
		telemetry.KindRunsTotal.With(result).Inc()
		ev.Str("kind", o.Kind).Int("records", o.Records).Dur("duration", o.Duration).Msg("Kind finished")
	}
	if failed := report.Failed(); len(failed) > 0 {
		logger.Error().Strs("failed_kinds", failed).Msg("Migration run finished with failures")
	} else {
		logger.Info().Int("records", report.TotalRecords()).Msg("Migration run finished")
	}
	return report
}

func (it *Interactor) runKind(ctx context.Context, kind string, cfg KindConfig, source contracts.RecordSource) KindOutcome {
	began := time.Now()
	out := KindOutcome{Kind: kind}

	if source == nil {
		out.Err = &domain.ConfigurationError{Kind: kind, Field: "source", Err: domain.ErrNoRecordSource}
		out.Duration = time.Since(began)
		return out
	}

	records, err := source.Records(ctx, kind)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(began)
		return out
	}
	out.Records = len(records)

	stage := write_to_sql.NewInteractor(it.Decoders, it.Factory)
	out.Err = stage.Execute(ctx, write_to_sql.Request{
		Kind:       kind,
		NumWriters: cfg.NumWriters,
		BatchSize:  cfg.BatchSize,
	}, records)
	out.Duration = time.Since(began)
	return out
}
