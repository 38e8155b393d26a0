package write_to_sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/telemetry"
)

// Request configures one writer stage.
type Request struct {
	Kind       string
	NumWriters int
	BatchSize  int
}

// Interactor writes the records of one kind to the target store through a
// bounded pool of writers. Each writer owns its own transaction manager and
// commits its records in batches, one transaction per batch.
type Interactor struct {
	Decoders contracts.Decoders
	Factory  contracts.TransactionManagerFactory
}

func NewInteractor(decoders contracts.Decoders, factory contracts.TransactionManagerFactory) *Interactor {
	return &Interactor{
		Decoders: decoders,
		Factory:  factory,
	}
}

func (it *Interactor) validate(req Request, records []domain.VersionedRecord) error {
	if it.Decoders == nil {
		return &domain.ConfigurationError{Kind: req.Kind, Field: "decoders", Err: domain.ErrUnknownKind}
	}
	if _, ok := it.Decoders.Decoder(req.Kind); !ok {
		return &domain.ConfigurationError{Kind: req.Kind, Field: "kind", Err: domain.ErrUnknownKind}
	}
	if req.NumWriters < 1 {
		return &domain.ConfigurationError{Kind: req.Kind, Field: "writers", Err: fmt.Errorf("%w (got %d)", domain.ErrInvalidWriterCount, req.NumWriters)}
	}
	if req.BatchSize < 1 {
		return &domain.ConfigurationError{Kind: req.Kind, Field: "batch_size", Err: fmt.Errorf("%w (got %d)", domain.ErrInvalidBatchSize, req.BatchSize)}
	}
	if it.Factory == nil {
		return &domain.ConfigurationError{Kind: req.Kind, Field: "factory", Err: domain.ErrNilFactory}
	}
	for i, rec := range records {
		if rec.Kind() != req.Kind {
			return &domain.ConfigurationError{Kind: req.Kind, Field: "records", Err: fmt.Errorf("%w: record %d is %q", domain.ErrKindMismatch, i, rec.Kind())}
		}
	}
	return nil
}

// shard assigns every record to exactly one writer by hashing its payload.
// Records keep their receipt order within a shard.
func shard(records []domain.VersionedRecord, writers int) [][]domain.VersionedRecord {
	shards := make([][]domain.VersionedRecord, writers)
	for _, rec := range records {
		i := xxhash.Sum64(rec.Payload()) % uint64(writers)
		shards[i] = append(shards[i], rec)
	}
	return shards
}

// Execute writes records and returns once every writer has finished. Invalid
// configuration, including a factory that fails, is reported before any
// record is processed. A failing writer stops at its failing batch while the
// other writers carry on; the first failure observed is returned.
func (it *Interactor) Execute(ctx context.Context, req Request, records []domain.VersionedRecord) error {
	if err := it.validate(req, records); err != nil {
		return err
	}

	shards := shard(records, req.NumWriters)
	managers, err := it.openManagers(req.Kind, shards)
	if err != nil {
		log.Error().Err(err).Str("kind", req.Kind).Msg("Could not create transaction managers")
		return err
	}

	log.Info().
		Str("kind", req.Kind).
		Int("writers", req.NumWriters).
		Int("batch_size", req.BatchSize).
		Int("records", len(records)).
		Msg("Starting writer stage")

	var g errgroup.Group
	for i, recs := range shards {
		if len(recs) == 0 {
			continue
		}
		worker, recs, tm := i, recs, managers[i]
		g.Go(func() error {
			if err := it.runWriter(ctx, req, worker, tm, recs); err != nil {
				return &domain.StageError{Kind: req.Kind, Worker: worker, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("kind", req.Kind).Msg("Writer stage failed")
		return err
	}

	log.Info().Str("kind", req.Kind).Int("records", len(records)).Msg("Writer stage finished")
	return nil
}

// openManagers builds one manager per non-empty shard. Writers with nothing
// to write never call the factory. If any call fails, the managers already
// built are closed.
func (it *Interactor) openManagers(kind string, shards [][]domain.VersionedRecord) ([]committer.TransactionManager, error) {
	managers := make([]committer.TransactionManager, len(shards))

	var g errgroup.Group
	for i, recs := range shards {
		if len(recs) == 0 {
			continue
		}
		worker := i
		g.Go(func() error {
			tm, err := it.Factory()
			if err == nil && tm == nil {
				err = domain.ErrNilManager
			}
			if err != nil {
				return &domain.StageError{Kind: kind, Worker: worker, Err: &domain.ConfigurationError{Kind: kind, Field: "factory", Err: err}}
			}
			managers[worker] = tm
			telemetry.ManagersCreatedTotal.With(kind).Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, tm := range managers {
			if tm != nil {
				_ = tm.Close()
			}
		}
		return nil, err
	}
	return managers, nil
}

func (it *Interactor) runWriter(ctx context.Context, req Request, worker int, tm committer.TransactionManager, recs []domain.VersionedRecord) error {
	telemetry.ActiveWriters.With(req.Kind).Inc()
	defer telemetry.ActiveWriters.With(req.Kind).Dec()
	defer func() {
		if cerr := tm.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("kind", req.Kind).Int("worker", worker).Msg("Closing transaction manager failed")
		}
	}()

	for start, batchNo := 0, 0; start < len(recs); start, batchNo = start+req.BatchSize, batchNo+1 {
		end := start + req.BatchSize
		if end > len(recs) {
			end = len(recs)
		}

		if err := ctx.Err(); err != nil {
			it.notAttempted(req.Kind, worker, len(recs)-start)
			return err
		}

		began := time.Now()
		err := tm.Transact(ctx, func(ctx context.Context) error {
			for i, rec := range recs[start:end] {
				e, err := it.Decoders.Decode(rec)
				if err != nil {
					var de *domain.DecodeError
					if errors.As(err, &de) {
						de.Position = i
					}
					return err
				}
				if err := tm.Upsert(ctx, e); err != nil {
					return err
				}
			}
			return nil
		})
		telemetry.BatchDurationSeconds.With(req.Kind).Observe(time.Since(began).Seconds())

		if err != nil {
			result := "tx_failed"
			if domain.IsDecodeFailure(err) {
				result = "decode_failed"
			}
			telemetry.BatchesTotal.With(req.Kind, result).Inc()
			it.notAttempted(req.Kind, worker, len(recs)-start)
			return fmt.Errorf("batch %d: %w", batchNo, err)
		}

		telemetry.BatchesTotal.With(req.Kind, "committed").Inc()
		telemetry.RecordsWrittenTotal.With(req.Kind).Add(float64(end - start))
		log.Debug().
			Str("kind", req.Kind).
			Int("worker", worker).
			Int("batch", batchNo).
			Int("records", end-start).
			Msg("Batch committed")
	}
	return nil
}

// notAttempted accounts for the records a stopped writer leaves unwritten,
// counting the failed batch.
func (it *Interactor) notAttempted(kind string, worker, n int) {
	if n <= 0 {
		return
	}
	telemetry.RecordsNotAttemptedTotal.With(kind).Add(float64(n))
	log.Warn().Str("kind", kind).Int("worker", worker).Int("records", n).Msg("Writer stopped, records not written")
}
