package export_source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
)

// Handler reads the snapshot of a kind from the legacy store. It satisfies
// contracts.RecordSource so the driver can read through it.
type Handler struct {
	source contracts.RecordSource
}

func NewHandler(source contracts.RecordSource) *Handler {
	return &Handler{source: source}
}

// Execute returns the records of kind and a summary of them.
func (h *Handler) Execute(ctx context.Context, kind string) ([]domain.VersionedRecord, Summary, error) {
	records, err := h.source.Records(ctx, kind)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("export %s: %w", kind, err)
	}
	for i, rec := range records {
		if rec.Kind() != kind {
			return nil, Summary{}, fmt.Errorf("export %s: record %d has kind %q", kind, i, rec.Kind())
		}
	}

	s := summarize(kind, records)
	log.Info().
		Str("kind", kind).
		Int("records", s.Records).
		Int64("min_version", s.MinVersion).
		Int64("max_version", s.MaxVersion).
		Msg("Exported kind from legacy store")
	return records, s, nil
}

func (h *Handler) Records(ctx context.Context, kind string) ([]domain.VersionedRecord, error) {
	records, _, err := h.Execute(ctx, kind)
	return records, err
}
