package verify_counts

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
)

// Handler compares, per kind, the number of entities in the legacy store with
// the number of rows in the kind's target table.
type Handler struct {
	source   SourceCounter
	target   contracts.TargetReader
	decoders contracts.Decoders
}

func NewHandler(source SourceCounter, target contracts.TargetReader, decoders contracts.Decoders) *Handler {
	return &Handler{source: source, target: target, decoders: decoders}
}

// Execute returns one comparison per kind, in the order given. A mismatch is
// a result, not an error.
func (h *Handler) Execute(ctx context.Context, kinds []string) ([]dto.KindCountDTO, error) {
	out := make([]dto.KindCountDTO, 0, len(kinds))
	for _, kind := range kinds {
		d, ok := h.decoders.Decoder(kind)
		if !ok {
			return nil, fmt.Errorf("verify %s: %w", kind, domain.ErrUnknownKind)
		}

		src, err := h.source.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("verify %s: count source: %w", kind, err)
		}
		dst, err := h.target.CountRows(ctx, d.Table())
		if err != nil {
			return nil, fmt.Errorf("verify %s: count target: %w", kind, err)
		}

		c := dto.KindCountDTO{Kind: kind, Table: d.Table(), Source: src, Target: dst, Match: src == dst}
		ev := log.Info()
		if !c.Match {
			ev = log.Warn()
		}
		ev.Str("kind", kind).Int64("source", src).Int64("target", dst).Bool("match", c.Match).Msg("Verified row count")
		out = append(out, c)
	}
	return out, nil
}

// AllMatch reports whether every comparison matched.
func AllMatch(counts []dto.KindCountDTO) bool {
	for _, c := range counts {
		if !c.Match {
			return false
		}
	}
	return true
}
