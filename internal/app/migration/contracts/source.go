package contracts

import (
	"context"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
)

// RecordSource yields the bounded, replayable record sequence of a kind.
type RecordSource interface {
	Records(ctx context.Context, kind string) ([]domain.VersionedRecord, error)
}

// SourceStore is the legacy store: records can be captured into it as well as
// read back.
type SourceStore interface {
	RecordSource
	Capture(ctx context.Context, kind, naturalKey string, entity interface{}) (domain.VersionedRecord, error)
	Count(ctx context.Context, kind string) (int64, error)
}

// TargetReader reads back what the transaction managers wrote.
type TargetReader interface {
	CountRows(ctx context.Context, table string) (int64, error)
	LoadRow(ctx context.Context, table, keyColumn string, key interface{}) (map[string]interface{}, error)
}
