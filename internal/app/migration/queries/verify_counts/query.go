package verify_counts

import (
	"context"
)

// SourceCounter counts the entities of a kind in the legacy store.
type SourceCounter interface {
	Count(ctx context.Context, kind string) (int64, error)
}
