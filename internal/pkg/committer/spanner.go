package committer

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	sppb "cloud.google.com/go/spanner/apiv1/spannerpb"
	"google.golang.org/api/iterator"

	"github.com/nzb155/nomulus/internal/pkg/clock"
)

// SpannerManager is a TransactionManager that applies each plan in a single
// Spanner read-write transaction using InsertOrUpdate mutations.
type SpannerManager struct {
	client *spanner.Client
	owned  bool
	state  txState
}

// NewSpannerManager wraps an existing client. Close does not close it.
func NewSpannerManager(client *spanner.Client, clk clock.Clock) *SpannerManager {
	return &SpannerManager{client: client, state: newTxState(clk)}
}

// OpenSpannerManager dials its own client for database
// (projects/<p>/instances/<i>/databases/<d>). Close closes it.
func OpenSpannerManager(ctx context.Context, database string, clk clock.Clock) (*SpannerManager, error) {
	client, err := spanner.NewClient(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("committer: spanner.NewClient: %w", err)
	}
	m := NewSpannerManager(client, clk)
	m.owned = true
	return m, nil
}

func (m *SpannerManager) Transact(ctx context.Context, work func(ctx context.Context) error) error {
	return m.state.transact(ctx, work, m.apply)
}

func (m *SpannerManager) TransactionTime() (time.Time, error) {
	return m.state.transactionTime()
}

func (m *SpannerManager) Upsert(_ context.Context, e Entity) error {
	return m.state.upsert(e)
}

func (m *SpannerManager) apply(ctx context.Context, plan *Plan) error {
	if m.client == nil {
		return fmt.Errorf("committer: spanner client is nil")
	}

	muts := make([]*spanner.Mutation, 0, plan.Len())
	for _, r := range plan.Rows() {
		muts = append(muts, spanner.InsertOrUpdate(r.Table, r.Columns(), r.OrderedValues()))
	}

	_, err := m.client.ReadWriteTransaction(ctx, func(ctx context.Context, tx *spanner.ReadWriteTransaction) error {
		return tx.BufferWrite(muts)
	})
	if err != nil {
		return newTransactionError(classifySpanner(err), err)
	}
	return nil
}

// CountRows returns the number of rows in table.
func (m *SpannerManager) CountRows(ctx context.Context, table string) (int64, error) {
	stmt := spanner.Statement{SQL: fmt.Sprintf("SELECT COUNT(*) FROM `%s`", table)}
	iter := m.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Columns(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadRow reads the row whose keyColumn equals key. Missing rows return
// spanner.ErrRowNotFound.
func (m *SpannerManager) LoadRow(ctx context.Context, table, keyColumn string, key interface{}) (map[string]interface{}, error) {
	stmt := spanner.Statement{
		SQL:    fmt.Sprintf("SELECT * FROM `%s` WHERE `%s` = @key", table, keyColumn),
		Params: map[string]interface{}{"key": key},
	}
	iter := m.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, spanner.ErrRowNotFound
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, row.Size())
	for i, name := range row.ColumnNames() {
		var gcv spanner.GenericColumnValue
		if err := row.Column(i, &gcv); err != nil {
			return nil, err
		}
		v, err := decodeSpannerValue(gcv)
		if err != nil {
			return nil, fmt.Errorf("committer: column %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func decodeSpannerValue(gcv spanner.GenericColumnValue) (interface{}, error) {
	switch gcv.Type.GetCode() {
	case sppb.TypeCode_INT64:
		var v spanner.NullInt64
		if err := gcv.Decode(&v); err != nil || !v.Valid {
			return nil, err
		}
		return v.Int64, nil
	case sppb.TypeCode_BOOL:
		var v spanner.NullBool
		if err := gcv.Decode(&v); err != nil || !v.Valid {
			return nil, err
		}
		return v.Bool, nil
	case sppb.TypeCode_TIMESTAMP:
		var v spanner.NullTime
		if err := gcv.Decode(&v); err != nil || !v.Valid {
			return nil, err
		}
		return v.Time.UTC(), nil
	default:
		var v spanner.NullString
		if err := gcv.Decode(&v); err != nil || !v.Valid {
			return nil, err
		}
		return v.StringVal, nil
	}
}

func (m *SpannerManager) Close() error {
	if m.owned && m.client != nil {
		m.client.Close()
	}
	return nil
}
