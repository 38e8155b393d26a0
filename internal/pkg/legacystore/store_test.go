package legacystore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

type note struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

func openStore(t *testing.T, path string, codec encoding.Codec, clk clock.Clock) *Store {
	t.Helper()
	s, err := Open(path, codec, clk)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCapture_RecordsOrderedByKey(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, clock.NewFake(time.Unix(1000, 0)))

	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Capture(ctx, "Note", id, note{ID: id, Text: "text " + id})
		require.NoError(t, err)
	}
	_, err := s.Capture(ctx, "Other", "a", note{ID: "other"})
	require.NoError(t, err)

	recs, err := s.Records(ctx, "Note")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		assert.Equal(t, "Note", r.Kind())
		var n note
		require.NoError(t, encoding.Msgpack.Unmarshal(r.Payload(), &n))
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	keys, err := s.Keys(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	n, err := s.Count(ctx, "Other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCapture_VersionsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	// The clock never moves, so versions must be bumped.
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, clock.NewFake(time.Unix(1000, 0)))

	var last int64
	for i := 0; i < 5; i++ {
		rec, err := s.Capture(ctx, "Note", "same", note{ID: "same"})
		require.NoError(t, err)
		assert.Greater(t, rec.CommitVersion(), last)
		last = rec.CommitVersion()
	}
	assert.Equal(t, time.Unix(1000, 0).UnixMicro()+4, last)

	loaded, err := s.Load(ctx, "Note", "same")
	require.NoError(t, err)
	assert.Equal(t, last, loaded.CommitVersion())

	n, err := s.Count(ctx, "Note")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReopen_KeepsVersionsMonotonic(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy")
	clk := clock.NewFake(time.Unix(2000, 0))

	s, err := Open(path, nil, clk)
	require.NoError(t, err)
	first, err := s.Capture(ctx, "Note", "a", note{ID: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Clock goes backwards across the restart.
	clk.Set(time.Unix(10, 0))
	s2 := openStore(t, path, nil, clk)
	second, err := s2.Capture(ctx, "Note", "b", note{ID: "b"})
	require.NoError(t, err)
	assert.Greater(t, second.CommitVersion(), first.CommitVersion())

	recs, err := s2.Records(ctx, "Note")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCapture_CBORCodec(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), encoding.CBOR, nil)
	at := time.Date(2020, 5, 6, 7, 8, 9, 123, time.UTC)

	_, err := s.Capture(ctx, "Note", "a", note{ID: "a", At: at})
	require.NoError(t, err)

	rec, err := s.Load(ctx, "Note", "a")
	require.NoError(t, err)
	var n note
	require.NoError(t, s.Codec().Unmarshal(rec.Payload(), &n))
	assert.True(t, n.At.Equal(at))
}

func TestLoad_Missing(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, nil)
	_, err := s.Load(context.Background(), "Note", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCapture_RejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, nil)

	_, err := s.Capture(ctx, "", "a", note{})
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = s.Capture(ctx, "a/b", "a", note{})
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = s.Capture(ctx, "Note", "", note{})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestRecords_CorruptValue(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, nil)
	require.NoError(t, s.db.Set(entityKey("Note", "broken"), []byte("garbage"), pebble.Sync))

	_, err := s.Records(ctx, "Note")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRecords_CancelledContext(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "legacy"), nil, nil)
	_, err := s.Capture(context.Background(), "Note", "a", note{ID: "a"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Records(ctx, "Note")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCapture_AfterClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "legacy"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Capture(context.Background(), "Note", "a", note{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReads_AfterClose(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "legacy"), nil, nil)
	require.NoError(t, err)
	_, err = s.Capture(ctx, "Note", "a", note{ID: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Records(ctx, "Note")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Count(ctx, "Note")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Keys(ctx, "Note")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Load(ctx, "Note", "a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("/entity/Notf"), prefixUpperBound([]byte("/entity/Note")))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff}))
}
