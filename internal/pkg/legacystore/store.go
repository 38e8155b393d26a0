// Package legacystore is the non-relational store entities are migrated out
// of. Every entity is kept under /entity/{kind}/{naturalKey} together with the
// commit version it was last captured at.
package legacystore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/pkg/clock"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// Key prefixes for Pebble storage
const (
	prefixEntity  = "/entity/"  // /entity/{kind}/{naturalKey}
	keyVersionSeq = "/meta/ver" // /meta/ver -> int64 (last commit version)
)

var (
	ErrNotFound    = errors.New("legacystore: entity not found")
	ErrInvalidKind = errors.New("legacystore: kind must be non-empty and must not contain '/'")
	ErrEmptyKey    = errors.New("legacystore: natural key cannot be empty")
	ErrClosed      = errors.New("legacystore: store is closed")
)

// envelope is the stored value before compression.
type envelope struct {
	CommitVersion int64  `json:"v"`
	Payload       []byte `json:"p"`
}

// Store is a Pebble-backed entity store. Payloads are encoded with the
// store's codec; values on disk are zstd-compressed msgpack envelopes.
// It is safe for concurrent use.
type Store struct {
	db    *pebble.DB
	path  string
	codec encoding.Codec
	clock clock.Clock

	mu          sync.RWMutex
	lastVersion int64
	closed      bool
}

// Open creates or opens the store at path. A nil codec means msgpack and a
// nil clock means the wall clock.
func Open(path string, codec encoding.Codec, clk clock.Clock) (*Store, error) {
	if codec == nil {
		codec = encoding.Msgpack
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy store at %s: %w", path, err)
	}

	s := &Store{db: db, path: path, codec: codec, clock: clk}
	if err := s.loadLastVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load commit version: %w", err)
	}
	return s, nil
}

func (s *Store) loadLastVersion() error {
	val, closer, err := s.db.Get([]byte(keyVersionSeq))
	if err == pebble.ErrNotFound {
		s.lastVersion = 0
		return nil
	}
	if err != nil {
		return err
	}
	defer closer.Close()

	if len(val) != 8 {
		return fmt.Errorf("invalid commit version length: %d", len(val))
	}
	s.lastVersion = int64(binary.BigEndian.Uint64(val))
	return nil
}

func (s *Store) Codec() encoding.Codec {
	return s.codec
}

func (s *Store) Path() string {
	return s.path
}

func entityPrefix(kind string) []byte {
	return []byte(prefixEntity + kind + "/")
}

func entityKey(kind, naturalKey string) []byte {
	return []byte(prefixEntity + kind + "/" + naturalKey)
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func validateKind(kind string) error {
	if kind == "" || strings.Contains(kind, "/") {
		return ErrInvalidKind
	}
	return nil
}

// nextVersion returns a commit version strictly greater than every version
// handed out before, following the clock when it moves forward. Caller holds mu.
func (s *Store) nextVersion() int64 {
	v := s.clock.Now().UnixMicro()
	if v <= s.lastVersion {
		v = s.lastVersion + 1
	}
	return v
}

// Capture encodes entity with the store codec and writes it as the current
// version of kind/naturalKey, replacing any earlier capture.
func (s *Store) Capture(ctx context.Context, kind, naturalKey string, entity interface{}) (domain.VersionedRecord, error) {
	payload, err := s.codec.Marshal(entity)
	if err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("legacystore: encode %s %q: %w", kind, naturalKey, err)
	}
	return s.CapturePayload(ctx, kind, naturalKey, payload)
}

// CapturePayload stores an already encoded payload.
func (s *Store) CapturePayload(ctx context.Context, kind, naturalKey string, payload []byte) (domain.VersionedRecord, error) {
	if err := validateKind(kind); err != nil {
		return domain.VersionedRecord{}, err
	}
	if naturalKey == "" {
		return domain.VersionedRecord{}, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return domain.VersionedRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.VersionedRecord{}, ErrClosed
	}

	version := s.nextVersion()
	raw, err := encoding.Msgpack.Marshal(&envelope{CommitVersion: version, Payload: payload})
	if err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("legacystore: encode envelope: %w", err)
	}
	val, err := encoding.Compress(raw)
	if err != nil {
		return domain.VersionedRecord{}, err
	}

	seqBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBuf, uint64(version))

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(entityKey(kind, naturalKey), val, pebble.Sync); err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("failed to write entity: %w", err)
	}
	if err := batch.Set([]byte(keyVersionSeq), seqBuf, pebble.Sync); err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("failed to write commit version: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("failed to commit capture: %w", err)
	}

	s.lastVersion = version
	return domain.NewVersionedRecord(kind, version, payload), nil
}

func decodeValue(kind string, val []byte) (domain.VersionedRecord, error) {
	raw, err := encoding.Decompress(val)
	if err != nil {
		return domain.VersionedRecord{}, err
	}
	var env envelope
	if err := encoding.Msgpack.Unmarshal(raw, &env); err != nil {
		return domain.VersionedRecord{}, fmt.Errorf("legacystore: decode envelope: %w", err)
	}
	return domain.NewVersionedRecord(kind, env.CommitVersion, env.Payload), nil
}

// Load returns the current capture of kind/naturalKey.
func (s *Store) Load(ctx context.Context, kind, naturalKey string) (domain.VersionedRecord, error) {
	if err := validateKind(kind); err != nil {
		return domain.VersionedRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.VersionedRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.VersionedRecord{}, ErrClosed
	}

	val, closer, err := s.db.Get(entityKey(kind, naturalKey))
	if err == pebble.ErrNotFound {
		return domain.VersionedRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.VersionedRecord{}, err
	}
	defer closer.Close()

	return decodeValue(kind, val)
}

// Records returns the current snapshot of kind ordered by natural key. The
// result is bounded and can be replayed.
func (s *Store) Records(ctx context.Context, kind string) ([]domain.VersionedRecord, error) {
	out := make([]domain.VersionedRecord, 0)
	err := s.scan(ctx, kind, func(_ string, val []byte) error {
		rec, err := decodeValue(kind, val)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many entities of kind are stored.
func (s *Store) Count(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := s.scan(ctx, kind, func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Keys returns the natural keys of kind in order.
func (s *Store) Keys(ctx context.Context, kind string) ([]string, error) {
	keys := make([]string, 0)
	err := s.scan(ctx, kind, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func (s *Store) scan(ctx context.Context, kind string, fn func(naturalKey string, val []byte) error) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	prefix := entityPrefix(kind)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := string(iter.Key()[len(prefix):])
		val, err := iter.ValueAndErr()
		if err != nil {
			return err
		}
		if err := fn(key, val); err != nil {
			return fmt.Errorf("legacystore: %s %q: %w", kind, key, err)
		}
	}
	return iter.Error()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	log.Debug().Str("path", s.path).Int64("last_version", s.lastVersion).Msg("Closing legacy store")
	return s.db.Close()
}
