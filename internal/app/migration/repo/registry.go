package repo

import (
	"sort"

	"github.com/nzb155/nomulus/internal/app/migration/contracts"
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// Registry maps record kinds to their decoders. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	decoders map[string]contracts.KindDecoder
}

// NewRegistry registers the contact and registrar decoders for codec, plus
// any extra decoders.
func NewRegistry(codec encoding.Codec, extra ...contracts.KindDecoder) *Registry {
	if codec == nil {
		codec = encoding.Msgpack
	}
	r := &Registry{decoders: make(map[string]contracts.KindDecoder)}
	r.decoders[domain.KindContact] = NewContactDecoder(codec)
	r.decoders[domain.KindRegistrar] = NewRegistrarDecoder(codec)
	for _, d := range extra {
		r.decoders[d.Kind()] = d
	}
	return r
}

func (r *Registry) Decoder(kind string) (contracts.KindDecoder, bool) {
	d, ok := r.decoders[kind]
	return d, ok
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.decoders))
	for k := range r.decoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Decode decodes rec with the decoder of its kind. Every failure is a
// *domain.DecodeError.
func (r *Registry) Decode(rec domain.VersionedRecord) (committer.Entity, error) {
	d, ok := r.decoders[rec.Kind()]
	if !ok {
		return nil, decodeError(rec, domain.ErrUnknownKind)
	}
	if len(rec.Payload()) == 0 {
		return nil, decodeError(rec, domain.ErrEmptyPayload)
	}
	e, err := d.Decode(rec.Payload())
	if err != nil {
		return nil, decodeError(rec, err)
	}
	return e, nil
}

func decodeError(rec domain.VersionedRecord, err error) *domain.DecodeError {
	return &domain.DecodeError{Kind: rec.Kind(), Version: rec.CommitVersion(), Position: -1, Err: err}
}
