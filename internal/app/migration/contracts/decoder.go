package contracts

import (
	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// KindDecoder turns the payload of one record kind into a persistable entity.
type KindDecoder interface {
	Kind() string
	Table() string
	KeyColumn() string
	Decode(payload []byte) (committer.Entity, error)
}

// Decoders knows every kind that can be migrated. Decode failures are
// reported as *domain.DecodeError.
type Decoders interface {
	Decoder(kind string) (KindDecoder, bool)
	Kinds() []string
	Decode(rec domain.VersionedRecord) (committer.Entity, error)
}
