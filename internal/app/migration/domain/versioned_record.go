package domain

// VersionedRecord is one entity as captured from the legacy store: its kind,
// the commit version it was captured at, and its opaque encoded payload.
// Records are values and are never changed after capture.
type VersionedRecord struct {
	kind          string
	commitVersion int64
	payload       []byte
}

// NewVersionedRecord copies payload so later changes by the caller are not seen.
func NewVersionedRecord(kind string, commitVersion int64, payload []byte) VersionedRecord {
	p := make([]byte, len(payload))
	copy(p, payload)
	return VersionedRecord{
		kind:          kind,
		commitVersion: commitVersion,
		payload:       p,
	}
}

func (r VersionedRecord) Kind() string {
	return r.kind
}

// CommitVersion is the capture time in microseconds since the epoch.
func (r VersionedRecord) CommitVersion() int64 {
	return r.commitVersion
}

// Payload returns the encoded entity. Callers must not modify it.
func (r VersionedRecord) Payload() []byte {
	return r.payload
}
