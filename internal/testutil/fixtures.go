package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// FixtureCreationTime is the creation time of every fixture entity.
var FixtureCreationTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Contact returns the payload of contact_<i>.
func Contact(i int) dto.ContactPayload {
	return dto.ContactPayload{
		ContactID:       fmt.Sprintf("contact_%d", i),
		RepoID:          fmt.Sprintf("%d-ROID", i+1),
		Email:           fmt.Sprintf("contact%d@example.com", i),
		Name:            fmt.Sprintf("Contact %d", i),
		City:            "Mountain View",
		CountryCode:     "US",
		SponsorClientID: "TheRegistrar",
		CreationTime:    FixtureCreationTime,
	}
}

// Registrar returns the payload of the registrar every fixture contact is
// sponsored by.
func Registrar() dto.RegistrarPayload {
	iana := int64(1)
	return dto.RegistrarPayload{
		ClientID:     "TheRegistrar",
		Name:         "The Registrar",
		Type:         string(domain.RegistrarTypeReal),
		State:        string(domain.RegistrarStateActive),
		IanaID:       &iana,
		Email:        "registrar@example.com",
		CreationTime: FixtureCreationTime,
	}
}

// Record encodes payload as a record of kind with the given commit version.
func Record(t testing.TB, codec encoding.Codec, kind string, version int64, payload interface{}) domain.VersionedRecord {
	t.Helper()
	b, err := codec.Marshal(payload)
	require.NoError(t, err)
	return domain.NewVersionedRecord(kind, version, b)
}

// ContactRecords encodes contact_0 .. contact_<n-1>.
func ContactRecords(t testing.TB, codec encoding.Codec, n int) []domain.VersionedRecord {
	t.Helper()
	recs := make([]domain.VersionedRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, Record(t, codec, domain.KindContact, int64(i+1), Contact(i)))
	}
	return recs
}
