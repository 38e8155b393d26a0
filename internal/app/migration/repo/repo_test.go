package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/models/m_contact"
	"github.com/nzb155/nomulus/internal/models/m_registrar"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// TestContactRow_OptionalFieldsAreNull verifies empty optional strings map to NULL columns.
func TestContactRow_OptionalFieldsAreNull(t *testing.T) {
	created := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := domain.NewContact(domain.ContactDetails{ContactID: "contact_0", RepoID: "1-ROID", Email: "a@example.com", CreationTime: created})
	require.NoError(t, err)

	values := buildContactValues(c)
	assert.Equal(t, "contact_0", values[m_contact.ColContactID])
	assert.Equal(t, "a@example.com", values[m_contact.ColEmail])
	assert.Equal(t, created, values[m_contact.ColCreationTime])

	for _, col := range []string{m_contact.ColVoice, m_contact.ColOrg, m_contact.ColCountryCode, m_contact.ColUpdateTimestamp} {
		v, ok := values[col]
		require.True(t, ok, "expected key %s in upsert map", col)
		assert.Nil(t, v)
	}

	row := ContactEntity{Contact: c}.Row()
	require.NoError(t, row.Validate())
	assert.Equal(t, m_contact.TableName, row.Table)
	assert.Equal(t, "contact_0", row.Key())
}

// TestContactRow_CarriesSavedTimestamp verifies the row reflects PrepareForSave.
func TestContactRow_CarriesSavedTimestamp(t *testing.T) {
	seed := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := domain.NewContact(domain.ContactDetails{ContactID: "c", RepoID: "r", UpdateTimestamp: &seed})
	require.NoError(t, err)
	e := ContactEntity{Contact: c}
	assert.Equal(t, seed, e.Row().Values[m_contact.ColUpdateTimestamp])

	tx := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.PrepareForSave(tx)
	assert.Equal(t, tx, e.Row().Values[m_contact.ColUpdateTimestamp])
}

func TestRegistrarRow(t *testing.T) {
	iana := int64(99)
	r, err := domain.NewRegistrar(domain.RegistrarDetails{ClientID: "TheRegistrar", Name: "The Registrar", Type: domain.RegistrarTypeReal, IanaID: &iana})
	require.NoError(t, err)

	row := RegistrarEntity{Registrar: r}.Row()
	assert.Equal(t, m_registrar.TableName, row.Table)
	assert.Equal(t, m_registrar.ColClientID, row.KeyColumn)
	assert.Equal(t, int64(99), row.Values[m_registrar.ColIanaIdentifier])
	assert.Equal(t, "REAL", row.Values[m_registrar.ColType])
	assert.Equal(t, "PENDING", row.Values[m_registrar.ColState])
	assert.Nil(t, row.Values[m_registrar.ColEmailAddress])
	assert.Nil(t, row.Values[m_registrar.ColLastUpdateTime])
}

func TestRegistry_DecodeRoundTrip(t *testing.T) {
	for _, codec := range []encoding.Codec{encoding.Msgpack, encoding.CBOR} {
		t.Run(codec.Name(), func(t *testing.T) {
			reg := NewRegistry(codec)
			created := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)

			payload, err := codec.Marshal(dto.ContactPayload{ContactID: "contact_1", RepoID: "2-ROID", City: "Zurich", CreationTime: created})
			require.NoError(t, err)

			e, err := reg.Decode(domain.NewVersionedRecord(domain.KindContact, 1, payload))
			require.NoError(t, err)
			ce, ok := e.(ContactEntity)
			require.True(t, ok)
			assert.Equal(t, "contact_1", ce.NaturalKey())
			assert.Equal(t, "Zurich", ce.City())
			assert.True(t, ce.CreationTime().Equal(created))
			assert.False(t, ce.UpdateTimestamp().IsSet())
		})
	}
}

func TestRegistry_DecodeFailures(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, []string{domain.KindContact, domain.KindRegistrar}, reg.Kinds())

	_, err := reg.Decode(domain.NewVersionedRecord("Domain", 1, []byte{1}))
	assert.True(t, domain.IsDecodeFailure(err))
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	_, err = reg.Decode(domain.NewVersionedRecord(domain.KindContact, 1, nil))
	assert.ErrorIs(t, err, domain.ErrEmptyPayload)

	_, err = reg.Decode(domain.NewVersionedRecord(domain.KindContact, 7, []byte("not msgpack")))
	var de *domain.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindContact, de.Kind)
	assert.Equal(t, int64(7), de.Version)
	assert.Equal(t, -1, de.Position)

	// Well-formed but invalid: no contact id.
	payload, err := encoding.Msgpack.Marshal(dto.ContactPayload{RepoID: "r"})
	require.NoError(t, err)
	_, err = reg.Decode(domain.NewVersionedRecord(domain.KindContact, 1, payload))
	assert.ErrorIs(t, err, domain.ErrEmptyNaturalKey)
	assert.True(t, domain.IsDecodeFailure(err))
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry(encoding.Msgpack)
	d, ok := reg.Decoder(domain.KindRegistrar)
	require.True(t, ok)
	assert.Equal(t, m_registrar.TableName, d.Table())
	assert.Equal(t, m_registrar.ColClientID, d.KeyColumn())

	_, ok = reg.Decoder("Host")
	assert.False(t, ok)
}
