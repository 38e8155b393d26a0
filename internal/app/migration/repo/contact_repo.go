package repo

import (
	"fmt"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
	"github.com/nzb155/nomulus/internal/app/migration/dto"
	"github.com/nzb155/nomulus/internal/models/m_contact"
	"github.com/nzb155/nomulus/internal/pkg/committer"
	"github.com/nzb155/nomulus/internal/pkg/encoding"
)

// ContactEntity adapts a domain contact to the committer.Entity contract.
type ContactEntity struct {
	*domain.Contact
}

// buildContactValues constructs the column map of a contact. It's unexported so
// tests in the same package can inspect the map.
func buildContactValues(c *domain.Contact) map[string]interface{} {
	return m_contact.BuildUpsertMap(
		c.ContactID(), c.RepoID(), c.Email(), c.Voice(), c.Name(), c.Org(), c.City(),
		c.CountryCode(), c.SponsorClientID(), c.CreationTime().UTC(), c.UpdateTimestamp().Ptr())
}

func (e ContactEntity) Row() committer.Row {
	return m_contact.UpsertRow(buildContactValues(e.Contact))
}

// ContactDecoder decodes ContactResource payloads.
type ContactDecoder struct {
	codec encoding.Codec
}

func NewContactDecoder(codec encoding.Codec) *ContactDecoder {
	return &ContactDecoder{codec: codec}
}

func (d *ContactDecoder) Kind() string      { return domain.KindContact }
func (d *ContactDecoder) Table() string     { return m_contact.TableName }
func (d *ContactDecoder) KeyColumn() string { return m_contact.ColContactID }

func (d *ContactDecoder) Decode(payload []byte) (committer.Entity, error) {
	var p dto.ContactPayload
	if err := d.codec.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%s payload: %w", d.codec.Name(), err)
	}
	c, err := p.ToDomain()
	if err != nil {
		return nil, err
	}
	return ContactEntity{Contact: c}, nil
}
