package dto

import (
	"time"

	"github.com/nzb155/nomulus/internal/app/migration/domain"
)

// ContactPayload is the legacy-store representation of a contact. Both the
// msgpack and CBOR codecs read the json tags.
type ContactPayload struct {
	ContactID       string     `json:"contactId"`
	RepoID          string     `json:"repoId"`
	Email           string     `json:"email,omitempty"`
	Voice           string     `json:"voice,omitempty"`
	Name            string     `json:"name,omitempty"`
	Org             string     `json:"org,omitempty"`
	City            string     `json:"city,omitempty"`
	CountryCode     string     `json:"countryCode,omitempty"`
	SponsorClientID string     `json:"currentSponsorClientId,omitempty"`
	CreationTime    time.Time  `json:"creationTime"`
	UpdateTimestamp *time.Time `json:"updateTimestamp,omitempty"`
}

// RegistrarPayload is the legacy-store representation of a registrar.
type RegistrarPayload struct {
	ClientID       string     `json:"clientId"`
	Name           string     `json:"registrarName"`
	Type           string     `json:"type"`
	State          string     `json:"state,omitempty"`
	IanaID         *int64     `json:"ianaIdentifier,omitempty"`
	Email          string     `json:"emailAddress,omitempty"`
	CreationTime   time.Time  `json:"creationTime"`
	LastUpdateTime *time.Time `json:"lastUpdateTime,omitempty"`
}

func (p ContactPayload) ToDomain() (*domain.Contact, error) {
	return domain.NewContact(domain.ContactDetails{
		ContactID:       p.ContactID,
		RepoID:          p.RepoID,
		Email:           p.Email,
		Voice:           p.Voice,
		Name:            p.Name,
		Org:             p.Org,
		City:            p.City,
		CountryCode:     p.CountryCode,
		SponsorClientID: p.SponsorClientID,
		CreationTime:    p.CreationTime,
		UpdateTimestamp: p.UpdateTimestamp,
	})
}

func ContactPayloadFromDomain(c *domain.Contact) ContactPayload {
	return ContactPayload{
		ContactID:       c.ContactID(),
		RepoID:          c.RepoID(),
		Email:           c.Email(),
		Voice:           c.Voice(),
		Name:            c.Name(),
		Org:             c.Org(),
		City:            c.City(),
		CountryCode:     c.CountryCode(),
		SponsorClientID: c.SponsorClientID(),
		CreationTime:    c.CreationTime(),
		UpdateTimestamp: c.UpdateTimestamp().Ptr(),
	}
}

func (p RegistrarPayload) ToDomain() (*domain.Registrar, error) {
	return domain.NewRegistrar(domain.RegistrarDetails{
		ClientID:       p.ClientID,
		Name:           p.Name,
		Type:           domain.RegistrarType(p.Type),
		State:          domain.RegistrarState(p.State),
		IanaID:         p.IanaID,
		Email:          p.Email,
		CreationTime:   p.CreationTime,
		LastUpdateTime: p.LastUpdateTime,
	})
}

func RegistrarPayloadFromDomain(r *domain.Registrar) RegistrarPayload {
	return RegistrarPayload{
		ClientID:       r.ClientID(),
		Name:           r.Name(),
		Type:           string(r.Type()),
		State:          string(r.State()),
		IanaID:         r.IanaID(),
		Email:          r.Email(),
		CreationTime:   r.CreationTime(),
		LastUpdateTime: r.LastUpdateTime().Ptr(),
	}
}
