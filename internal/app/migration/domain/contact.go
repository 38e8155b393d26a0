package domain

import (
	"strings"
	"time"
)

// Record kinds handled by the migration.
const (
	KindContact   = "ContactResource"
	KindRegistrar = "Registrar"
)

// ContactDetails carries the persisted state of a contact.
type ContactDetails struct {
	ContactID       string
	RepoID          string
	Email           string
	Voice           string
	Name            string
	Org             string
	City            string
	CountryCode     string
	SponsorClientID string
	CreationTime    time.Time
	UpdateTimestamp *time.Time
}

// Contact is a registry contact. Its natural key is the contact id.
type Contact struct {
	contactID       string
	repoID          string
	email           string
	voice           string
	name            string
	org             string
	city            string
	countryCode     string
	sponsorClientID string
	creationTime    time.Time
	updateTimestamp UpdateAutoTimestamp
}

// NewContact validates d and builds a Contact. A nil d.UpdateTimestamp leaves
// the marker unset until the contact is first saved.
func NewContact(d ContactDetails) (*Contact, error) {
	id := strings.TrimSpace(d.ContactID)
	if id == "" {
		return nil, ErrEmptyNaturalKey
	}
	if strings.TrimSpace(d.RepoID) == "" {
		return nil, ErrEmptyRepoID
	}
	cc := strings.ToUpper(strings.TrimSpace(d.CountryCode))
	if cc != "" && !isCountryCode(cc) {
		return nil, ErrInvalidCountryCode
	}

	return &Contact{
		contactID:       id,
		repoID:          strings.TrimSpace(d.RepoID),
		email:           strings.TrimSpace(d.Email),
		voice:           strings.TrimSpace(d.Voice),
		name:            strings.TrimSpace(d.Name),
		org:             strings.TrimSpace(d.Org),
		city:            strings.TrimSpace(d.City),
		countryCode:     cc,
		sponsorClientID: strings.TrimSpace(d.SponsorClientID),
		creationTime:    d.CreationTime.UTC(),
		updateTimestamp: NewUpdateAutoTimestamp(d.UpdateTimestamp),
	}, nil
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Getters

func (c *Contact) NaturalKey() string {
	return c.contactID
}

func (c *Contact) ContactID() string {
	return c.contactID
}

func (c *Contact) RepoID() string {
	return c.repoID
}

func (c *Contact) Email() string {
	return c.email
}

func (c *Contact) Voice() string {
	return c.voice
}

func (c *Contact) Name() string {
	return c.name
}

func (c *Contact) Org() string {
	return c.org
}

func (c *Contact) City() string {
	return c.city
}

func (c *Contact) CountryCode() string {
	return c.countryCode
}

func (c *Contact) SponsorClientID() string {
	return c.sponsorClientID
}

func (c *Contact) CreationTime() time.Time {
	return c.creationTime
}

func (c *Contact) UpdateTimestamp() UpdateAutoTimestamp {
	return c.updateTimestamp
}

// PrepareForSave is the save hook run by transaction managers.
func (c *Contact) PrepareForSave(txTime time.Time) {
	c.updateTimestamp.OnSave(txTime)
}
