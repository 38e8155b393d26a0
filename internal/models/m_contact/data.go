package m_contact

import (
	"time"

	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// BuildUpsertMap prepares every column of a contact row. Empty optional
// strings are stored as NULL.
func BuildUpsertMap(contactID, repoID, email, voice, name, org, city, countryCode, sponsorClientID string,
	creationTime time.Time, updateTimestamp *time.Time) map[string]interface{} {

	m := map[string]interface{}{
		ColContactID:       contactID,
		ColRepoID:          repoID,
		ColEmail:           nullable(email),
		ColVoice:           nullable(voice),
		ColName:            nullable(name),
		ColOrg:             nullable(org),
		ColCity:            nullable(city),
		ColCountryCode:     nullable(countryCode),
		ColSponsorClientID: nullable(sponsorClientID),
		ColCreationTime:    creationTime,
	}

	if updateTimestamp != nil {
		m[ColUpdateTimestamp] = *updateTimestamp
	} else {
		m[ColUpdateTimestamp] = nil
	}

	return m
}

// UpsertRow wraps values as an upsert keyed on contact_id.
func UpsertRow(values map[string]interface{}) committer.Row {
	return committer.Row{
		Table:     TableName,
		KeyColumn: ColContactID,
		Values:    values,
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
