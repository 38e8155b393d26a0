package m_registrar

import (
	"time"

	"github.com/nzb155/nomulus/internal/pkg/committer"
)

// BuildUpsertMap prepares every column of a registrar row.
func BuildUpsertMap(clientID, name, registrarType, state string, ianaID *int64, email string,
	creationTime time.Time, lastUpdateTime *time.Time) map[string]interface{} {

	m := map[string]interface{}{
		ColClientID:      clientID,
		ColRegistrarName: name,
		ColType:          registrarType,
		ColState:         state,
		ColCreationTime:  creationTime,
	}

	if ianaID != nil {
		m[ColIanaIdentifier] = *ianaID
	} else {
		m[ColIanaIdentifier] = nil
	}

	if email != "" {
		m[ColEmailAddress] = email
	} else {
		m[ColEmailAddress] = nil
	}

	if lastUpdateTime != nil {
		m[ColLastUpdateTime] = *lastUpdateTime
	} else {
		m[ColLastUpdateTime] = nil
	}

	return m
}

// UpsertRow wraps values as an upsert keyed on client_id.
func UpsertRow(values map[string]interface{}) committer.Row {
	return committer.Row{
		Table:     TableName,
		KeyColumn: ColClientID,
		Values:    values,
	}
}
