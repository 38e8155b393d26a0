package m_registrar

// Field constants for the Registrar table.
const (
	TableName = "Registrar"

	ColClientID       = "client_id"
	ColRegistrarName  = "registrar_name"
	ColType           = "type"
	ColState          = "state"
	ColIanaIdentifier = "iana_identifier"
	ColEmailAddress   = "email_address"
	ColCreationTime   = "creation_time"
	ColLastUpdateTime = "last_update_time"
)
