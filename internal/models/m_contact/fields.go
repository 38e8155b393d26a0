package m_contact

// Field constants for the Contact table.
const (
	TableName = "Contact"

	ColContactID       = "contact_id"
	ColRepoID          = "repo_id"
	ColEmail           = "email"
	ColVoice           = "voice"
	ColName            = "name"
	ColOrg             = "org"
	ColCity            = "city"
	ColCountryCode     = "country_code"
	ColSponsorClientID = "current_sponsor_client_id"
	ColCreationTime    = "creation_time"
	ColUpdateTimestamp = "update_timestamp"
)
