package gcal

// Config holds configuration for the Google Calendar destination.
type Config struct {
	// CalendarID is the destination calendar. "primary" is the account's main calendar.
	CalendarID string `mapstructure:"calendar_id" default:"primary"`
	// CredentialsFile points to a service account or authorized user JSON key.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
	// TokenFile points to a stored OAuth2 token. Used when CredentialsFile is empty.
	TokenFile string `mapstructure:"token_file" default:""`
	// Endpoint overrides the API base URL. Leave empty outside of tests.
	Endpoint string `mapstructure:"endpoint" default:""`
	// TimeoutSeconds bounds every API request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
