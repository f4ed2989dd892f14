package caldav

// Config holds configuration for the CalDAV source calendar.
type Config struct {
	// URL is the CalDAV server endpoint.
	URL string `mapstructure:"url" default:""`
	// Username for basic authentication.
	Username string `mapstructure:"username" default:""`
	// Password for basic authentication. App-specific passwords work for iCloud.
	Password string `mapstructure:"password" default:"" secret:"true"`
	// CalendarPath is the collection to read, e.g. /dav/calendars/user/work/.
	// Use `calsync calendars` to list the available paths.
	CalendarPath string `mapstructure:"calendar_path" default:""`
	// Timezone applies to floating times that carry no TZID.
	Timezone string `mapstructure:"timezone" default:"UTC"`
	// MaxOccurrences caps the expansion of one recurring event within a window.
	MaxOccurrences int `mapstructure:"max_occurrences" default:"1000"`
	// TimeoutSeconds bounds every CalDAV request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
