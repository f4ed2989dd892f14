package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "primary", cfg.Destination.CalendarID)
	assert.Equal(t, 30, cfg.Sync.WindowDays)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, 1000, cfg.Source.MaxOccurrences)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.Spec)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.Sync.SkipUnchanged)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("SOURCE_CALENDAR_PATH", "/dav/calendars/me/work/")
	t.Setenv("SYNC_WINDOW_DAYS", "14")
	t.Setenv("SYNC_SKIP_UNCHANGED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/dav/calendars/me/work/", cfg.Source.CalendarPath)
	assert.Equal(t, 14, cfg.Sync.WindowDays)
	assert.True(t, cfg.Sync.SkipUnchanged)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DESTINATION_CALENDAR_ID=team@group.calendar.google.com\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DESTINATION_CALENDAR_ID") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "team@group.calendar.google.com", cfg.Destination.CalendarID)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Sync.WindowDays = -1
	cfg.Sync.Concurrency = 0
	cfg.Sync.Timezone = "Nowhere/City"
	cfg.Log.Format = "xml"
	cfg.Database.Enabled = true
	cfg.Database.Driver = "oracle"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.window_days must be >= 0")
	assert.Contains(t, err.Error(), "sync.concurrency must be >= 1")
	assert.Contains(t, err.Error(), `sync.timezone: unknown timezone "Nowhere/City"`)
	assert.Contains(t, err.Error(), "log.format must be json or console")
	assert.Contains(t, err.Error(), "database.driver must be")
}

func TestSettings_RedactsSecrets(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Source.Username = "me"
	cfg.Source.Password = "hunter2"
	cfg.Server.ApiKey = ""

	settings := cfg.Settings()

	source := settings["source"].(map[string]any)
	assert.Equal(t, "me", source["username"])
	assert.Equal(t, "********", source["password"])
	assert.Equal(t, "", settings["server"].(map[string]any)["api_key"])
	assert.Equal(t, 30, settings["sync"].(map[string]any)["window_days"])
}
