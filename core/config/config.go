package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/core/scheduler"
	"calsync/core/server"
	"calsync/core/storage"
	"calsync/core/utils"
	"calsync/feature/calendar"
	"calsync/feature/calendar/caldav"
	"calsync/feature/calendar/gcal"
	"calsync/feature/health"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Source holds configuration for the CalDAV source calendar.
	Source caldav.Config `mapstructure:"source"`
	// Destination holds configuration for the Google destination calendar.
	Destination gcal.Config `mapstructure:"destination"`
	// Sync holds configuration for reconciliation runs.
	Sync calendar.Config `mapstructure:"sync"`
	// Scheduler holds configuration for periodic runs.
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	// Health holds configuration for the health endpoint.
	Health health.Config `mapstructure:"health"`
	// Storage holds configuration for the run report archive (S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run history database.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SOURCE_URL -> source.url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Sync.WindowDays < 0 {
		errs = append(errs, fmt.Errorf("sync.window_days must be >= 0, got %d", c.Sync.WindowDays))
	}
	if c.Sync.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("sync.concurrency must be >= 1, got %d", c.Sync.Concurrency))
	}
	for key, tz := range map[string]string{
		"sync.timezone":      c.Sync.Timezone,
		"source.timezone":    c.Source.Timezone,
		"scheduler.timezone": c.Scheduler.Timezone,
	} {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("%s: unknown timezone %q", key, tz))
		}
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Database.Enabled && c.Database.Driver != database.DriverMySQL && c.Database.Driver != database.DriverSQLite {
		errs = append(errs, fmt.Errorf("database.driver must be %s or %s, got %q", database.DriverMySQL, database.DriverSQLite, c.Database.Driver))
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage is enabled"))
	}

	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// Nested sections recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Settings returns the effective configuration as nested maps keyed by the
// mapstructure tags. Fields tagged secret:"true" are masked.
func (c *Config) Settings() map[string]any {
	return settings(reflect.ValueOf(*c))
}

func settings(v reflect.Value) map[string]any {
	out := make(map[string]any)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		value := v.Field(i)
		switch {
		case field.Type.Kind() == reflect.Struct:
			out[tag] = settings(value)
		case field.Tag.Get("secret") == "true":
			out[tag] = utils.Redact(value.String())
		default:
			out[tag] = value.Interface()
		}
	}
	return out
}
