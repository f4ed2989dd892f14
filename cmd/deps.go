package cmd

import (
	"context"
	"fmt"

	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/logger"
	"calsync/core/storage"
	"calsync/feature/calendar"
	"calsync/feature/calendar/caldav"
	"calsync/feature/calendar/gcal"
	"calsync/feature/calendar/history"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deps bundles the components every command builds from the configuration.
type deps struct {
	cfg         *config.Config
	logger      *zap.Logger
	source      *caldav.Source
	destination *gcal.Destination
	service     *calendar.Service
	db          *gorm.DB
	store       storage.Client
}

// loadConfig loads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// newSource builds the CalDAV source alone, for commands that never touch Google.
func newSource(cfg *config.Config, l *zap.Logger) (*caldav.Source, error) {
	source, err := caldav.NewSource(cfg.Source, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav source: %w", err)
	}
	return source, nil
}

// newDeps builds the adapters and the sync service. History and archive are attached
// when enabled; failing to reach them is logged and the service runs without them.
func newDeps(ctx context.Context, cfg *config.Config, l *zap.Logger) (*deps, error) {
	source, err := newSource(cfg, l)
	if err != nil {
		return nil, err
	}

	destination, err := gcal.NewDestination(ctx, cfg.Destination, source.Name(), l)
	if err != nil {
		return nil, fmt.Errorf("failed to create google destination: %w", err)
	}

	svc, err := calendar.NewService(source, destination, cfg.Sync, l)
	if err != nil {
		return nil, err
	}

	rt := &deps{
		cfg:         cfg,
		logger:      l,
		source:      source,
		destination: destination,
		service:     svc,
	}

	// 1. Run history (optional)
	if cfg.Database.Enabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			l.Warn("Optional database connection failed, run history disabled", zap.Error(err))
		} else {
			store := history.NewStore(db)
			if err := store.Migrate(); err != nil {
				l.Warn("Run history migration failed, run history disabled", zap.Error(err))
			} else {
				rt.db = db
				svc.UseHistory(store)
				l.Info("Run history enabled", zap.String("driver", cfg.Database.Driver))
			}
		}
	}

	// 2. Report archive (optional)
	if cfg.Storage.Enabled {
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			l.Warn("Failed to create storage client, report archive disabled", zap.Error(err))
		} else if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			l.Warn("Archive bucket unavailable, report archive disabled", zap.Error(err))
		} else {
			rt.store = client
			svc.UseArchive(client, cfg.Storage.Bucket)
			l.Info("Report archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	return rt, nil
}

// close releases the database connection.
func (rt *deps) close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = rt.logger.Sync()
}
