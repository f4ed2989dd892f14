package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"calsync/core/loader"
	"calsync/core/logger"
	"calsync/core/middleware/auth"
	"calsync/core/middleware/rayid"
	"calsync/core/scheduler"
	"calsync/feature/calendar"
	"calsync/feature/health"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "calsync/docs/swagger"
)

// @title calsync API
// @version 1.0
// @description One-way CalDAV to Google Calendar synchronization.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP API and the periodic sync scheduler. Stops gracefully on SIGINT or SIGTERM.`,
	RunE:  runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// 1. Load Configuration and Logger
	cfg, logg, err := loadConfig()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logg)

	// 2. Build adapters, sync service, history and archive
	d, err := newDeps(cmd.Context(), cfg, logg)
	if err != nil {
		return err
	}
	defer d.close()

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// 4. Register Features
	mgr := loader.NewManager(logg)
	mgr.Register(calendar.NewFeature(d.service))
	mgr.Register(health.NewFeature(health.Dependencies{
		Source:      d.source,
		Destination: d.destination,
		DB:          d.db,
		Storage:     d.store,
		Bucket:      cfg.Storage.Bucket,
	}, cfg.Health, logg.Named("health")))

	// 5. Middleware: ray id first so every log line carries it
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	// Swagger is public, everything else requires the API key
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Use(auth.New(auth.Config{
		ApiKey: cfg.Server.ApiKey,
		Skip: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	if err := mgr.LoadAll(app); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	// 6. Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler, d.service.ScheduledJob(), logg)
		if err != nil {
			return err
		}
		logg.Info("Scheduled sync enabled", zap.String("spec", cfg.Scheduler.Spec), zap.String("timezone", cfg.Scheduler.Timezone))
		sched.Start()
	}

	// 7. Start Server
	serverErr := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
		serverErr <- app.Listen(cfg.Server.Address())
	}()

	// 8. Graceful Shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if sched != nil {
			_ = sched.Stop(context.Background())
		}
		return fmt.Errorf("server failed: %w", err)
	case <-sig:
	}

	logg.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	// Running syncs see their context cancelled and defer the remaining actions
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			logg.Warn("Scheduler did not stop in time", zap.Error(err))
		}
	}
	if err := app.ShutdownWithContext(ctx); err != nil {
		logg.Warn("Server shutdown incomplete", zap.Error(err))
	}
	return nil
}
