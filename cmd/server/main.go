package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/content-lifecycle-api/internal/api"
	"github.com/content-lifecycle-api/internal/assets"
	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/database"
	"github.com/content-lifecycle-api/internal/events"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/content-lifecycle-api/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const eventBuffer = 64

// app is what every subcommand needs once configuration is loaded
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rt := &app{}

	root := &cobra.Command{
		Use:           "content-lifecycle-api",
		Short:         "Content lifecycle engine for articles and media",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine, the environment may already be set
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			rt.cfg = cfg
			rt.log = logger.New(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newTickCmd(rt),
		newAuditCmd(rt),
	)
	return root
}

// openServices connects to the database and builds the service layer
func (rt *app) openServices(deps service.Dependencies) (*database.DB, *service.Services, error) {
	db, err := database.New(&rt.cfg.Database, rt.log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if deps.Assets == nil {
		deps.Assets = assets.New(rt.cfg.Assets.Root, rt.log)
	}
	services := service.NewServices(repository.New(db), rt.cfg, rt.log, deps)
	return db, services, nil
}

func newServeCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the publishing scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(rt)
		},
	}
}

func serve(rt *app) error {
	cfg, log := rt.cfg, rt.log
	log.Info().Msg("Starting Content Lifecycle API server...")

	broker := events.NewBroker(eventBuffer, log)
	db, services, err := rt.openServices(service.Dependencies{Events: broker})
	if err != nil {
		return err
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Start publishing scheduler
	if cfg.Scheduler.Enabled {
		services.Scheduler.Start(context.Background())
		log.Info().Dur("interval", cfg.Scheduler.Interval).Msg("Publishing scheduler started")
	}

	router := api.NewRouter(services, broker, db, cfg, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Shutdown waits for active requests, so open event streams end first
	srv.RegisterOnShutdown(broker.Close)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		services.Scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop scheduler before draining requests so no promotion starts mid-shutdown
	services.Scheduler.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited gracefully")
	return nil
}
