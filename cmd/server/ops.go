package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/content-lifecycle-api/internal/database"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	withDB := func(fn func(db *database.DB, path string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := database.New(&rt.cfg.Database, rt.log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			return fn(db, rt.cfg.Database.MigrationsPath)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(db *database.DB, path string) error {
				return db.RunMigrations(path)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDB(func(db *database.DB, path string) error {
				return db.MigrateDown(path)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withDB(func(db *database.DB, path string) error {
				version, dirty, err := db.MigrationVersion(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "version=%d dirty=%t\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}

func newTickCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single scheduler pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, services, err := rt.openServices(service.Dependencies{})
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := services.Scheduler.Tick(cmd.Context())
			if err != nil {
				return fmt.Errorf("tick failed: %w", err)
			}
			return printJSON(result)
		},
	}
}

func newAuditCmd(rt *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and prune the audit log",
	}

	var (
		before string
		actor  string
	)
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries, optionally only those older than --before",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cutoff *int64
			if before != "" {
				ts, err := parseCutoff(before, time.Now())
				if err != nil {
					return err
				}
				cutoff = &ts
			}

			db, services, err := rt.openServices(service.Dependencies{})
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := services.Audit.Purge(cmd.Context(), actor, cutoff)
			if err != nil {
				return fmt.Errorf("audit purge failed: %w", err)
			}
			fmt.Fprintf(os.Stdout, "deleted %d audit entries\n", deleted)
			return nil
		},
	}
	purge.Flags().StringVar(&before, "before", "", "cutoff as an RFC3339 time or a duration ago, e.g. 720h")
	purge.Flags().StringVar(&actor, "actor", models.SystemActor, "actor recorded for the purge")

	cmd.AddCommand(purge)
	return cmd
}

// parseCutoff accepts an RFC3339 timestamp or a duration measured back from now
func parseCutoff(s string, now time.Time) (int64, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("--before must be an RFC3339 time or a positive duration, got %q", s)
	}
	return now.Add(-d).Unix(), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
