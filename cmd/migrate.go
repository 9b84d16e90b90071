package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/config"
	"github.com/guichet-dev/guichet/pkg/storage"
)

// MigrateCommand creates the migrate command with its subcommands
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Apply pending migrations to every configured commune",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runMigrations(c.String("config"))
				},
			},
			{
				Name:  "status",
				Usage: "Show applied and pending migrations per commune",
				Action: func(ctx context.Context, c *cli.Command) error {
					return migrationStatus(c.String("config"))
				},
			},
		},
	}
}

func runMigrations(configPath string) error {
	cfg, manager, err := loadEnvironment(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	// Opening a commune storage applies pending migrations.
	for _, slug := range cfg.ListCommunes() {
		if _, err := manager.GetStorage(slug); err != nil {
			return fmt.Errorf("migrating %s: %w", slug, err)
		}
		fmt.Printf("%s: migrations up to date\n", slug)
	}
	return nil
}

func migrationStatus(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	for _, slug := range cfg.ListCommunes() {
		dbPath := filepath.Join(cfg.StorageDir, fmt.Sprintf("%s.db", slug))

		db, err := sql.Open("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", dbPath, err)
		}

		mm := storage.NewMigrationManager(db)
		if err := mm.EnsureMigrationsTable(); err != nil {
			_ = db.Close()
			return fmt.Errorf("ensuring migrations table for %s: %w", slug, err)
		}

		applied, err := mm.GetAppliedMigrations()
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("reading applied migrations for %s: %w", slug, err)
		}

		pending, err := mm.GetPendingMigrations()
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("reading pending migrations for %s: %w", slug, err)
		}

		fmt.Printf("%s: %d applied, %d pending\n", slug, len(applied), len(pending))
		for _, migration := range pending {
			fmt.Printf("  pending: %04d %s\n", migration.Version, migration.Name)
		}

		if err := db.Close(); err != nil {
			fmt.Printf("Warning: failed to close %s: %v\n", dbPath, err)
		}
	}
	return nil
}
