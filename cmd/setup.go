package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "driver", r.config.Database.Driver, "dsn", r.config.Database.DSN)

	if _, err := r.open(); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.DSN)
	return r.writePlain("✓ Database ready\n")
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	return r.writePlain("✓ Rolled back latest migration\n")
}

// Seed loads the demo catalog.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.open()
	if err != nil {
		return err
	}

	summary, err := services.SeedCatalog(ctx, svc, time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	return r.write(cmd, summary, func() error {
		r.writePlainHeader("Catalog Seeded")
		return r.writePlain(
			"Statuses: %d\nBranches: %d\nAssets: %d\nCards: %d\nCheckouts: %d\n",
			summary.Statuses, summary.Branches, summary.Assets, summary.Cards, summary.Checkouts,
		)
	})
}
