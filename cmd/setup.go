package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/simklx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to replace config file: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %w (use --force to overwrite)", shared.ErrInvalidArgument, err)
		}
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set simkl.client_id and tmdb.api_key in %s\n", path)
	r.writePlain("2. Run 'simklx auth' to check the Simkl login\n")
	return nil
}

// SetupDatabase initializes the audit database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s (%d %s applied)\n",
		r.config.Database.Path, applied, shared.Pluralize(applied, "migration"))
}

// MigrationStatus lists embedded migrations and when each was applied.
func (r *Runner) MigrationStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := shared.MigrationStatuses(ctx, db)
	if err != nil {
		return err
	}

	for _, s := range statuses {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		r.writePlain("%04d  %-28s %s\n", s.Version, s.Name, applied)
	}
	return nil
}

// MigrationRollback reverts the latest applied migration.
func (r *Runner) MigrationRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		if errors.Is(err, shared.ErrNoMigrations) {
			return r.writePlain("Nothing to roll back\n")
		}
		return err
	}

	r.logger.Info("rolled back latest migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the latest migration\n")
}

// rawDatabase opens the configured database without applying migrations.
func (r *Runner) rawDatabase() (*sql.DB, error) {
	if r.config.Database.Path == "" {
		return nil, fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}
	return shared.NewDatabase(r.config.Database.Path)
}

// auditDatabase opens the configured database with migrations applied.
//
// Returns nil when the audit log is disabled.
func (r *Runner) auditDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := shared.OpenAuditDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return db, nil
}

func (r *Runner) configFile() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}
