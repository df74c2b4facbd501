package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/urfave/cli/v2"

	"github.com/joao-fontenele/storefront/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the storefront database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database",
				Usage:    "postgres connection URL",
				EnvVars:  []string{"POSTGRES_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "path",
				Usage:   "migrations source URL",
				EnvVars: []string{"MIGRATIONS_PATH"},
				Value:   "file://migrations",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withMigrate(func(m *migrate.Migrate) error {
					err := m.Up()
					if errors.Is(err, migrate.ErrNoChange) {
						logger.Info("no pending migrations")
						return nil
					}
					if err != nil {
						return err
					}
					logger.Info("migrations applied successfully")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the given number of migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					return withMigrate(func(m *migrate.Migrate) error {
						err := m.Steps(-c.Int("steps"))
						if errors.Is(err, migrate.ErrNoChange) {
							logger.Info("no migrations to rollback")
							return nil
						}
						if err != nil {
							return err
						}
						logger.Info("migration rolled back successfully", slog.Int("steps", c.Int("steps")))
						return nil
					})(c)
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withMigrate(func(m *migrate.Migrate) error {
					version, dirty, err := m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						logger.Info("no migrations applied yet")
						return nil
					}
					if err != nil {
						return err
					}
					logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
					return nil
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func withMigrate(fn func(m *migrate.Migrate) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		m, err := migrate.New(c.String("path"), c.String("database"))
		if err != nil {
			return err
		}
		defer func() { _, _ = m.Close() }()
		return fn(m)
	}
}
