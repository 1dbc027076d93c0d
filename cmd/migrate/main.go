package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the userhub database schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		if err := db.MigrateUp(cfg.DBURL); err != nil {
			return err
		}
		cmd.Println("schema is up to date")
		return nil
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps <= 0 {
			return fmt.Errorf("--steps must be positive, got %d", downSteps)
		}

		return withMigrator(func(m *migrate.Migrate) error {
			if err := m.Steps(-downSteps); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					return nil
				}
				return fmt.Errorf("migrate down failed: %w", err)
			}
			cmd.Printf("rolled back %d migration(s)\n", downSteps)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				cmd.Println("no migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			cmd.Printf("version %d (dirty=%t)\n", v, dirty)
			return nil
		})
	},
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	cfg := config.Load()

	m, err := db.NewMigrator(cfg.DBURL)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	return fn(m)
}

func init() {
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
