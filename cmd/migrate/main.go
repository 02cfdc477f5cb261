package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hireveno/hireveno-back/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	log := logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if err := newRootCommand(log).Execute(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func newRootCommand(log zerolog.Logger) *cobra.Command {
	var dbURL string
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply hireveno-back schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "PostgreSQL connection URL (defaults to DB_URL)")
	root.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (searched upwards from the working directory when empty)")

	open := func() (*migrate.Migrate, error) {
		if dbURL == "" {
			return nil, errors.New("DB_URL environment variable is required")
		}
		path, err := resolveMigrationsPath(dir)
		if err != nil {
			return nil, err
		}
		return migrate.New("file://"+path, dbURL)
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			log.Info().Msg("migration up successful")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (all, or the given number of steps)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if len(args) == 1 {
				steps, err := strconv.Atoi(args[0])
				if err != nil || steps <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				err = m.Steps(-steps)
				if err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return err
				}
			} else if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			log.Info().Msg("migration down successful")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info().Msg("no migrations applied")
				return nil
			}
			if err != nil {
				return err
			}
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
			return nil
		},
	})

	return root
}

func resolveMigrationsPath(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	candidates := []string{}
	current := cwd
	for i := 0; i < 6; i++ {
		candidates = append(candidates, filepath.Join(current, "migrations"))
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", errors.New("migrations directory not found")
}
