// cmd/tools/dbmigrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/config"
	appdb "github.com/reservatuscanchas/canchas/internal/db"
)

type options struct {
	dbPath     string
	configPath string
	command    string
	steps      int
	version    int
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var opts options
	flag.StringVar(&opts.dbPath, "db", "", "Path to SQLite database (overrides -config)")
	flag.StringVar(&opts.configPath, "config", "", "Read the database path from this YAML configuration file")
	flag.StringVar(&opts.command, "command", "", "Command to run (up, down, steps, force, version)")
	flag.IntVar(&opts.steps, "n", 0, "Number of migrations to apply for steps; negative rolls back")
	flag.IntVar(&opts.version, "version", -1, "Version to record for force")
	flag.Parse()

	if err := run(opts); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			flag.PrintDefaults()
			os.Exit(2)
		}
		log.Fatal().Err(err).Str("command", opts.command).Msg("Migration failed")
	}
}

var errUsage = errors.New("usage: dbmigrate (-db PATH | -config FILE) -command up|down|steps|force|version")

func resolveDBPath(opts options) (string, error) {
	if opts.dbPath != "" {
		return opts.dbPath, nil
	}
	if opts.configPath == "" {
		return "", errUsage
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return "", err
	}
	return cfg.Database.Filename, nil
}

func run(opts options) error {
	if opts.command == "" {
		return errUsage
	}
	dbPath, err := resolveDBPath(opts)
	if err != nil {
		return err
	}

	absDB, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	sqlDB, err := appdb.OpenSQLite(absDB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	m, err := appdb.NewMigrator(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()

	logger := log.With().Str("db", absDB).Str("command", opts.command).Logger()

	switch opts.command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info().Msg("Migrations applied")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		logger.Info().Msg("Migrations rolled back")
	case "steps":
		if opts.steps == 0 {
			return fmt.Errorf("steps requires a non-zero -n")
		}
		if err := m.Steps(opts.steps); err != nil {
			return fmt.Errorf("migrate %d steps: %w", opts.steps, err)
		}
		logger.Info().Int("steps", opts.steps).Msg("Migration steps applied")
	case "force":
		if opts.version < 0 {
			return fmt.Errorf("force requires -version")
		}
		if err := m.Force(opts.version); err != nil {
			return fmt.Errorf("force version %d: %w", opts.version, err)
		}
		logger.Warn().Int("version", opts.version).Msg("Migration version forced")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info().Msg("No migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
	default:
		return fmt.Errorf("unknown command: %s", opts.command)
	}
	return nil
}
