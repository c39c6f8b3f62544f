// cmd/tools/seedcatalog/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/catalog"
	"github.com/reservatuscanchas/canchas/internal/config"
	appdb "github.com/reservatuscanchas/canchas/internal/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file")
		seedPath   = flag.String("file", "seeds/catalog.yaml", "Catalog seed file")
		dryRun     = flag.Bool("dry-run", false, "Validate the seed file without writing")
	)
	flag.Parse()

	if err := run(context.Background(), *configPath, *seedPath, *dryRun); err != nil {
		log.Fatal().Err(err).Str("file", *seedPath).Msg("Seeding failed")
	}
}

func run(ctx context.Context, configPath, seedPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(seedPath)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	file, err := catalog.ParseSeed(f, catalog.SeedDefaults{
		CommissionRateBPS: cfg.Settlement.DefaultCommissionBPS,
		SlotMinutes:       int64(cfg.Booking.DefaultSlotMinutes),
	})
	if err != nil {
		return err
	}
	if dryRun {
		log.Info().Int("cities", len(file.Cities)).Msg("Seed file is valid")
		return nil
	}

	database, err := appdb.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	_, err = catalog.Seed(log.Logger.WithContext(ctx), database, file)
	return err
}
