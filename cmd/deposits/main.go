// cmd/deposits/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/config"
	appdb "github.com/reservatuscanchas/canchas/internal/db"
	"github.com/reservatuscanchas/canchas/internal/settlement"
)

const usage = `Usage: deposits <command> [flags]

Commands:
  generate-deposits   Create the pending deposits for one day
  mark-paid           Mark a deposit as transferred

Run "deposits <command> -h" for the flags of a command.
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("deposits failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return flag.ErrHelp
	}

	switch args[0] {
	case "generate-deposits":
		return runGenerate(ctx, args[1:], out)
	case "mark-paid":
		return runMarkPaid(ctx, args[1:], out)
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func openService(configPath string) (*settlement.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	database, err := appdb.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	svc := settlement.NewService(database, clockwork.NewRealClock(), settlement.Options{
		TaxRateBPS: cfg.Settlement.TaxRateBPS,
		Location:   cfg.Location(),
	})
	return svc, func() { _ = database.Close() }, nil
}

func runGenerate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("generate-deposits", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", envOr("CONFIG_PATH", "config.yaml"), "Path to the YAML configuration file")
	date := fs.String("date", "", "Day to settle as YYYY-MM-DD (default: today in the configured timezone)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeDB, err := openService(*configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	day := *date
	if day == "" {
		day = svc.Today()
	}
	result, err := svc.GenerateDailyDeposits(ctx, day)
	if err != nil {
		return err
	}
	log.Info().
		Str("date", result.Date).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Deposits generated")
	return writeJSON(out, result)
}

func runMarkPaid(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mark-paid", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", envOr("CONFIG_PATH", "config.yaml"), "Path to the YAML configuration file")
	id := fs.Int64("id", 0, "Deposit id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("--id is required")
	}

	svc, closeDB, err := openService(*configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	deposit, err := svc.MarkPaid(ctx, *id)
	if err != nil {
		return err
	}
	return writeJSON(out, deposit)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
