package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/settlement"
)

const (
	holdSweepJobName   = "hold_sweep"
	depositsJobName    = "daily_deposits"
	holdSweepTimeout   = time.Minute
	depositsJobTimeout = 5 * time.Minute
)

// HoldSweeper is satisfied by *booking.Service.
type HoldSweeper interface {
	SweepExpiredHolds(ctx context.Context) (booking.SweepResult, error)
}

// DepositGenerator is satisfied by *settlement.Service.
type DepositGenerator interface {
	GenerateDailyDeposits(ctx context.Context, date string) (settlement.Result, error)
	Today() string
}

// SweepHolds removes expired holds once.
func SweepHolds(ctx context.Context, sweeper HoldSweeper) error {
	result, err := sweeper.SweepExpiredHolds(ctx)
	if err != nil {
		return fmt.Errorf("sweep holds: %w", err)
	}
	if result.Expired > 0 || result.Promoted > 0 {
		log.Ctx(ctx).Info().
			Int64("expired", result.Expired).
			Int64("promoted", result.Promoted).
			Msg("Swept holds")
	}
	return nil
}

// GenerateDeposits settles every venue for the generator's current date.
func GenerateDeposits(ctx context.Context, gen DepositGenerator) (settlement.Result, error) {
	date := gen.Today()
	result, err := gen.GenerateDailyDeposits(ctx, date)
	if err != nil {
		return result, fmt.Errorf("generate deposits for %s: %w", date, err)
	}
	log.Ctx(ctx).Info().
		Str("date", date).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Daily deposits generated")
	return result, nil
}

// RegisterBookingJobs adds the hold sweep and the daily deposit run.
func RegisterBookingJobs(s *Service, sweeper HoldSweeper, sweepCron string, gen DepositGenerator, depositsCron string) error {
	if sweeper == nil || gen == nil {
		return fmt.Errorf("booking jobs require a hold sweeper and a deposit generator")
	}

	sweepLogger := log.With().Str("component", "hold_sweep_job").Logger()
	if _, err := s.AddJob(holdSweepJobName, sweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), holdSweepTimeout)
		defer cancel()
		ctx = sweepLogger.WithContext(ctx)
		if err := SweepHolds(ctx, sweeper); err != nil {
			sweepLogger.Error().Err(err).Msg("Hold sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("register %s: %w", holdSweepJobName, err)
	}

	depositsLogger := log.With().Str("component", "daily_deposits_job").Logger()
	if _, err := s.AddJob(depositsJobName, depositsCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), depositsJobTimeout)
		defer cancel()
		ctx = depositsLogger.WithContext(ctx)
		if _, err := GenerateDeposits(ctx, gen); err != nil {
			depositsLogger.Error().Err(err).Msg("Daily deposit generation failed")
		}
	}); err != nil {
		return fmt.Errorf("register %s: %w", depositsJobName, err)
	}

	return nil
}
