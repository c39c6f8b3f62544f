// Package settlement computes the daily per-venue deposit: the gross of
// confirmed reservations minus the platform commission and its tax.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/money"
)

const dateLayout = "2006-01-02"

// Deposit statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Reasons a venue is skipped by GenerateDailyDeposits.
const (
	SkipAlreadyGenerated = "already_generated"
	SkipNoReservations   = "no_reservations"
)

var (
	ErrNotFound     = errors.New("deposit not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Options struct {
	// TaxRateBPS is applied to the commission, e.g. 1900 for 19% IVA.
	TaxRateBPS int64
	Location   *time.Location
}

type Service struct {
	db    *appdb.DB
	clock clockwork.Clock
	opts  Options
}

func NewService(database *appdb.DB, clock clockwork.Clock, opts Options) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{db: database, clock: clock, opts: opts}
}

type Deposit struct {
	ID                     int64      `json:"id"`
	VenueID                int64      `json:"venue_id"`
	Date                   string     `json:"deposit_date"`
	TotalReservationAmount int64      `json:"total_reservation_amount"`
	ReservationCount       int64      `json:"reservation_count"`
	CommissionRateBPS      int64      `json:"commission_rate_bps"`
	CommissionAmount       int64      `json:"commission_amount"`
	CommissionTax          int64      `json:"commission_tax"`
	CommissionTotal        int64      `json:"commission_total"`
	NetDepositAmount       int64      `json:"net_deposit_amount"`
	Status                 string     `json:"status"`
	PaidAt                 *time.Time `json:"paid_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

type Skip struct {
	VenueID int64  `json:"venue_id"`
	Reason  string `json:"reason"`
}

type Result struct {
	Date    string    `json:"date"`
	Created []Deposit `json:"created"`
	Skipped []Skip    `json:"skipped"`
}

// Breakdown is the commission split of a gross amount.
type Breakdown struct {
	Gross      int64
	RateBPS    int64
	Commission int64
	Tax        int64
	Total      int64
	Net        int64
}

// Compute splits gross into commission, tax on the commission and the net
// amount owed to the venue. Each rounding step is half up.
func Compute(gross, rateBPS, taxBPS int64) Breakdown {
	commission := money.ApplyBPS(gross, rateBPS)
	tax := money.ApplyBPS(commission, taxBPS)
	return Breakdown{
		Gross:      gross,
		RateBPS:    rateBPS,
		Commission: commission,
		Tax:        tax,
		Total:      commission + tax,
		Net:        gross - commission - tax,
	}
}

// EffectiveRate returns the venue's commission rate for reservations dated
// date. Dates before the venue's commission start are exempt.
func EffectiveRate(venue dbgen.Venue, date string) int64 {
	if venue.CommissionStartDate.Valid && venue.CommissionStartDate.String != "" && date < venue.CommissionStartDate.String {
		return 0
	}
	return venue.CommissionRateBps
}

// GenerateDailyDeposits creates one pending deposit per venue with confirmed
// reservations on date. Venues that already have a deposit for date are
// skipped, so the run can be repeated safely.
func (s *Service) GenerateDailyDeposits(ctx context.Context, date string) (Result, error) {
	result := Result{Date: date, Created: []Deposit{}, Skipped: []Skip{}}
	if _, err := time.ParseInLocation(dateLayout, date, s.opts.Location); err != nil {
		return result, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	venues, err := s.db.Queries.ListVenues(ctx)
	if err != nil {
		return result, fmt.Errorf("list venues: %w", err)
	}

	logger := log.Ctx(ctx)
	for _, venue := range venues {
		deposit, skip, err := s.settleVenue(ctx, venue, date)
		if err != nil {
			return result, fmt.Errorf("settle venue %d: %w", venue.ID, err)
		}
		if skip != "" {
			result.Skipped = append(result.Skipped, Skip{VenueID: venue.ID, Reason: skip})
			logger.Debug().Int64("venue_id", venue.ID).Str("date", date).Str("reason", skip).Msg("Deposit skipped")
			continue
		}
		result.Created = append(result.Created, deposit)
		logger.Info().
			Int64("deposit_id", deposit.ID).
			Int64("venue_id", venue.ID).
			Str("date", date).
			Int64("gross", deposit.TotalReservationAmount).
			Int64("commission_total", deposit.CommissionTotal).
			Int64("net", deposit.NetDepositAmount).
			Msg("Deposit generated")
	}

	return result, nil
}

func (s *Service) settleVenue(ctx context.Context, venue dbgen.Venue, date string) (Deposit, string, error) {
	var (
		deposit dbgen.Deposit
		skip    string
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		_, err := tx.Queries.GetDepositByVenueDate(ctx, dbgen.GetDepositByVenueDateParams{
			VenueID:     venue.ID,
			DepositDate: date,
		})
		switch {
		case err == nil:
			skip = SkipAlreadyGenerated
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("load deposit: %w", err)
		}

		totals, err := tx.Queries.SumConfirmedReservationsForVenueDate(ctx, dbgen.SumConfirmedReservationsForVenueDateParams{
			VenueID: venue.ID,
			Date:    date,
		})
		if err != nil {
			return fmt.Errorf("sum reservations: %w", err)
		}
		if totals.ReservationCount == 0 {
			skip = SkipNoReservations
			return nil
		}

		b := Compute(totals.TotalAmount, EffectiveRate(venue, date), s.opts.TaxRateBPS)
		deposit, err = tx.Queries.CreateDeposit(ctx, dbgen.CreateDepositParams{
			VenueID:                venue.ID,
			DepositDate:            date,
			TotalReservationAmount: b.Gross,
			ReservationCount:       totals.ReservationCount,
			CommissionRateBps:      b.RateBPS,
			CommissionAmount:       b.Commission,
			CommissionTax:          b.Tax,
			CommissionTotal:        b.Total,
			NetDepositAmount:       b.Net,
		})
		if err != nil {
			if appdb.IsUniqueViolation(err) {
				skip = SkipAlreadyGenerated
				return nil
			}
			return fmt.Errorf("insert deposit: %w", err)
		}

		assigned, err := tx.Queries.AssignReservationsToDeposit(ctx, dbgen.AssignReservationsToDepositParams{
			DepositID: sql.NullInt64{Int64: deposit.ID, Valid: true},
			Date:      date,
			VenueID:   venue.ID,
		})
		if err != nil {
			return fmt.Errorf("assign reservations: %w", err)
		}
		if assigned != totals.ReservationCount {
			return fmt.Errorf("assigned %d reservations, summed %d", assigned, totals.ReservationCount)
		}
		return nil
	})
	if err != nil {
		return Deposit{}, "", err
	}
	if skip != "" {
		return Deposit{}, skip, nil
	}
	return fromRow(deposit), "", nil
}

// MarkPaid records that a deposit was transferred to its venue. Paid
// deposits are immutable; marking one again returns it unchanged.
func (s *Service) MarkPaid(ctx context.Context, depositID int64) (Deposit, error) {
	var row dbgen.Deposit
	var changed bool
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		current, err := tx.Queries.GetDeposit(ctx, depositID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", ErrNotFound, depositID)
			}
			return fmt.Errorf("load deposit: %w", err)
		}
		if current.Status == StatusPaid {
			row = current
			return nil
		}
		row, err = tx.Queries.MarkDepositPaid(ctx, dbgen.MarkDepositPaidParams{
			PaidAt: sql.NullTime{Time: s.clock.Now().UTC(), Valid: true},
			ID:     depositID,
		})
		if err != nil {
			return fmt.Errorf("mark deposit paid: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return Deposit{}, err
	}
	if changed {
		log.Ctx(ctx).Info().Int64("deposit_id", depositID).Int64("venue_id", row.VenueID).Msg("Deposit marked paid")
	}
	return fromRow(row), nil
}

func (s *Service) ListDeposits(ctx context.Context, date string) ([]Deposit, error) {
	if _, err := time.ParseInLocation(dateLayout, date, s.opts.Location); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	rows, err := s.db.Queries.ListDepositsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	out := make([]Deposit, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Today returns the current calendar date in the settlement timezone.
func (s *Service) Today() string {
	return s.clock.Now().In(s.opts.Location).Format(dateLayout)
}

func fromRow(row dbgen.Deposit) Deposit {
	d := Deposit{
		ID:                     row.ID,
		VenueID:                row.VenueID,
		Date:                   row.DepositDate,
		TotalReservationAmount: row.TotalReservationAmount,
		ReservationCount:       row.ReservationCount,
		CommissionRateBPS:      row.CommissionRateBps,
		CommissionAmount:       row.CommissionAmount,
		CommissionTax:          row.CommissionTax,
		CommissionTotal:        row.CommissionTotal,
		NetDepositAmount:       row.NetDepositAmount,
		Status:                 row.Status,
		CreatedAt:              row.CreatedAt,
	}
	if row.PaidAt.Valid {
		paid := row.PaidAt.Time
		d.PaidAt = &paid
	}
	return d
}
