// Package catalog serves cities, venues and courts and the few admin edits
// the catalog allows.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// Sports a court can be booked for.
const (
	SportSoccer = "soccer"
	SportPadel  = "padel"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Venue struct {
	ID                  int64  `json:"id"`
	CityID              int64  `json:"city_id"`
	Name                string `json:"name"`
	Address             string `json:"address,omitempty"`
	OpensAt             string `json:"opens_at"`
	ClosesAt            string `json:"closes_at"`
	CommissionRateBPS   int64  `json:"commission_rate_bps"`
	CommissionStartDate string `json:"commission_start_date,omitempty"`
}

type Court struct {
	ID          int64  `json:"id"`
	VenueID     int64  `json:"venue_id"`
	Name        string `json:"name"`
	Sport       string `json:"sport"`
	HourlyPrice int64  `json:"hourly_price"`
	SlotMinutes int64  `json:"slot_minutes"`
	Active      bool   `json:"active"`
}

// CourtUpdate carries the mutable court fields. Nil fields are left as is.
type CourtUpdate struct {
	HourlyPrice *int64 `json:"hourly_price,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

type Service struct {
	db *appdb.DB
}

func NewService(database *appdb.DB) *Service {
	return &Service{db: database}
}

// ValidSport reports whether sport is one the catalog knows about.
func ValidSport(sport string) bool {
	return sport == SportSoccer || sport == SportPadel
}

func (s *Service) ListCities(ctx context.Context) ([]City, error) {
	rows, err := s.db.Queries.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	out := make([]City, 0, len(rows))
	for _, row := range rows {
		out = append(out, City{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// ListVenues returns the venues of a city. Unknown cities are NotFound so
// clients can tell them apart from cities without venues.
func (s *Service) ListVenues(ctx context.Context, cityID int64) ([]Venue, error) {
	if _, err := s.db.Queries.GetCity(ctx, cityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: city %d", ErrNotFound, cityID)
		}
		return nil, fmt.Errorf("load city: %w", err)
	}
	rows, err := s.db.Queries.ListVenuesByCity(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	out := make([]Venue, 0, len(rows))
	for _, row := range rows {
		out = append(out, venueFromRow(row))
	}
	return out, nil
}

func (s *Service) GetVenue(ctx context.Context, venueID int64) (Venue, error) {
	row, err := s.db.Queries.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Venue{}, fmt.Errorf("%w: venue %d", ErrNotFound, venueID)
		}
		return Venue{}, fmt.Errorf("load venue: %w", err)
	}
	return venueFromRow(row), nil
}

// ListCourts returns a venue's courts, optionally filtered by sport.
func (s *Service) ListCourts(ctx context.Context, venueID int64, sport string) ([]Court, error) {
	if _, err := s.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	sport = strings.ToLower(strings.TrimSpace(sport))
	var (
		rows []dbgen.Court
		err  error
	)
	switch {
	case sport == "":
		rows, err = s.db.Queries.ListCourtsByVenue(ctx, venueID)
	case ValidSport(sport):
		rows, err = s.db.Queries.ListCourtsByVenueAndSport(ctx, dbgen.ListCourtsByVenueAndSportParams{
			VenueID: venueID,
			Sport:   sport,
		})
	default:
		return nil, fmt.Errorf("%w: sport must be %s or %s", ErrInvalidInput, SportSoccer, SportPadel)
	}
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}

	out := make([]Court, 0, len(rows))
	for _, row := range rows {
		out = append(out, courtFromRow(row))
	}
	return out, nil
}

func (s *Service) GetCourt(ctx context.Context, courtID int64) (Court, error) {
	row, err := s.db.Queries.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, fmt.Errorf("%w: court %d", ErrNotFound, courtID)
		}
		return Court{}, fmt.Errorf("load court: %w", err)
	}
	return courtFromRow(row), nil
}

// UpdateCourt applies an admin edit to a court's price and/or active flag.
func (s *Service) UpdateCourt(ctx context.Context, courtID int64, update CourtUpdate, actor string) (Court, error) {
	if update.HourlyPrice == nil && update.Active == nil {
		return Court{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if update.HourlyPrice != nil && *update.HourlyPrice < 0 {
		return Court{}, fmt.Errorf("%w: hourly_price must be 0 or greater", ErrInvalidInput)
	}

	var (
		before dbgen.Court
		after  dbgen.Court
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		var err error
		before, err = tx.Queries.GetCourt(ctx, courtID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: court %d", ErrNotFound, courtID)
			}
			return fmt.Errorf("load court: %w", err)
		}
		after = before
		if update.HourlyPrice != nil {
			after, err = tx.Queries.UpdateCourtPrice(ctx, dbgen.UpdateCourtPriceParams{
				HourlyPrice: *update.HourlyPrice,
				ID:          courtID,
			})
			if err != nil {
				return fmt.Errorf("update price: %w", err)
			}
		}
		if update.Active != nil {
			after, err = tx.Queries.UpdateCourtActive(ctx, dbgen.UpdateCourtActiveParams{
				Active: *update.Active,
				ID:     courtID,
			})
			if err != nil {
				return fmt.Errorf("update active: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Court{}, err
	}

	log.Ctx(ctx).Info().
		Int64("court_id", courtID).
		Int64("previous_price", before.HourlyPrice).
		Int64("hourly_price", after.HourlyPrice).
		Bool("previous_active", before.Active).
		Bool("active", after.Active).
		Str("actor", actor).
		Msg("Court updated")
	return courtFromRow(after), nil
}

func venueFromRow(row dbgen.Venue) Venue {
	return Venue{
		ID:                  row.ID,
		CityID:              row.CityID,
		Name:                row.Name,
		Address:             row.Address,
		OpensAt:             row.OpensAt,
		ClosesAt:            row.ClosesAt,
		CommissionRateBPS:   row.CommissionRateBps,
		CommissionStartDate: row.CommissionStartDate.String,
	}
}

func courtFromRow(row dbgen.Court) Court {
	return Court{
		ID:          row.ID,
		VenueID:     row.VenueID,
		Name:        row.Name,
		Sport:       row.Sport,
		HourlyPrice: row.HourlyPrice,
		SlotMinutes: row.SlotMinutes,
		Active:      row.Active,
	}
}
