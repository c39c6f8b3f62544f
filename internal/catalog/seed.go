package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/reservatuscanchas/canchas/internal/booking"
	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// SeedFile is the YAML layout accepted by Seed.
type SeedFile struct {
	Cities []SeedCity `yaml:"cities"`
}

type SeedCity struct {
	Name   string      `yaml:"name"`
	Venues []SeedVenue `yaml:"venues"`
}

type SeedVenue struct {
	Name                string      `yaml:"name"`
	Address             string      `yaml:"address"`
	OpensAt             string      `yaml:"opens_at"`
	ClosesAt            string      `yaml:"closes_at"`
	CommissionRateBPS   *int64      `yaml:"commission_rate_bps"`
	CommissionStartDate string      `yaml:"commission_start_date"`
	Courts              []SeedCourt `yaml:"courts"`
}

type SeedCourt struct {
	Name        string `yaml:"name"`
	Sport       string `yaml:"sport"`
	HourlyPrice int64  `yaml:"hourly_price"`
	SlotMinutes int64  `yaml:"slot_minutes"`
	Inactive    bool   `yaml:"inactive"`
}

// SeedDefaults fill venue and court fields the seed file leaves out.
type SeedDefaults struct {
	CommissionRateBPS int64
	SlotMinutes       int64
}

// SeedResult counts the rows Seed inserted. Rows that already existed by
// name are not counted.
type SeedResult struct {
	Cities int `json:"cities"`
	Venues int `json:"venues"`
	Courts int `json:"courts"`
}

// ParseSeed decodes and validates a seed file, applying defaults.
func ParseSeed(r io.Reader, defaults SeedDefaults) (SeedFile, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return file, fmt.Errorf("%w: seed file is empty", ErrInvalidInput)
		}
		return file, fmt.Errorf("%w: parse seed file: %v", ErrInvalidInput, err)
	}

	for ci := range file.Cities {
		city := &file.Cities[ci]
		city.Name = strings.TrimSpace(city.Name)
		if city.Name == "" {
			return file, fmt.Errorf("%w: city %d has no name", ErrInvalidInput, ci+1)
		}
		for vi := range city.Venues {
			venue := &city.Venues[vi]
			if err := venue.normalize(defaults); err != nil {
				return file, fmt.Errorf("%w: venue %q in %s: %v", ErrInvalidInput, venue.Name, city.Name, err)
			}
		}
	}
	return file, nil
}

func (v *SeedVenue) normalize(defaults SeedDefaults) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.OpensAt == "" {
		v.OpensAt = "08:00"
	}
	if v.ClosesAt == "" {
		v.ClosesAt = "24:00"
	}
	opens, err := booking.ParseClock(v.OpensAt)
	if err != nil {
		return err
	}
	closes, err := booking.ParseClock(v.ClosesAt)
	if err != nil {
		return err
	}
	if opens >= closes {
		return fmt.Errorf("opens_at must be before closes_at")
	}
	if v.CommissionRateBPS == nil {
		rate := defaults.CommissionRateBPS
		v.CommissionRateBPS = &rate
	}
	if *v.CommissionRateBPS < 0 || *v.CommissionRateBPS > 10000 {
		return fmt.Errorf("commission_rate_bps must be between 0 and 10000")
	}
	if v.CommissionStartDate != "" {
		if _, err := booking.ParseDate(v.CommissionStartDate, nil); err != nil {
			return fmt.Errorf("commission_start_date must be YYYY-MM-DD")
		}
	}

	for i := range v.Courts {
		court := &v.Courts[i]
		court.Name = strings.TrimSpace(court.Name)
		court.Sport = strings.ToLower(strings.TrimSpace(court.Sport))
		if court.Name == "" {
			return fmt.Errorf("court %d has no name", i+1)
		}
		if !ValidSport(court.Sport) {
			return fmt.Errorf("court %q has unknown sport %q", court.Name, court.Sport)
		}
		if court.HourlyPrice < 0 {
			return fmt.Errorf("court %q has a negative price", court.Name)
		}
		if court.SlotMinutes == 0 {
			court.SlotMinutes = defaults.SlotMinutes
		}
		if court.SlotMinutes <= 0 {
			return fmt.Errorf("court %q needs positive slot_minutes", court.Name)
		}
	}
	return nil
}

// Seed inserts the catalog described by file in one transaction. Cities,
// venues and courts that already exist by name are reused, so a seed file
// can be applied more than once.
func Seed(ctx context.Context, database *appdb.DB, file SeedFile) (SeedResult, error) {
	var result SeedResult
	err := database.RunInTx(ctx, func(tx *appdb.DB) error {
		existing, err := tx.Queries.ListCities(ctx)
		if err != nil {
			return fmt.Errorf("list cities: %w", err)
		}
		cityIDs := make(map[string]int64, len(existing))
		for _, c := range existing {
			cityIDs[c.Name] = c.ID
		}

		for _, city := range file.Cities {
			cityID, ok := cityIDs[city.Name]
			if !ok {
				row, err := tx.Queries.CreateCity(ctx, city.Name)
				if err != nil {
					return fmt.Errorf("create city %q: %w", city.Name, err)
				}
				cityID = row.ID
				cityIDs[city.Name] = cityID
				result.Cities++
			}
			for _, venue := range city.Venues {
				if err := seedVenue(ctx, tx.Queries, cityID, venue, &result); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	log.Ctx(ctx).Info().
		Int("cities", result.Cities).
		Int("venues", result.Venues).
		Int("courts", result.Courts).
		Msg("Catalog seeded")
	return result, nil
}

func seedVenue(ctx context.Context, q *dbgen.Queries, cityID int64, venue SeedVenue, result *SeedResult) error {
	venues, err := q.ListVenuesByCity(ctx, cityID)
	if err != nil {
		return fmt.Errorf("list venues: %w", err)
	}
	var venueID int64
	for _, v := range venues {
		if v.Name == venue.Name {
			venueID = v.ID
			break
		}
	}
	if venueID == 0 {
		startDate := sql.NullString{String: venue.CommissionStartDate, Valid: venue.CommissionStartDate != ""}
		row, err := q.CreateVenue(ctx, dbgen.CreateVenueParams{
			CityID:              cityID,
			Name:                venue.Name,
			Address:             venue.Address,
			OpensAt:             venue.OpensAt,
			ClosesAt:            venue.ClosesAt,
			CommissionRateBps:   *venue.CommissionRateBPS,
			CommissionStartDate: startDate,
		})
		if err != nil {
			return fmt.Errorf("create venue %q: %w", venue.Name, err)
		}
		venueID = row.ID
		result.Venues++
	}

	courts, err := q.ListCourtsByVenue(ctx, venueID)
	if err != nil {
		return fmt.Errorf("list courts: %w", err)
	}
	known := make(map[string]bool, len(courts))
	for _, c := range courts {
		known[c.Name] = true
	}
	for _, court := range venue.Courts {
		if known[court.Name] {
			continue
		}
		if _, err := q.CreateCourt(ctx, dbgen.CreateCourtParams{
			VenueID:     venueID,
			Name:        court.Name,
			Sport:       court.Sport,
			HourlyPrice: court.HourlyPrice,
			SlotMinutes: court.SlotMinutes,
			Active:      !court.Inactive,
		}); err != nil {
			return fmt.Errorf("create court %q: %w", court.Name, err)
		}
		known[court.Name] = true
		result.Courts++
	}
	return nil
}
