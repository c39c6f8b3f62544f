package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// Fixture is the minimal catalog most booking tests start from: one city,
// one venue open 08:00-24:00 and one 60-minute soccer court at 20000/hour.
type Fixture struct {
	City  dbgen.City
	Venue dbgen.Venue
	Court dbgen.Court
}

// SeedCatalog inserts the default Fixture.
func SeedCatalog(t *testing.T, database *db.DB) Fixture {
	t.Helper()

	city := SeedCity(t, database, "Santiago")
	venue := SeedVenue(t, database, dbgen.CreateVenueParams{
		CityID:            city.ID,
		Name:              "Complejo Norte",
		OpensAt:           "08:00",
		ClosesAt:          "24:00",
		CommissionRateBps: 350,
	})
	court := SeedCourt(t, database, dbgen.CreateCourtParams{
		VenueID:     venue.ID,
		Name:        "Cancha 1",
		Sport:       "soccer",
		HourlyPrice: 20000,
		SlotMinutes: 60,
		Active:      true,
	})
	return Fixture{City: city, Venue: venue, Court: court}
}

func SeedCity(t *testing.T, database *db.DB, name string) dbgen.City {
	t.Helper()
	city, err := database.Queries.CreateCity(context.Background(), name)
	if err != nil {
		t.Fatalf("seed city: %v", err)
	}
	return city
}

func SeedVenue(t *testing.T, database *db.DB, params dbgen.CreateVenueParams) dbgen.Venue {
	t.Helper()
	if params.OpensAt == "" {
		params.OpensAt = "08:00"
	}
	if params.ClosesAt == "" {
		params.ClosesAt = "24:00"
	}
	venue, err := database.Queries.CreateVenue(context.Background(), params)
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	return venue
}

func SeedCourt(t *testing.T, database *db.DB, params dbgen.CreateCourtParams) dbgen.Court {
	t.Helper()
	if params.SlotMinutes == 0 {
		params.SlotMinutes = 60
	}
	if params.Sport == "" {
		params.Sport = "soccer"
	}
	court, err := database.Queries.CreateCourt(context.Background(), params)
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}

// SeedReservation inserts a reservation row directly, bypassing the hold flow.
func SeedReservation(t *testing.T, database *db.DB, courtID int64, date, start, end, code, status string, price int64) dbgen.Reservation {
	t.Helper()
	res, err := database.Queries.CreateReservation(context.Background(), dbgen.CreateReservationParams{
		CourtID:      courtID,
		HoldID:       sql.NullString{},
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		CustomerName: "Cliente Prueba",
		Code:         code,
		Status:       status,
		TotalPrice:   price,
	})
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	return res
}
