package venues

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reservatuscanchas/canchas/internal/catalog"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

func setupVenuesTest(t *testing.T) (*http.ServeMux, testutil.Fixture) {
	t.Helper()

	database := testutil.NewTestDB(t)
	fx := testutil.SeedCatalog(t, database)
	testutil.SeedCourt(t, database, dbgen.CreateCourtParams{
		VenueID:     fx.Venue.ID,
		Name:        "Padel 1",
		Sport:       catalog.SportPadel,
		HourlyPrice: 16000,
		SlotMinutes: 90,
		Active:      true,
	})
	InitHandlers(catalog.NewService(database))

	mux := http.NewServeMux()
	RegisterRoutes(mux)
	return mux, fx
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCatalogHandlers(t *testing.T) {
	mux, fx := setupVenuesTest(t)

	rec := get(mux, "/api/v1/cities")
	if rec.Code != http.StatusOK {
		t.Fatalf("cities status: %d", rec.Code)
	}
	var cities []catalog.City
	if err := json.NewDecoder(rec.Body).Decode(&cities); err != nil {
		t.Fatalf("decode cities: %v", err)
	}
	if len(cities) != 1 || cities[0].ID != fx.City.ID {
		t.Fatalf("unexpected cities %+v", cities)
	}

	rec = get(mux, fmt.Sprintf("/api/v1/cities/%d/venues", fx.City.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("venues status: %d", rec.Code)
	}
	var venues []catalog.Venue
	if err := json.NewDecoder(rec.Body).Decode(&venues); err != nil {
		t.Fatalf("decode venues: %v", err)
	}
	if len(venues) != 1 || venues[0].OpensAt != "08:00" || venues[0].ClosesAt != "24:00" {
		t.Fatalf("unexpected venues %+v", venues)
	}

	rec = get(mux, fmt.Sprintf("/api/v1/venues/%d", fx.Venue.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("venue status: %d", rec.Code)
	}

	rec = get(mux, fmt.Sprintf("/api/v1/venues/%d/courts?sport=padel", fx.Venue.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("courts status: %d", rec.Code)
	}
	var courts []catalog.Court
	if err := json.NewDecoder(rec.Body).Decode(&courts); err != nil {
		t.Fatalf("decode courts: %v", err)
	}
	if len(courts) != 1 || courts[0].Sport != catalog.SportPadel || courts[0].SlotMinutes != 90 {
		t.Fatalf("unexpected courts %+v", courts)
	}

	rec = get(mux, fmt.Sprintf("/api/v1/venues/%d/courts", fx.Venue.ID))
	courts = nil
	if err := json.NewDecoder(rec.Body).Decode(&courts); err != nil {
		t.Fatalf("decode all courts: %v", err)
	}
	if len(courts) != 2 {
		t.Fatalf("expected both courts without a filter, got %+v", courts)
	}
}

func TestCatalogHandlerErrors(t *testing.T) {
	mux, fx := setupVenuesTest(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown city", "/api/v1/cities/999/venues", http.StatusNotFound},
		{"bad city id", "/api/v1/cities/abc/venues", http.StatusBadRequest},
		{"unknown venue", "/api/v1/venues/999", http.StatusNotFound},
		{"unknown venue courts", "/api/v1/venues/999/courts", http.StatusNotFound},
		{"bad sport", fmt.Sprintf("/api/v1/venues/%d/courts?sport=tennis", fx.Venue.ID), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(mux, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}
