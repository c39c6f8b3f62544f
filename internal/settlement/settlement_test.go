package settlement

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *appdb.DB, testutil.Fixture, *clockwork.FakeClock) {
	t.Helper()
	database := testutil.NewTestDB(t)
	fx := testutil.SeedCatalog(t, database)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 2, 5, 0, 0, 0, time.UTC))
	svc := NewService(database, clock, Options{TaxRateBPS: 1900})
	return svc, database, fx, clock
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name           string
		gross, rate    int64
		tax            int64
		wantCommission int64
		wantTax        int64
		wantNet        int64
	}{
		{"standard rate", 40000, 350, 1900, 1400, 266, 38334},
		{"tax rounds half up", 15000, 350, 1900, 525, 100, 14375},
		{"commission rounds half up", 100, 350, 1900, 4, 1, 95},
		{"admin rate", 20000, 175, 1900, 350, 67, 19583},
		{"exempt", 50000, 0, 1900, 0, 0, 50000},
		{"zero gross", 0, 350, 1900, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Compute(tt.gross, tt.rate, tt.tax)
			if b.Commission != tt.wantCommission || b.Tax != tt.wantTax || b.Net != tt.wantNet {
				t.Fatalf("Compute(%d, %d, %d) = %+v", tt.gross, tt.rate, tt.tax, b)
			}
			if b.Total != b.Commission+b.Tax || b.Gross != b.Net+b.Total {
				t.Fatalf("breakdown does not add up: %+v", b)
			}
		})
	}
}

func TestGenerateDailyDepositsIsIdempotent(t *testing.T) {
	svc, database, fx, _ := newTestService(t)
	ctx := context.Background()
	date := "2024-06-01"

	other := testutil.SeedVenue(t, database, dbgen.CreateVenueParams{
		CityID:            fx.City.ID,
		Name:              "Padel Sur",
		CommissionRateBps: 350,
	})

	second := testutil.SeedCourt(t, database, dbgen.CreateCourtParams{
		VenueID:     fx.Venue.ID,
		Name:        "Cancha 2",
		HourlyPrice: 20000,
		Active:      true,
	})
	testutil.SeedReservation(t, database, fx.Court.ID, date, "10:00", "11:00", "DEP001", "confirmed", 20000)
	testutil.SeedReservation(t, database, second.ID, date, "10:00", "11:00", "DEP002", "confirmed", 20000)
	testutil.SeedReservation(t, database, fx.Court.ID, date, "12:00", "13:00", "DEP003", "pending", 20000)
	testutil.SeedReservation(t, database, fx.Court.ID, date, "14:00", "15:00", "DEP004", "cancelled", 20000)
	testutil.SeedReservation(t, database, fx.Court.ID, "2024-06-02", "10:00", "11:00", "DEP005", "confirmed", 20000)

	result, err := svc.GenerateDailyDeposits(ctx, date)
	if err != nil {
		t.Fatalf("GenerateDailyDeposits: %v", err)
	}
	if len(result.Created) != 1 {
		t.Fatalf("expected 1 deposit, got %+v", result)
	}
	d := result.Created[0]
	if d.VenueID != fx.Venue.ID || d.Status != StatusPending {
		t.Fatalf("unexpected deposit %+v", d)
	}
	if d.TotalReservationAmount != 40000 || d.ReservationCount != 2 {
		t.Fatalf("expected gross 40000 over 2 reservations, got %d over %d", d.TotalReservationAmount, d.ReservationCount)
	}
	if d.CommissionAmount != 1400 || d.CommissionTax != 266 || d.CommissionTotal != 1666 || d.NetDepositAmount != 38334 {
		t.Fatalf("unexpected amounts %+v", d)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != (Skip{VenueID: other.ID, Reason: SkipNoReservations}) {
		t.Fatalf("unexpected skips %+v", result.Skipped)
	}

	for code, wantDeposit := range map[string]bool{"DEP001": true, "DEP002": true, "DEP003": false, "DEP004": false, "DEP005": false} {
		res, err := database.Queries.GetReservationByCode(ctx, code)
		if err != nil {
			t.Fatalf("GetReservationByCode %s: %v", code, err)
		}
		if res.DepositID.Valid != wantDeposit {
			t.Fatalf("%s deposit_id=%v, want set=%v", code, res.DepositID, wantDeposit)
		}
		if wantDeposit && res.DepositID.Int64 != d.ID {
			t.Fatalf("%s assigned to deposit %d, want %d", code, res.DepositID.Int64, d.ID)
		}
	}

	again, err := svc.GenerateDailyDeposits(ctx, date)
	if err != nil {
		t.Fatalf("second GenerateDailyDeposits: %v", err)
	}
	if len(again.Created) != 0 {
		t.Fatalf("expected no new deposits, got %+v", again.Created)
	}
	wantSkips := []Skip{
		{VenueID: fx.Venue.ID, Reason: SkipAlreadyGenerated},
		{VenueID: other.ID, Reason: SkipNoReservations},
	}
	if len(again.Skipped) != len(wantSkips) || again.Skipped[0] != wantSkips[0] || again.Skipped[1] != wantSkips[1] {
		t.Fatalf("skips = %+v, want %+v", again.Skipped, wantSkips)
	}

	deposits, err := svc.ListDeposits(ctx, date)
	if err != nil {
		t.Fatalf("ListDeposits: %v", err)
	}
	if len(deposits) != 1 || deposits[0].ID != d.ID {
		t.Fatalf("expected exactly one stored deposit, got %+v", deposits)
	}
}

func TestGenerateDailyDepositsCommissionExemption(t *testing.T) {
	svc, database, fx, _ := newTestService(t)
	ctx := context.Background()

	if _, err := database.Queries.UpdateVenueCommission(ctx, dbgen.UpdateVenueCommissionParams{
		CommissionRateBps:   350,
		CommissionStartDate: sql.NullString{String: "2026-01-01", Valid: true},
		ID:                  fx.Venue.ID,
	}); err != nil {
		t.Fatalf("UpdateVenueCommission: %v", err)
	}
	testutil.SeedReservation(t, database, fx.Court.ID, "2025-12-15", "10:00", "12:00", "EXM001", "confirmed", 40000)
	testutil.SeedReservation(t, database, fx.Court.ID, "2026-01-01", "10:00", "12:00", "EXM002", "confirmed", 40000)

	before, err := svc.GenerateDailyDeposits(ctx, "2025-12-15")
	if err != nil {
		t.Fatalf("GenerateDailyDeposits: %v", err)
	}
	if len(before.Created) != 1 {
		t.Fatalf("expected a deposit, got %+v", before)
	}
	exempt := before.Created[0]
	if exempt.CommissionRateBPS != 0 || exempt.CommissionTotal != 0 || exempt.NetDepositAmount != 40000 {
		t.Fatalf("expected exempt deposit, got %+v", exempt)
	}

	onStart, err := svc.GenerateDailyDeposits(ctx, "2026-01-01")
	if err != nil {
		t.Fatalf("GenerateDailyDeposits: %v", err)
	}
	charged := onStart.Created[0]
	if charged.CommissionRateBPS != 350 || charged.CommissionAmount != 1400 || charged.NetDepositAmount != 38334 {
		t.Fatalf("expected commission from the start date on, got %+v", charged)
	}
}

func TestMarkPaid(t *testing.T) {
	svc, database, fx, clock := newTestService(t)
	ctx := context.Background()
	testutil.SeedReservation(t, database, fx.Court.ID, "2024-06-01", "10:00", "11:00", "PAY001", "confirmed", 20000)

	result, err := svc.GenerateDailyDeposits(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("GenerateDailyDeposits: %v", err)
	}
	id := result.Created[0].ID

	paid, err := svc.MarkPaid(ctx, id)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != StatusPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(clock.Now()) {
		t.Fatalf("unexpected paid deposit %+v", paid)
	}

	clock.Advance(time.Hour)
	again, err := svc.MarkPaid(ctx, id)
	if err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if again.PaidAt == nil || !again.PaidAt.Equal(*paid.PaidAt) {
		t.Fatalf("paid deposit changed: %+v", again)
	}

	if _, err := svc.MarkPaid(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInvalidDates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GenerateDailyDeposits(ctx, "2024-6-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.ListDeposits(ctx, "yesterday"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestToday(t *testing.T) {
	database := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 02:00 UTC on June 2 is still June 1 in Santiago.
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 2, 2, 0, 0, 0, time.UTC))
	svc := NewService(database, clock, Options{TaxRateBPS: 1900, Location: loc})
	if got := svc.Today(); got != "2024-06-01" {
		t.Fatalf("Today() = %s, want 2024-06-01", got)
	}
}
