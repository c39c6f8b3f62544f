package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

func TestCreateHoldRejectsOverlapWithReservation(t *testing.T) {
	env := newTestEnv(t)
	court := seedCourtFive(t, env)
	testutil.SeedReservation(t, env.db, court.ID, testDate, "10:00", "11:00", "ABC123", StatusConfirmed, 18000)

	_, err := env.svc.CreateHold(context.Background(), HoldRequest{
		CourtID:   5,
		Date:      testDate,
		Start:     "10:00",
		End:       "11:00",
		SessionID: "s1",
	})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// The neighbouring slot touches the reservation but does not overlap it.
	env.hold(t, court.ID, "11:00", "12:00", "s1")
}

func TestCreateHoldComputesPriceAndExpiry(t *testing.T) {
	env := newTestEnv(t)

	h, err := env.svc.CreateHold(context.Background(), HoldRequest{
		CourtID:   env.fx.Court.ID,
		Date:      testDate,
		Start:     "19:00",
		End:       "20:30",
		SessionID: "s1",
		Customer:  Customer{Name: "Ana Perez", RUT: "12.345.678-5", Email: "ana@example.cl"},
	})
	if err != nil {
		t.Fatalf("CreateHold: %v", err)
	}
	if h.TotalPrice != 30000 {
		t.Fatalf("expected 90 minutes at 20000/h = 30000, got %d", h.TotalPrice)
	}
	if want := env.clock.Now().Add(10 * time.Minute); !h.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", h.ExpiresAt, want)
	}
	if h.Customer.RUT != "12345678-5" {
		t.Fatalf("expected normalized RUT, got %q", h.Customer.RUT)
	}

	stored, err := env.svc.GetHold(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("GetHold: %v", err)
	}
	if stored.SessionID != "s1" || stored.Start != "19:00" || stored.End != "20:30" {
		t.Fatalf("unexpected stored hold %+v", stored)
	}
}

func TestCreateHoldValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courtID := env.fx.Court.ID

	inactive := testutil.SeedCourt(t, env.db, dbgen.CreateCourtParams{
		VenueID:     env.fx.Venue.ID,
		Name:        "Cerrada",
		HourlyPrice: 10000,
		Active:      false,
	})

	tests := []struct {
		name string
		req  HoldRequest
		want error
	}{
		{"bad date", HoldRequest{CourtID: courtID, Date: "2024/06/01", Start: "10:00", End: "11:00", SessionID: "s"}, ErrInvalidInput},
		{"zero length", HoldRequest{CourtID: courtID, Date: testDate, Start: "10:00", End: "10:00", SessionID: "s"}, ErrInvalidInput},
		{"inverted", HoldRequest{CourtID: courtID, Date: testDate, Start: "11:00", End: "10:00", SessionID: "s"}, ErrInvalidInput},
		{"missing session", HoldRequest{CourtID: courtID, Date: testDate, Start: "10:00", End: "11:00"}, ErrInvalidInput},
		{"before opening", HoldRequest{CourtID: courtID, Date: testDate, Start: "07:00", End: "08:00", SessionID: "s"}, ErrInvalidInput},
		{"in the past", HoldRequest{CourtID: courtID, Date: "2024-05-31", Start: "11:00", End: "12:00", SessionID: "s"}, ErrInvalidInput},
		{"bad rut", HoldRequest{CourtID: courtID, Date: testDate, Start: "10:00", End: "11:00", SessionID: "s", Customer: Customer{RUT: "12345678-9"}}, ErrInvalidInput},
		{"unknown court", HoldRequest{CourtID: 999, Date: testDate, Start: "10:00", End: "11:00", SessionID: "s"}, ErrNotFound},
		{"inactive court", HoldRequest{CourtID: inactive.ID, Date: testDate, Start: "10:00", End: "11:00", SessionID: "s"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.CreateHold(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateHoldConflictsAcrossSessions(t *testing.T) {
	env := newTestEnv(t)
	courtID := env.fx.Court.ID
	env.hold(t, courtID, "10:00", "12:00", "s1")

	_, err := env.svc.CreateHold(context.Background(), HoldRequest{
		CourtID: courtID, Date: testDate, Start: "11:00", End: "13:00", SessionID: "s2",
	})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap against another session's hold, got %v", err)
	}

	// Once the first hold expires the range is free again.
	env.clock.Advance(11 * time.Minute)
	env.hold(t, courtID, "11:00", "13:00", "s2")
}

func TestConcurrentCreateHoldOnlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t)
	courtID := env.fx.Court.ID

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		overlaps  int
		other     []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start, end := "10:00", "11:00"
			if i%2 == 1 {
				start, end = "10:30", "11:30"
			}
			_, err := env.svc.CreateHold(context.Background(), HoldRequest{
				CourtID:   courtID,
				Date:      testDate,
				Start:     start,
				End:       end,
				SessionID: "session",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrOverlap):
				overlaps++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if succeeded != 1 || overlaps != workers-1 {
		t.Fatalf("expected exactly one hold, got %d successes and %d overlaps", succeeded, overlaps)
	}
}

func TestReleaseHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := env.hold(t, env.fx.Court.ID, "16:00", "17:00", "owner")

	if err := env.svc.ReleaseHold(ctx, h.ID, "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := env.svc.ReleaseHold(ctx, h.ID, "owner"); err != nil {
		t.Fatalf("ReleaseHold: %v", err)
	}
	if err := env.svc.ReleaseHold(ctx, h.ID, "owner"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after release, got %v", err)
	}

	// The slot can be held again by someone else.
	env.hold(t, env.fx.Court.ID, "16:00", "17:00", "other")
}

func TestReleasePromotedHoldIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := env.hold(t, env.fx.Court.ID, "16:00", "17:00", "owner")
	if _, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1"); err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	if err := env.svc.ReleaseHold(ctx, h.ID, "owner"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestSweepExpiredHolds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courtID := env.fx.Court.ID

	promoted := env.hold(t, courtID, "10:00", "11:00", "s1")
	if _, err := env.svc.ConfirmReservation(ctx, promoted.ID, "pay-1"); err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	env.hold(t, courtID, "12:00", "13:00", "s2")

	env.clock.Advance(15 * time.Minute)
	env.hold(t, courtID, "14:00", "15:00", "s3")

	result, err := env.svc.SweepExpiredHolds(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredHolds: %v", err)
	}
	if result.Expired != 1 || result.Promoted != 0 {
		t.Fatalf("unexpected sweep result %+v", result)
	}

	env.clock.Advance(25 * time.Hour)
	result, err = env.svc.SweepExpiredHolds(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredHolds: %v", err)
	}
	if result.Expired != 1 || result.Promoted != 1 {
		t.Fatalf("unexpected second sweep result %+v", result)
	}

	// Promotion stays idempotent after the hold row is gone.
	res, err := env.svc.ConfirmReservation(ctx, promoted.ID, "pay-1")
	if err != nil {
		t.Fatalf("ConfirmReservation after sweep: %v", err)
	}
	if res.HoldID != promoted.ID {
		t.Fatalf("expected reservation for hold %s, got %+v", promoted.ID, res)
	}
}

func TestSlotChangeListener(t *testing.T) {
	env := newTestEnv(t)
	var changes []string
	env.svc.OnSlotChange(func(courtID int64, date string) {
		changes = append(changes, date)
	})

	h := env.hold(t, env.fx.Court.ID, "10:00", "11:00", "s1")
	if err := env.svc.ReleaseHold(context.Background(), h.ID, "s1"); err != nil {
		t.Fatalf("ReleaseHold: %v", err)
	}
	if len(changes) != 2 || changes[0] != testDate || changes[1] != testDate {
		t.Fatalf("unexpected change notifications %v", changes)
	}
}
