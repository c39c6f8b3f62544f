package booking

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

func TestConfirmReservationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := env.hold(t, env.fx.Court.ID, "18:00", "19:00", "s1")

	first, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1")
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	if first.Status != StatusPending || !validCode(first.Code) {
		t.Fatalf("unexpected reservation %+v", first)
	}
	if first.TotalPrice != h.TotalPrice || first.PaymentReference != "pay-1" {
		t.Fatalf("reservation did not inherit hold fields: %+v", first)
	}

	second, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1")
	if err != nil {
		t.Fatalf("second ConfirmReservation: %v", err)
	}
	if second.Code != first.Code || second.ID != first.ID {
		t.Fatalf("expected the same reservation, got %s then %s", first.Code, second.Code)
	}

	reservations, err := env.svc.ListReservations(ctx, env.fx.Court.ID, testDate)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(reservations) != 1 {
		t.Fatalf("expected one reservation, got %d", len(reservations))
	}

	stored, err := env.svc.GetHold(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHold: %v", err)
	}
	if stored.ReservationCode != first.Code {
		t.Fatalf("hold not linked to reservation: %+v", stored)
	}
}

func TestConfirmExpiredHold(t *testing.T) {
	env := newTestEnv(t)
	h := env.hold(t, env.fx.Court.ID, "14:00", "15:00", "s1")

	env.clock.Advance(11 * time.Minute)

	_, err := env.svc.ConfirmReservation(context.Background(), h.ID, "pay-1")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	reservations, err := env.svc.ListReservations(context.Background(), env.fx.Court.ID, testDate)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(reservations) != 0 {
		t.Fatalf("expected no reservation for an expired hold, got %+v", reservations)
	}
}

func TestConfirmUnknownHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.ConfirmReservation(ctx, "6f0c1d2e-0000-4000-8000-000000000000", "pay"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.ConfirmReservation(ctx, "  ", "pay"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConfirmRechecksReservations(t *testing.T) {
	env := newTestEnv(t)
	courtID := env.fx.Court.ID
	h := env.hold(t, courtID, "10:00", "11:00", "s1")

	// A reservation written outside the hold flow takes the range first.
	testutil.SeedReservation(t, env.db, courtID, testDate, "10:30", "11:30", "ZZZ999", StatusPending, 20000)

	_, err := env.svc.ConfirmReservation(context.Background(), h.ID, "pay-1")
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
}

func TestConfirmRetriesCodeCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, "2024-06-02", "10:00", "11:00", "ABC123", StatusConfirmed, 20000)

	codes := []string{"ABC123", "ABC123", "XYZ789"}
	var calls int
	env.svc.newCode = func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	}

	h := env.hold(t, env.fx.Court.ID, "10:00", "11:00", "s1")
	res, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1")
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	if res.Code != "XYZ789" || calls != 3 {
		t.Fatalf("expected XYZ789 after 3 attempts, got %s after %d", res.Code, calls)
	}
}

func TestConfirmGivesUpAfterCodeAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, "2024-06-02", "10:00", "11:00", "ABC123", StatusConfirmed, 20000)
	env.svc.newCode = func() (string, error) { return "ABC123", nil }

	h := env.hold(t, env.fx.Court.ID, "10:00", "11:00", "s1")
	if _, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1"); err == nil {
		t.Fatalf("expected failure when every code collides")
	}

	// The transaction rolled back, so the hold is still unpromoted.
	stored, err := env.svc.GetHold(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHold: %v", err)
	}
	if stored.ReservationCode != "" {
		t.Fatalf("hold should not be linked, got %q", stored.ReservationCode)
	}

	env.svc.newCode = newReservationCode
	if _, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1"); err != nil {
		t.Fatalf("ConfirmReservation after recovery: %v", err)
	}
}

func TestMarkConfirmedNotifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	env.svc.SetNotifier(notifier)

	h := env.hold(t, env.fx.Court.ID, "20:00", "21:00", "s1")
	res, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1")
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}

	confirmed, err := env.svc.MarkConfirmed(ctx, res.Code, "", 20000)
	if err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if confirmed.Status != StatusConfirmed || confirmed.AmountPaid != 20000 || confirmed.PaymentReference != "pay-1" {
		t.Fatalf("unexpected confirmed reservation %+v", confirmed)
	}

	again, err := env.svc.MarkConfirmed(ctx, res.Code, "pay-2", 20000)
	if err != nil {
		t.Fatalf("second MarkConfirmed: %v", err)
	}
	if again.Status != StatusConfirmed || again.PaymentReference != "pay-1" {
		t.Fatalf("repeated confirmation changed the reservation: %+v", again)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.count())
	}
}

func TestMarkCancelledTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courtID := env.fx.Court.ID

	pending := testutil.SeedReservation(t, env.db, courtID, testDate, "10:00", "11:00", "PEN001", StatusPending, 20000)
	testutil.SeedReservation(t, env.db, courtID, testDate, "12:00", "13:00", "CON001", StatusConfirmed, 20000)

	cancelled, err := env.svc.MarkCancelled(ctx, pending.Code, "payment rejected")
	if err != nil {
		t.Fatalf("MarkCancelled: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := env.svc.MarkCancelled(ctx, pending.Code, "again"); err != nil {
		t.Fatalf("cancelling twice should be a no-op, got %v", err)
	}
	if _, err := env.svc.MarkConfirmed(ctx, pending.Code, "late", 20000); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition confirming a cancelled reservation, got %v", err)
	}
	if _, err := env.svc.MarkCancelled(ctx, "CON001", "customer"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition cancelling a confirmed reservation, got %v", err)
	}

	// The cancelled range is free again.
	env.hold(t, courtID, "10:00", "11:00", "s2")
}

func TestOverrideStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courtID := env.fx.Court.ID
	testutil.SeedReservation(t, env.db, courtID, testDate, "10:00", "11:00", "OVR001", StatusConfirmed, 20000)

	res, err := env.svc.OverrideStatus(ctx, "ovr001", StatusCancelled, "admin@canchas", "duplicate booking")
	if err != nil {
		t.Fatalf("OverrideStatus cancel: %v", err)
	}
	if res.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", res.Status)
	}

	// Someone else takes the freed range, so reinstating must fail.
	h := env.hold(t, courtID, "10:30", "11:30", "s1")
	if _, err := env.svc.OverrideStatus(ctx, "OVR001", StatusConfirmed, "admin@canchas", "restore"); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap reinstating over a hold, got %v", err)
	}

	if err := env.svc.ReleaseHold(ctx, h.ID, "s1"); err != nil {
		t.Fatalf("ReleaseHold: %v", err)
	}
	res, err = env.svc.OverrideStatus(ctx, "OVR001", StatusConfirmed, "admin@canchas", "restore")
	if err != nil {
		t.Fatalf("OverrideStatus reinstate: %v", err)
	}
	if res.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", res.Status)
	}

	if _, err := env.svc.OverrideStatus(ctx, "OVR001", "refunded", "admin@canchas", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := env.svc.OverrideStatus(ctx, "OVR001", StatusPending, " ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without actor, got %v", err)
	}

	history, err := env.svc.StatusHistory(ctx, "OVR001")
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 status log entries, got %+v", history)
	}
	if history[0].From != StatusConfirmed || history[0].To != StatusCancelled || history[0].Actor != "admin@canchas" {
		t.Fatalf("unexpected first entry %+v", history[0])
	}
	if history[1].From != StatusCancelled || history[1].To != StatusConfirmed {
		t.Fatalf("unexpected second entry %+v", history[1])
	}
}

func TestStatusHistoryFollowsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	h := env.hold(t, env.fx.Court.ID, "21:00", "22:00", "s1")
	res, err := env.svc.ConfirmReservation(ctx, h.ID, "pay-1")
	if err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	if _, err := env.svc.MarkConfirmed(ctx, res.Code, "pay-1", res.TotalPrice); err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}

	history, err := env.svc.StatusHistory(ctx, res.Code)
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %+v", history)
	}
	if history[0].From != "" || history[0].To != StatusPending || history[0].Actor != SystemActor {
		t.Fatalf("unexpected promotion entry %+v", history[0])
	}
	if history[1].From != StatusPending || history[1].To != StatusConfirmed {
		t.Fatalf("unexpected payment entry %+v", history[1])
	}
}

func TestCorrectPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := testutil.SeedReservation(t, env.db, env.fx.Court.ID, testDate, "10:00", "11:00", "PRC001", StatusConfirmed, 20000)

	updated, err := env.svc.CorrectPrice(ctx, res.Code, 15000, "admin@canchas")
	if err != nil {
		t.Fatalf("CorrectPrice: %v", err)
	}
	if updated.TotalPrice != 15000 {
		t.Fatalf("expected 15000, got %d", updated.TotalPrice)
	}
	if _, err := env.svc.CorrectPrice(ctx, res.Code, -1, "admin@canchas"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative price, got %v", err)
	}

	settleTestDate(t, env, 15000)

	if _, err := env.svc.CorrectPrice(ctx, res.Code, 10000, "admin@canchas"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict once settled, got %v", err)
	}
}

// settleTestDate records a deposit for the fixture venue on testDate and
// assigns its confirmed reservations to it.
func settleTestDate(t *testing.T, env *testEnv, gross int64) dbgen.Deposit {
	t.Helper()
	ctx := context.Background()
	deposit, err := env.db.Queries.CreateDeposit(ctx, dbgen.CreateDepositParams{
		VenueID:                env.fx.Venue.ID,
		DepositDate:            testDate,
		TotalReservationAmount: gross,
		ReservationCount:       1,
		CommissionRateBps:      350,
		CommissionAmount:       525,
		CommissionTax:          100,
		CommissionTotal:        625,
		NetDepositAmount:       gross - 625,
	})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	if _, err := env.db.Queries.AssignReservationsToDeposit(ctx, dbgen.AssignReservationsToDepositParams{
		DepositID: sql.NullInt64{Int64: deposit.ID, Valid: true},
		Date:      testDate,
		VenueID:   env.fx.Venue.ID,
	}); err != nil {
		t.Fatalf("AssignReservationsToDeposit: %v", err)
	}
	return deposit
}

func TestOverrideStatusKeepsSettledReservationsConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, testDate, "10:00", "11:00", "SET001", StatusConfirmed, 20000)
	deposit := settleTestDate(t, env, 20000)

	for _, status := range []string{StatusCancelled, StatusPending} {
		if _, err := env.svc.OverrideStatus(ctx, "SET001", status, "admin@canchas", "refund"); !errors.Is(err, ErrConflict) {
			t.Fatalf("override to %s: expected ErrConflict, got %v", status, err)
		}
	}

	res, err := env.svc.OverrideStatus(ctx, "SET001", StatusConfirmed, "admin@canchas", "")
	if err != nil {
		t.Fatalf("override to confirmed should be a no-op: %v", err)
	}
	if res.Status != StatusConfirmed || res.DepositID != deposit.ID {
		t.Fatalf("unexpected reservation %+v", res)
	}
	history, err := env.svc.StatusHistory(ctx, "SET001")
	if err != nil {
		t.Fatalf("StatusHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no status changes, got %+v", history)
	}
}

func TestMarkConfirmedAfterDepositWarns(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, testDate, "09:00", "10:00", "LATE01", StatusPending, 20000)
	settleTestDate(t, env, 20000)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	res, err := env.svc.MarkConfirmed(ctx, "LATE01", "pay-late", 20000)
	if err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if res.Status != StatusConfirmed || res.DepositID != 0 {
		t.Fatalf("unexpected reservation %+v", res)
	}
	if !strings.Contains(buf.String(), "confirmed after its deposit was generated") {
		t.Fatalf("expected a late settlement warning, got logs:\n%s", buf.String())
	}
}

func TestMarkConfirmedWithoutDepositDoesNotWarn(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, testDate, "09:00", "10:00", "ONTIME", StatusPending, 20000)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	if _, err := env.svc.MarkConfirmed(ctx, "ONTIME", "pay-1", 20000); err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if strings.Contains(buf.String(), "after its deposit") {
		t.Fatalf("unexpected deposit warning:\n%s", buf.String())
	}
}

func TestGetReservationLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedReservation(t, env.db, env.fx.Court.ID, testDate, "10:00", "11:00", "LOOK01", StatusPending, 20000)

	res, err := env.svc.GetReservation(ctx, " look01 ")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if res.Code != "LOOK01" {
		t.Fatalf("unexpected reservation %+v", res)
	}
	if _, err := env.svc.GetReservation(ctx, "NOPE00"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.GetReservation(ctx, "bad-code"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
