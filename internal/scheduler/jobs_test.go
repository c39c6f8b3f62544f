package scheduler

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/settlement"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepExpiredHolds(context.Context) (booking.SweepResult, error) {
	f.calls++
	return booking.SweepResult{Expired: 2}, f.err
}

type fakeGenerator struct {
	today string
	dates []string
}

func (f *fakeGenerator) GenerateDailyDeposits(_ context.Context, date string) (settlement.Result, error) {
	f.dates = append(f.dates, date)
	return settlement.Result{Date: date, Created: []settlement.Deposit{{VenueID: 1, Date: date}}}, nil
}

func (f *fakeGenerator) Today() string { return f.today }

func TestSweepHolds(t *testing.T) {
	sweeper := &fakeSweeper{}
	if err := SweepHolds(context.Background(), sweeper); err != nil {
		t.Fatalf("SweepHolds: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}

	sweeper.err = errors.New("db locked")
	if err := SweepHolds(context.Background(), sweeper); err == nil {
		t.Fatalf("expected sweep error to propagate")
	}
}

func TestGenerateDepositsUsesToday(t *testing.T) {
	gen := &fakeGenerator{today: "2024-06-01"}
	result, err := GenerateDeposits(context.Background(), gen)
	if err != nil {
		t.Fatalf("GenerateDeposits: %v", err)
	}
	if len(gen.dates) != 1 || gen.dates[0] != "2024-06-01" || result.Date != "2024-06-01" {
		t.Fatalf("unexpected generation %v / %+v", gen.dates, result)
	}
}

func TestRegisterBookingJobs(t *testing.T) {
	svc, err := New(clockwork.NewFakeClock(), time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	if err := RegisterBookingJobs(svc, &fakeSweeper{}, "* * * * *", &fakeGenerator{}, "59 23 * * *"); err != nil {
		t.Fatalf("RegisterBookingJobs: %v", err)
	}

	var names []string
	for _, job := range svc.Jobs() {
		names = append(names, job.Name())
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != depositsJobName || names[1] != holdSweepJobName {
		t.Fatalf("unexpected jobs %v", names)
	}
}

func TestAddJobValidation(t *testing.T) {
	svc, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	if _, err := svc.AddJob(" ", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := svc.AddJob("job", "", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Fatalf("expected invalid cron to fail")
	}

	var nilService *Service
	if _, err := nilService.AddJob("job", "* * * * *", func() {}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := RegisterBookingJobs(svc, nil, "* * * * *", nil, "* * * * *"); err == nil {
		t.Fatalf("expected missing dependencies to fail")
	}
}
