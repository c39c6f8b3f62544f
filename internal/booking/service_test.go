package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/slotlock"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

const testDate = "2024-06-01"

type testEnv struct {
	svc   *Service
	db    *appdb.DB
	clock *clockwork.FakeClock
	fx    testutil.Fixture
}

func santiago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// newTestEnv returns a service whose clock reads 2024-05-31 12:00 in
// Santiago, the day before testDate.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc := santiago(t)
	database := testutil.NewTestDB(t)
	fx := testutil.SeedCatalog(t, database)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 31, 12, 0, 0, 0, loc))
	svc := NewService(database, slotlock.NewMemory(), clock, Options{
		HoldTTL:       10 * time.Minute,
		HoldRetention: 24 * time.Hour,
		CodeAttempts:  5,
		PhoneRegion:   "CL",
		Location:      loc,
	})
	return &testEnv{svc: svc, db: database, clock: clock, fx: fx}
}

func (e *testEnv) hold(t *testing.T, courtID int64, start, end, session string) Hold {
	t.Helper()
	h, err := e.svc.CreateHold(context.Background(), HoldRequest{
		CourtID:   courtID,
		Date:      testDate,
		Start:     start,
		End:       end,
		SessionID: session,
	})
	if err != nil {
		t.Fatalf("create hold %s-%s: %v", start, end, err)
	}
	return h
}

// seedCourtFive creates courts until one with id 5 exists and returns it.
func seedCourtFive(t *testing.T, e *testEnv) dbgen.Court {
	t.Helper()
	court := e.fx.Court
	for court.ID < 5 {
		court = testutil.SeedCourt(t, e.db, dbgen.CreateCourtParams{
			VenueID:     e.fx.Venue.ID,
			Name:        fmt.Sprintf("Cancha %d", court.ID+1),
			Sport:       "padel",
			HourlyPrice: 18000,
			SlotMinutes: 60,
			Active:      true,
		})
	}
	if court.ID != 5 {
		t.Fatalf("expected court id 5, got %d", court.ID)
	}
	return court
}

type recordingNotifier struct {
	mu    sync.Mutex
	codes []string
}

func (n *recordingNotifier) ReservationConfirmed(_ context.Context, res Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, res.Code)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.codes)
}
