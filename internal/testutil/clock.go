package testutil

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
)

// BookingDate is a Saturday one day after the instant NewFakeClock starts at.
const BookingDate = "2024-06-01"

// Santiago loads the America/Santiago timezone.
func Santiago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

// NewFakeClock returns a fake clock at 2024-05-31 12:00 in Santiago.
func NewFakeClock(t *testing.T) (*clockwork.FakeClock, *time.Location) {
	t.Helper()
	loc := Santiago(t)
	return clockwork.NewFakeClockAt(time.Date(2024, 5, 31, 12, 0, 0, 0, loc)), loc
}
