// Package booking implements court availability, temporary holds and the
// reservation lifecycle.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/slotlock"
)

type Options struct {
	HoldTTL       time.Duration
	HoldRetention time.Duration
	CodeAttempts  int
	PhoneRegion   string
	// Location is the canonical timezone calendar dates are interpreted in.
	Location *time.Location
}

// Notifier is told about reservations that became confirmed.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, res Reservation)
}

// SlotChangeFunc is called after a committed mutation that may change the
// availability of courtID on date. An empty date means every date.
type SlotChangeFunc func(courtID int64, date string)

type Service struct {
	db     *appdb.DB
	locker slotlock.Locker
	clock  clockwork.Clock
	opts   Options

	mu        sync.RWMutex
	notifier  Notifier
	listeners []SlotChangeFunc

	newCode func() (string, error)
}

func NewService(database *appdb.DB, locker slotlock.Locker, clock clockwork.Clock, opts Options) *Service {
	if locker == nil {
		locker = slotlock.NewMemory()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.HoldTTL <= 0 {
		opts.HoldTTL = 10 * time.Minute
	}
	if opts.HoldRetention <= 0 {
		opts.HoldRetention = 24 * time.Hour
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = 5
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "CL"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		db:      database,
		locker:  locker,
		clock:   clock,
		opts:    opts,
		newCode: newReservationCode,
	}
}

// SetNotifier installs the confirmation notifier. A nil notifier disables it.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// OnSlotChange registers fn to be called after availability-changing commits.
func (s *Service) OnSlotChange(fn SlotChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) slotChanged(courtID int64, date string) {
	s.mu.RLock()
	listeners := append([]SlotChangeFunc(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(courtID, date)
	}
}

func (s *Service) confirmed(ctx context.Context, res Reservation) {
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		n.ReservationConfirmed(ctx, res)
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Location returns the canonical booking timezone.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// withSlotLock runs fn in a transaction while holding the (court, date) lock.
func (s *Service) withSlotLock(ctx context.Context, courtID int64, date string, fn func(*appdb.DB) error) error {
	release, err := s.locker.Lock(ctx, slotlock.Key(courtID, date))
	if err != nil {
		return fmt.Errorf("lock court %d on %s: %w", courtID, date, err)
	}
	defer release()
	return s.db.RunInTx(ctx, fn)
}

// loadCourt returns the court with its venue hours or ErrNotFound.
func loadCourt(ctx context.Context, q *dbgen.Queries, courtID int64) (dbgen.GetCourtWithVenueRow, error) {
	court, err := q.GetCourtWithVenue(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return court, notFound(fmt.Sprintf("court %d", courtID))
		}
		return court, fmt.Errorf("load court %d: %w", courtID, err)
	}
	return court, nil
}

// operatingHours parses the venue's opening window.
func operatingHours(court dbgen.GetCourtWithVenueRow) (Interval, error) {
	hours, err := ParseRange(court.OpensAt, court.ClosesAt)
	if err != nil {
		return Interval{}, fmt.Errorf("venue %d operating hours: %w", court.VenueID, err)
	}
	return hours, nil
}

// occupancy collects the intervals that make a court unavailable on date:
// pending/confirmed reservations, active holds and matching court blocks.
type occupancy struct {
	reservations []Interval
	holds        []Interval
	blocks       []Interval

	// holdsExpireAt is the earliest expiry among holds, zero without holds.
	holdsExpireAt time.Time
}

func (o occupancy) all() []Interval {
	out := make([]Interval, 0, len(o.reservations)+len(o.holds)+len(o.blocks))
	out = append(out, o.reservations...)
	out = append(out, o.holds...)
	out = append(out, o.blocks...)
	return out
}

// loadOccupancy reads the occupied intervals for courtID on date as of now.
// excludeReservationID skips one reservation, used when reinstating it.
func (s *Service) loadOccupancy(ctx context.Context, q *dbgen.Queries, courtID int64, date string, day time.Time, now time.Time, excludeReservationID int64) (occupancy, error) {
	var occ occupancy

	reservations, err := q.ListActiveReservationsForCourtDate(ctx, dbgen.ListActiveReservationsForCourtDateParams{
		CourtID: courtID,
		Date:    date,
	})
	if err != nil {
		return occ, fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range reservations {
		if r.ID == excludeReservationID {
			continue
		}
		iv, err := ParseRange(r.StartTime, r.EndTime)
		if err != nil {
			return occ, fmt.Errorf("reservation %d: %w", r.ID, err)
		}
		occ.reservations = append(occ.reservations, iv)
	}

	holds, err := q.ListActiveHoldsForCourtDate(ctx, dbgen.ListActiveHoldsForCourtDateParams{
		CourtID: courtID,
		Date:    date,
		Now:     now.UnixMilli(),
	})
	if err != nil {
		return occ, fmt.Errorf("list holds: %w", err)
	}
	for _, h := range holds {
		iv, err := ParseRange(h.StartTime, h.EndTime)
		if err != nil {
			return occ, fmt.Errorf("hold %s: %w", h.ID, err)
		}
		occ.holds = append(occ.holds, iv)
		expiresAt := time.UnixMilli(h.ExpiresAt)
		if occ.holdsExpireAt.IsZero() || expiresAt.Before(occ.holdsExpireAt) {
			occ.holdsExpireAt = expiresAt
		}
	}

	blocks, err := q.ListActiveCourtBlocks(ctx, courtID)
	if err != nil {
		return occ, fmt.Errorf("list court blocks: %w", err)
	}
	for _, b := range blocks {
		iv, ok, err := blockInterval(b, date, day.Weekday())
		if err != nil {
			return occ, fmt.Errorf("court block %d: %w", b.ID, err)
		}
		if ok {
			occ.blocks = append(occ.blocks, iv)
		}
	}

	return occ, nil
}

// startsInPast reports whether the wall-clock start on day is not after now.
func startsInPast(day time.Time, startMinutes int, now time.Time) bool {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, startMinutes, 0, 0, day.Location())
	return !start.After(now)
}
