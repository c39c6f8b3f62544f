package booking

import (
	"context"
)

// GetAvailability returns the slot grid for a court on date with each cell
// marked available unless it intersects an occupied interval.
func (s *Service) GetAvailability(ctx context.Context, courtID int64, date string) (Availability, error) {
	day, err := ParseDate(date, s.opts.Location)
	if err != nil {
		return Availability{}, invalidInput("date", "must be YYYY-MM-DD")
	}

	q := s.db.Queries
	court, err := loadCourt(ctx, q, courtID)
	if err != nil {
		return Availability{}, err
	}
	hours, err := operatingHours(court)
	if err != nil {
		return Availability{}, err
	}

	occ, err := s.loadOccupancy(ctx, q, courtID, date, day, s.clock.Now(), 0)
	if err != nil {
		return Availability{}, err
	}
	occupied := MergeIntervals(occ.all())

	step := int(court.SlotMinutes)
	grid := SlotGrid(hours.Start, hours.End, step)

	result := Availability{
		CourtID:     courtID,
		Date:        date,
		SlotMinutes: step,
		Slots:       make([]Slot, 0, len(grid)),
		Occupied:    make([]TimeRange, 0, len(occupied)),
		validUntil:  occ.holdsExpireAt,
	}
	for _, cell := range grid {
		result.Slots = append(result.Slots, Slot{
			Start:     FormatClock(cell.Start),
			End:       FormatClock(cell.End),
			Available: court.Active && !overlapsAny(cell, occupied),
		})
	}
	for _, iv := range occupied {
		result.Occupied = append(result.Occupied, TimeRange{
			Start: FormatClock(iv.Start),
			End:   FormatClock(iv.End),
		})
	}
	return result, nil
}
