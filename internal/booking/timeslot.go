package booking

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	minutesPerDay  = 24 * 60
	clockTimeWidth = len("HH:MM")
)

// Interval is a half-open range [Start, End) in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports strict intersection; touching ranges do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func (a Interval) Minutes() int {
	return a.End - a.Start
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(raw string) (int, error) {
	if len(raw) != clockTimeWidth || raw[2] != ':' {
		return 0, fmt.Errorf("time %q must be HH:MM", raw)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("time %q must be HH:MM", raw)
		}
	}
	hours, _ := strconv.Atoi(raw[:2])
	minutes, _ := strconv.Atoi(raw[3:])
	if minutes > 59 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("time %q is out of range", raw)
	}
	return hours*60 + minutes, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseRange parses a start/end pair and requires start < end.
func ParseRange(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("start %s must be before end %s", start, end)
	}
	return Interval{Start: s, End: e}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
	}
	return day, nil
}

// MergeIntervals returns the sorted union of in. Ranges that touch are merged.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		current := &merged[len(merged)-1]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// SlotGrid cuts [open, close) into consecutive step-minute cells. A trailing
// remainder shorter than step is dropped.
func SlotGrid(open, close, step int) []Interval {
	if step <= 0 || open >= close {
		return nil
	}
	var grid []Interval
	for start := open; start+step <= close; start += step {
		grid = append(grid, Interval{Start: start, End: start + step})
	}
	return grid
}

// overlapsAny reports whether candidate intersects any interval in occupied.
func overlapsAny(candidate Interval, occupied []Interval) bool {
	for _, o := range occupied {
		if candidate.Overlaps(o) {
			return true
		}
	}
	return false
}
