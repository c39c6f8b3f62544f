package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// Court block date kinds.
const (
	BlockSpecific = "specific"
	BlockRange    = "range"
	BlockWeekly   = "weekly"
)

// BlockRequest describes a court closure. Weekdays use time.Weekday numbering
// (0 = Sunday).
type BlockRequest struct {
	CourtID   int64
	Reason    string
	Kind      string
	Date      string
	StartDate string
	EndDate   string
	Weekdays  []int
	AllDay    bool
	Start     string
	End       string
	CreatedBy string
}

type Block struct {
	ID        int64     `json:"id"`
	CourtID   int64     `json:"court_id"`
	Reason    string    `json:"reason"`
	Kind      string    `json:"kind"`
	Date      string    `json:"date,omitempty"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	Weekdays  []int     `json:"weekdays,omitempty"`
	AllDay    bool      `json:"all_day"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBlock stores a court closure. Existing reservations are left alone;
// the block only stops new holds.
func (s *Service) CreateBlock(ctx context.Context, req BlockRequest) (Block, error) {
	params := dbgen.CreateCourtBlockParams{
		CourtID:   req.CourtID,
		Reason:    strings.TrimSpace(req.Reason),
		DateKind:  req.Kind,
		AllDay:    req.AllDay,
		CreatedBy: strings.TrimSpace(req.CreatedBy),
	}
	if params.Reason == "" {
		return Block{}, invalidInput("reason", "is required")
	}

	switch req.Kind {
	case BlockSpecific:
		if _, err := ParseDate(req.Date, s.opts.Location); err != nil {
			return Block{}, invalidInput("date", "must be YYYY-MM-DD")
		}
		params.SpecificDate = sql.NullString{String: req.Date, Valid: true}
	case BlockRange:
		start, err := ParseDate(req.StartDate, s.opts.Location)
		if err != nil {
			return Block{}, invalidInput("start_date", "must be YYYY-MM-DD")
		}
		end, err := ParseDate(req.EndDate, s.opts.Location)
		if err != nil {
			return Block{}, invalidInput("end_date", "must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return Block{}, invalidInput("end_date", "must not be before start_date")
		}
		params.StartDate = sql.NullString{String: req.StartDate, Valid: true}
		params.EndDate = sql.NullString{String: req.EndDate, Valid: true}
	case BlockWeekly:
		weekdays, err := formatWeekdays(req.Weekdays)
		if err != nil {
			return Block{}, err
		}
		params.Weekdays = weekdays
	default:
		return Block{}, invalidInput("kind", "must be specific, range or weekly")
	}

	if !req.AllDay {
		iv, err := ParseRange(req.Start, req.End)
		if err != nil {
			return Block{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		params.StartTime = FormatClock(iv.Start)
		params.EndTime = FormatClock(iv.End)
	}

	if _, err := loadCourt(ctx, s.db.Queries, req.CourtID); err != nil {
		return Block{}, err
	}

	row, err := s.db.Queries.CreateCourtBlock(ctx, params)
	if err != nil {
		return Block{}, fmt.Errorf("insert court block: %w", err)
	}

	s.slotChanged(row.CourtID, "")
	log.Ctx(ctx).Info().
		Int64("court_block_id", row.ID).
		Int64("court_id", row.CourtID).
		Str("kind", row.DateKind).
		Str("created_by", row.CreatedBy).
		Msg("Court block created")
	return blockFromRow(row), nil
}

// ListBlocks returns active blocks for a court, or for every court when
// courtID is 0.
func (s *Service) ListBlocks(ctx context.Context, courtID int64) ([]Block, error) {
	var (
		rows []dbgen.CourtBlock
		err  error
	)
	if courtID == 0 {
		rows, err = s.db.Queries.ListAllCourtBlocks(ctx)
	} else {
		rows, err = s.db.Queries.ListActiveCourtBlocks(ctx, courtID)
	}
	if err != nil {
		return nil, fmt.Errorf("list court blocks: %w", err)
	}
	out := make([]Block, 0, len(rows))
	for _, row := range rows {
		out = append(out, blockFromRow(row))
	}
	return out, nil
}

// DeleteBlock deactivates a block.
func (s *Service) DeleteBlock(ctx context.Context, blockID int64) error {
	row, err := s.db.Queries.GetCourtBlock(ctx, blockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(fmt.Sprintf("court block %d", blockID))
		}
		return fmt.Errorf("load court block: %w", err)
	}
	affected, err := s.db.Queries.DeactivateCourtBlock(ctx, blockID)
	if err != nil {
		return fmt.Errorf("deactivate court block: %w", err)
	}
	if affected == 0 {
		return notFound(fmt.Sprintf("court block %d", blockID))
	}
	s.slotChanged(row.CourtID, "")
	log.Ctx(ctx).Info().Int64("court_block_id", blockID).Msg("Court block removed")
	return nil
}

// blockInterval returns the interval block b occupies on date, if it applies.
func blockInterval(b dbgen.CourtBlock, date string, weekday time.Weekday) (Interval, bool, error) {
	applies := false
	switch b.DateKind {
	case BlockSpecific:
		applies = b.SpecificDate.Valid && b.SpecificDate.String == date
	case BlockRange:
		// YYYY-MM-DD compares correctly as text.
		applies = b.StartDate.Valid && b.EndDate.Valid &&
			b.StartDate.String <= date && date <= b.EndDate.String
	case BlockWeekly:
		days, err := parseWeekdays(b.Weekdays)
		if err != nil {
			return Interval{}, false, err
		}
		for _, d := range days {
			if time.Weekday(d) == weekday {
				applies = true
				break
			}
		}
	default:
		return Interval{}, false, fmt.Errorf("unknown date kind %q", b.DateKind)
	}
	if !applies {
		return Interval{}, false, nil
	}
	if b.AllDay {
		return Interval{Start: 0, End: minutesPerDay}, true, nil
	}
	iv, err := ParseRange(b.StartTime, b.EndTime)
	if err != nil {
		return Interval{}, false, err
	}
	return iv, true, nil
}

func formatWeekdays(days []int) (string, error) {
	if len(days) == 0 {
		return "", invalidInput("weekdays", "are required for weekly blocks")
	}
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return "", invalidInput("weekdays", "must be between 0 (Sunday) and 6 (Saturday)")
		}
		seen[d] = true
	}
	unique := make([]int, 0, len(seen))
	for d := range seen {
		unique = append(unique, d)
	}
	sort.Ints(unique)
	parts := make([]string, len(unique))
	for i, d := range unique {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}

func parseWeekdays(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", p)
		}
		days = append(days, d)
	}
	return days, nil
}

func blockFromRow(row dbgen.CourtBlock) Block {
	weekdays, _ := parseWeekdays(row.Weekdays)
	return Block{
		ID:        row.ID,
		CourtID:   row.CourtID,
		Reason:    row.Reason,
		Kind:      row.DateKind,
		Date:      row.SpecificDate.String,
		StartDate: row.StartDate.String,
		EndDate:   row.EndDate.String,
		Weekdays:  weekdays,
		AllDay:    row.AllDay,
		Start:     row.StartTime,
		End:       row.EndTime,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
}
