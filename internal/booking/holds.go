package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
	"github.com/reservatuscanchas/canchas/internal/money"
)

const maxSessionIDLength = 128

// SweepResult counts rows removed by SweepExpiredHolds.
type SweepResult struct {
	Expired  int64
	Promoted int64
}

// CreateHold claims [Start, End) on a court for SessionID until the hold TTL
// elapses. It fails with ErrOverlap when any reservation, active hold or
// court block intersects the range.
func (s *Service) CreateHold(ctx context.Context, req HoldRequest) (Hold, error) {
	day, err := ParseDate(req.Date, s.opts.Location)
	if err != nil {
		return Hold{}, invalidInput("date", "must be YYYY-MM-DD")
	}
	requested, err := ParseRange(req.Start, req.End)
	if err != nil {
		return Hold{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return Hold{}, invalidInput("session_id", "is required")
	}
	if len(sessionID) > maxSessionIDLength {
		return Hold{}, invalidInput("session_id", "is too long")
	}
	customer, err := normalizeCustomer(req.Customer, s.opts.PhoneRegion)
	if err != nil {
		return Hold{}, err
	}

	var hold dbgen.TemporaryHold
	err = s.withSlotLock(ctx, req.CourtID, req.Date, func(tx *appdb.DB) error {
		now := s.clock.Now()
		if startsInPast(day, requested.Start, now) {
			return invalidInput("start", "is in the past")
		}

		court, err := loadCourt(ctx, tx.Queries, req.CourtID)
		if err != nil {
			return err
		}
		if !court.Active {
			return notFound(fmt.Sprintf("court %d", req.CourtID))
		}
		hours, err := operatingHours(court)
		if err != nil {
			return err
		}
		if requested.Start < hours.Start || requested.End > hours.End {
			return invalidInput("range", fmt.Sprintf("must be within operating hours %s-%s", court.OpensAt, court.ClosesAt))
		}

		occ, err := s.loadOccupancy(ctx, tx.Queries, req.CourtID, req.Date, day, now, 0)
		if err != nil {
			return err
		}
		if overlapsAny(requested, occ.all()) {
			return fmt.Errorf("%w: court %d %s %s-%s", ErrOverlap, req.CourtID, req.Date, req.Start, req.End)
		}

		hold, err = tx.Queries.CreateHold(ctx, dbgen.CreateHoldParams{
			ID:            uuid.NewString(),
			CourtID:       req.CourtID,
			Date:          req.Date,
			StartTime:     FormatClock(requested.Start),
			EndTime:       FormatClock(requested.End),
			SessionID:     sessionID,
			CustomerName:  customer.Name,
			CustomerRut:   customer.RUT,
			CustomerEmail: customer.Email,
			CustomerPhone: customer.Phone,
			TotalPrice:    money.Prorate(court.HourlyPrice, int64(requested.Minutes())),
			ExpiresAt:     now.Add(s.opts.HoldTTL).UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("insert hold: %w", err)
		}
		return nil
	})
	if err != nil {
		return Hold{}, err
	}

	s.slotChanged(req.CourtID, req.Date)
	log.Ctx(ctx).Info().
		Str("hold_id", hold.ID).
		Int64("court_id", hold.CourtID).
		Str("date", hold.Date).
		Str("start", hold.StartTime).
		Str("end", hold.EndTime).
		Msg("Hold created")
	return holdFromRow(hold), nil
}

// GetHold returns a hold by id, expired or not.
func (s *Service) GetHold(ctx context.Context, holdID string) (Hold, error) {
	row, err := s.db.Queries.GetHold(ctx, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Hold{}, notFound("hold " + holdID)
		}
		return Hold{}, fmt.Errorf("load hold: %w", err)
	}
	return holdFromRow(row), nil
}

// ReleaseHold deletes a hold owned by sessionID. Promoted holds belong to
// their reservation and cannot be released.
func (s *Service) ReleaseHold(ctx context.Context, holdID, sessionID string) error {
	hold, err := s.GetHold(ctx, holdID)
	if err != nil {
		return err
	}
	if hold.SessionID != strings.TrimSpace(sessionID) {
		return fmt.Errorf("%w: hold %s belongs to another session", ErrForbidden, holdID)
	}
	if hold.ReservationCode != "" {
		return fmt.Errorf("%w: hold %s already promoted to %s", ErrIllegalTransition, holdID, hold.ReservationCode)
	}

	err = s.withSlotLock(ctx, hold.CourtID, hold.Date, func(tx *appdb.DB) error {
		row, err := tx.Queries.GetHold(ctx, holdID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("hold " + holdID)
			}
			return fmt.Errorf("reload hold: %w", err)
		}
		if row.ReservationCode.Valid {
			return fmt.Errorf("%w: hold %s already promoted to %s", ErrIllegalTransition, holdID, row.ReservationCode.String)
		}
		if _, err := tx.Queries.DeleteHold(ctx, holdID); err != nil {
			return fmt.Errorf("delete hold: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.slotChanged(hold.CourtID, hold.Date)
	log.Ctx(ctx).Info().Str("hold_id", holdID).Msg("Hold released")
	return nil
}

// SweepExpiredHolds deletes unpromoted holds past their expiry and promoted
// holds older than the retention window. Reads already ignore expired holds,
// so this only reclaims storage.
func (s *Service) SweepExpiredHolds(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	var result SweepResult

	expired, err := s.db.Queries.DeleteExpiredHolds(ctx, now.UnixMilli())
	if err != nil {
		return result, fmt.Errorf("delete expired holds: %w", err)
	}
	result.Expired = expired

	promoted, err := s.db.Queries.DeletePromotedHoldsBefore(ctx, now.Add(-s.opts.HoldRetention).UnixMilli())
	if err != nil {
		return result, fmt.Errorf("delete promoted holds: %w", err)
	}
	result.Promoted = promoted

	return result, nil
}
