package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	appdb "github.com/reservatuscanchas/canchas/internal/db"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// ConfirmReservation promotes a hold into a pending reservation. Repeated
// calls for the same hold return the reservation created by the first one.
func (s *Service) ConfirmReservation(ctx context.Context, holdID, paymentReference string) (Reservation, error) {
	holdID = strings.TrimSpace(holdID)
	if holdID == "" {
		return Reservation{}, invalidInput("hold_id", "is required")
	}
	paymentReference = strings.TrimSpace(paymentReference)

	hold, err := s.db.Queries.GetHold(ctx, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The hold may have been swept after promotion.
			return s.reservationForHold(ctx, s.db.Queries, holdID)
		}
		return Reservation{}, fmt.Errorf("load hold: %w", err)
	}

	var (
		res     dbgen.Reservation
		created bool
	)
	err = s.withSlotLock(ctx, hold.CourtID, hold.Date, func(tx *appdb.DB) error {
		current, err := tx.Queries.GetHold(ctx, holdID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				res, err = tx.Queries.GetReservationByHoldID(ctx, sql.NullString{String: holdID, Valid: true})
				if errors.Is(err, sql.ErrNoRows) {
					return notFound("hold " + holdID)
				}
				if err != nil {
					return fmt.Errorf("load reservation for hold: %w", err)
				}
				return nil
			}
			return fmt.Errorf("reload hold: %w", err)
		}

		if current.ReservationCode.Valid {
			res, err = tx.Queries.GetReservationByCode(ctx, current.ReservationCode.String)
			if err != nil {
				return fmt.Errorf("load promoted reservation %s: %w", current.ReservationCode.String, err)
			}
			return nil
		}

		now := s.clock.Now()
		if current.ExpiresAt <= now.UnixMilli() {
			return fmt.Errorf("%w: hold %s", ErrExpired, holdID)
		}

		day, err := ParseDate(current.Date, s.opts.Location)
		if err != nil {
			return fmt.Errorf("hold %s date: %w", holdID, err)
		}
		requested, err := ParseRange(current.StartTime, current.EndTime)
		if err != nil {
			return fmt.Errorf("hold %s range: %w", holdID, err)
		}
		occ, err := s.loadOccupancy(ctx, tx.Queries, current.CourtID, current.Date, day, now, 0)
		if err != nil {
			return err
		}
		if overlapsAny(requested, occ.reservations) {
			return fmt.Errorf("%w: court %d %s %s-%s", ErrOverlap, current.CourtID, current.Date, current.StartTime, current.EndTime)
		}

		res, err = s.insertReservation(ctx, tx.Queries, current, paymentReference)
		if err != nil {
			return err
		}

		linked, err := tx.Queries.LinkHoldToReservation(ctx, dbgen.LinkHoldToReservationParams{
			ReservationCode: sql.NullString{String: res.Code, Valid: true},
			ID:              holdID,
		})
		if err != nil {
			return fmt.Errorf("link hold: %w", err)
		}
		if linked != 1 {
			return fmt.Errorf("link hold %s: %d rows updated", holdID, linked)
		}

		if err := tx.Queries.InsertStatusLog(ctx, dbgen.InsertStatusLogParams{
			ReservationID: res.ID,
			FromStatus:    "",
			ToStatus:      StatusPending,
			Actor:         SystemActor,
			Reason:        "hold promoted",
		}); err != nil {
			return fmt.Errorf("log status: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}

	out := reservationFromRow(res)
	if created {
		s.slotChanged(out.CourtID, out.Date)
		log.Ctx(ctx).Info().
			Str("hold_id", holdID).
			Str("reservation_code", out.Code).
			Int64("court_id", out.CourtID).
			Str("date", out.Date).
			Msg("Hold promoted to reservation")
	}
	return out, nil
}

// insertReservation creates the pending reservation for hold with a fresh
// code, retrying on collisions.
func (s *Service) insertReservation(ctx context.Context, q *dbgen.Queries, hold dbgen.TemporaryHold, paymentReference string) (dbgen.Reservation, error) {
	for attempt := 1; attempt <= s.opts.CodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return dbgen.Reservation{}, err
		}
		count, err := q.ReservationCodeExists(ctx, code)
		if err != nil {
			return dbgen.Reservation{}, fmt.Errorf("check reservation code: %w", err)
		}
		if count > 0 {
			log.Ctx(ctx).Debug().Int("attempt", attempt).Msg("Reservation code collision")
			continue
		}

		res, err := q.CreateReservation(ctx, dbgen.CreateReservationParams{
			CourtID:          hold.CourtID,
			HoldID:           sql.NullString{String: hold.ID, Valid: true},
			Date:             hold.Date,
			StartTime:        hold.StartTime,
			EndTime:          hold.EndTime,
			CustomerName:     hold.CustomerName,
			CustomerRut:      hold.CustomerRut,
			CustomerEmail:    hold.CustomerEmail,
			CustomerPhone:    hold.CustomerPhone,
			Code:             code,
			Status:           StatusPending,
			TotalPrice:       hold.TotalPrice,
			PaymentReference: paymentReference,
		})
		if err != nil {
			if appdb.IsUniqueViolation(err) {
				log.Ctx(ctx).Debug().Int("attempt", attempt).Err(err).Msg("Reservation insert hit unique constraint")
				continue
			}
			return dbgen.Reservation{}, fmt.Errorf("insert reservation: %w", err)
		}
		return res, nil
	}
	return dbgen.Reservation{}, fmt.Errorf("no unique reservation code after %d attempts", s.opts.CodeAttempts)
}

func (s *Service) reservationForHold(ctx context.Context, q *dbgen.Queries, holdID string) (Reservation, error) {
	row, err := q.GetReservationByHoldID(ctx, sql.NullString{String: holdID, Valid: true})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, notFound("hold " + holdID)
		}
		return Reservation{}, fmt.Errorf("load reservation for hold: %w", err)
	}
	return reservationFromRow(row), nil
}

// MarkConfirmed records a successful payment. Confirming an already
// confirmed reservation is a no-op; a cancelled one cannot be confirmed.
func (s *Service) MarkConfirmed(ctx context.Context, code, paymentReference string, amountPaid int64) (Reservation, error) {
	if amountPaid < 0 {
		return Reservation{}, invalidInput("amount", "must be 0 or greater")
	}
	paymentReference = strings.TrimSpace(paymentReference)

	var (
		res         dbgen.Reservation
		transitions bool
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		current, err := getReservation(ctx, tx.Queries, code)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusConfirmed:
			res = current
			return nil
		case StatusCancelled:
			return illegalTransition(current.Status, StatusConfirmed)
		}

		ref := paymentReference
		if ref == "" {
			ref = current.PaymentReference
		}
		res, err = tx.Queries.ConfirmReservationPayment(ctx, dbgen.ConfirmReservationPaymentParams{
			PaymentReference: ref,
			AmountPaid:       amountPaid,
			ID:               current.ID,
		})
		if err != nil {
			return fmt.Errorf("confirm reservation: %w", err)
		}
		if err := tx.Queries.InsertStatusLog(ctx, dbgen.InsertStatusLogParams{
			ReservationID: current.ID,
			FromStatus:    current.Status,
			ToStatus:      StatusConfirmed,
			Actor:         SystemActor,
			Reason:        "payment approved",
		}); err != nil {
			return fmt.Errorf("log status: %w", err)
		}
		transitions = true
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}

	out := reservationFromRow(res)
	if transitions {
		log.Ctx(ctx).Info().
			Str("reservation_code", out.Code).
			Int64("amount_paid", out.AmountPaid).
			Msg("Reservation confirmed")
		s.warnIfAlreadySettled(ctx, out)
		s.confirmed(ctx, out)
	}
	return out, nil
}

// warnIfAlreadySettled logs reservations confirmed after the deposit for
// their venue and date was generated. Those are left out of every deposit.
func (s *Service) warnIfAlreadySettled(ctx context.Context, res Reservation) {
	logger := log.Ctx(ctx)
	court, err := loadCourt(ctx, s.db.Queries, res.CourtID)
	if err != nil {
		logger.Error().Err(err).Str("reservation_code", res.Code).Msg("Failed to load court for settlement check")
		return
	}
	deposit, err := s.db.Queries.GetDepositByVenueDate(ctx, dbgen.GetDepositByVenueDateParams{
		VenueID:     court.VenueID,
		DepositDate: res.Date,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return
	case err != nil:
		logger.Error().Err(err).Str("reservation_code", res.Code).Msg("Failed to check deposit for confirmed reservation")
		return
	}
	logger.Warn().
		Str("reservation_code", res.Code).
		Int64("venue_id", court.VenueID).
		Int64("deposit_id", deposit.ID).
		Str("date", res.Date).
		Msg("Reservation confirmed after its deposit was generated; it is not included in any deposit")
}

// MarkCancelled cancels a pending reservation, freeing its time range.
// Cancelling an already cancelled reservation is a no-op; a confirmed one
// can only be cancelled through OverrideStatus.
func (s *Service) MarkCancelled(ctx context.Context, code, reason string) (Reservation, error) {
	var (
		res         dbgen.Reservation
		transitions bool
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		current, err := getReservation(ctx, tx.Queries, code)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusCancelled:
			res = current
			return nil
		case StatusConfirmed:
			return illegalTransition(current.Status, StatusCancelled)
		}

		res, err = tx.Queries.UpdateReservationStatus(ctx, dbgen.UpdateReservationStatusParams{
			Status: StatusCancelled,
			ID:     current.ID,
		})
		if err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}
		if err := tx.Queries.InsertStatusLog(ctx, dbgen.InsertStatusLogParams{
			ReservationID: current.ID,
			FromStatus:    current.Status,
			ToStatus:      StatusCancelled,
			Actor:         SystemActor,
			Reason:        strings.TrimSpace(reason),
		}); err != nil {
			return fmt.Errorf("log status: %w", err)
		}
		transitions = true
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}

	out := reservationFromRow(res)
	if transitions {
		s.slotChanged(out.CourtID, out.Date)
		log.Ctx(ctx).Info().Str("reservation_code", out.Code).Str("reason", reason).Msg("Reservation cancelled")
	}
	return out, nil
}

// OverrideStatus moves a reservation to any status on behalf of an admin.
// Reinstating a cancelled reservation re-checks that its range is free.
// Reservations already included in a deposit stay confirmed.
func (s *Service) OverrideStatus(ctx context.Context, code, status, actor, reason string) (Reservation, error) {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled:
	default:
		return Reservation{}, invalidInput("status", "must be pending, confirmed or cancelled")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return Reservation{}, invalidInput("actor", "is required")
	}

	existing, err := s.GetReservation(ctx, code)
	if err != nil {
		return Reservation{}, err
	}

	var (
		res  dbgen.Reservation
		from string
	)
	err = s.withSlotLock(ctx, existing.CourtID, existing.Date, func(tx *appdb.DB) error {
		current, err := getReservation(ctx, tx.Queries, code)
		if err != nil {
			return err
		}
		from = current.Status
		if current.Status == status {
			res = current
			return nil
		}
		if current.DepositID.Valid && status != StatusConfirmed {
			return fmt.Errorf("%w: reservation %s is already settled in deposit %d", ErrConflict, code, current.DepositID.Int64)
		}

		if current.Status == StatusCancelled {
			day, err := ParseDate(current.Date, s.opts.Location)
			if err != nil {
				return fmt.Errorf("reservation %s date: %w", code, err)
			}
			requested, err := ParseRange(current.StartTime, current.EndTime)
			if err != nil {
				return fmt.Errorf("reservation %s range: %w", code, err)
			}
			occ, err := s.loadOccupancy(ctx, tx.Queries, current.CourtID, current.Date, day, s.clock.Now(), current.ID)
			if err != nil {
				return err
			}
			if overlapsAny(requested, occ.all()) {
				return fmt.Errorf("%w: cannot reinstate %s", ErrOverlap, code)
			}
		}

		res, err = tx.Queries.UpdateReservationStatus(ctx, dbgen.UpdateReservationStatusParams{
			Status: status,
			ID:     current.ID,
		})
		if err != nil {
			return fmt.Errorf("override status: %w", err)
		}
		if err := tx.Queries.InsertStatusLog(ctx, dbgen.InsertStatusLogParams{
			ReservationID: current.ID,
			FromStatus:    current.Status,
			ToStatus:      status,
			Actor:         actor,
			Reason:        strings.TrimSpace(reason),
		}); err != nil {
			return fmt.Errorf("log status: %w", err)
		}
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}

	out := reservationFromRow(res)
	if from != status {
		s.slotChanged(out.CourtID, out.Date)
		log.Ctx(ctx).Warn().
			Str("reservation_code", out.Code).
			Str("from_status", from).
			Str("to_status", status).
			Str("actor", actor).
			Str("reason", reason).
			Msg("Reservation status overridden")
	}
	return out, nil
}

// CorrectPrice sets a reservation's total price. Reservations already
// included in a deposit are frozen.
func (s *Service) CorrectPrice(ctx context.Context, code string, totalPrice int64, actor string) (Reservation, error) {
	if totalPrice < 0 {
		return Reservation{}, invalidInput("total_price", "must be 0 or greater")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return Reservation{}, invalidInput("actor", "is required")
	}

	var (
		res      dbgen.Reservation
		previous int64
	)
	err := s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		current, err := getReservation(ctx, tx.Queries, code)
		if err != nil {
			return err
		}
		if current.DepositID.Valid {
			return fmt.Errorf("%w: reservation %s is already settled in deposit %d", ErrConflict, code, current.DepositID.Int64)
		}
		previous = current.TotalPrice
		res, err = tx.Queries.UpdateReservationPrice(ctx, dbgen.UpdateReservationPriceParams{
			TotalPrice: totalPrice,
			ID:         current.ID,
		})
		if err != nil {
			return fmt.Errorf("update price: %w", err)
		}
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}

	log.Ctx(ctx).Warn().
		Str("reservation_code", code).
		Int64("previous_price", previous).
		Int64("total_price", totalPrice).
		Str("actor", actor).
		Msg("Reservation price corrected")
	return reservationFromRow(res), nil
}

// GetReservation returns a reservation by its public code.
func (s *Service) GetReservation(ctx context.Context, code string) (Reservation, error) {
	row, err := getReservation(ctx, s.db.Queries, code)
	if err != nil {
		return Reservation{}, err
	}
	return reservationFromRow(row), nil
}

// ListReservations returns every reservation on a court for date, any status.
func (s *Service) ListReservations(ctx context.Context, courtID int64, date string) ([]Reservation, error) {
	if _, err := ParseDate(date, s.opts.Location); err != nil {
		return nil, invalidInput("date", "must be YYYY-MM-DD")
	}
	if _, err := loadCourt(ctx, s.db.Queries, courtID); err != nil {
		return nil, err
	}
	rows, err := s.db.Queries.ListReservationsByCourtDate(ctx, dbgen.ListReservationsByCourtDateParams{
		CourtID: courtID,
		Date:    date,
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, reservationFromRow(row))
	}
	return out, nil
}

// StatusHistory returns the status log of a reservation, oldest first.
func (s *Service) StatusHistory(ctx context.Context, code string) ([]StatusChange, error) {
	row, err := getReservation(ctx, s.db.Queries, code)
	if err != nil {
		return nil, err
	}
	entries, err := s.db.Queries.ListStatusLog(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}
	out := make([]StatusChange, 0, len(entries))
	for _, e := range entries {
		out = append(out, StatusChange{
			From:      e.FromStatus,
			To:        e.ToStatus,
			Actor:     e.Actor,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

func getReservation(ctx context.Context, q *dbgen.Queries, code string) (dbgen.Reservation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validCode(code) {
		return dbgen.Reservation{}, invalidInput("reservation_code", "must be 6 characters A-Z0-9")
	}
	row, err := q.GetReservationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, notFound("reservation " + code)
		}
		return row, fmt.Errorf("load reservation %s: %w", code, err)
	}
	return row, nil
}
