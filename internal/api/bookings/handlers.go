// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/api/apiutil"
	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/cache"
	"github.com/reservatuscanchas/canchas/internal/ratelimit"
	"github.com/reservatuscanchas/canchas/internal/slotlock"
)

const bookingRequestTimeout = 10 * time.Second

// Deps are the collaborators the public booking endpoints need.
type Deps struct {
	Booking              *booking.Service
	Limiter              *ratelimit.Limiter
	Availability         *cache.Cache[booking.Availability]
	TrustForwardedHeader bool
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	if d.Booking == nil {
		return
	}
	depsMu.Lock()
	deps = d
	depsMu.Unlock()

	if d.Availability != nil {
		availability := d.Availability
		d.Booking.OnSlotChange(func(courtID int64, date string) {
			if date == "" {
				availability.InvalidatePrefix(slotlock.Key(courtID, ""))
				return
			}
			availability.Invalidate(slotlock.Key(courtID, date))
		})
	}
}

// RegisterRoutes mounts the public booking endpoints.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/availability", HandleAvailability)
	mux.HandleFunc("POST /api/v1/holds", HandleCreateHold)
	mux.HandleFunc("GET /api/v1/holds/{id}", HandleGetHold)
	mux.HandleFunc("DELETE /api/v1/holds/{id}", HandleReleaseHold)
	mux.HandleFunc("POST /api/v1/reservations/confirm", HandleConfirmReservation)
	mux.HandleFunc("GET /api/v1/reservations/{code}", HandleGetReservation)
	mux.HandleFunc("POST /api/v1/payments/webhook", HandlePaymentWebhook)
}

func loadDeps() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func requireBooking(w http.ResponseWriter, r *http.Request) (Deps, bool) {
	d := loadDeps()
	if d.Booking == nil {
		log.Ctx(r.Context()).Error().Msg("Booking handlers not initialized")
		_ = apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return d, false
	}
	return d, true
}

// GET /api/v1/availability?court_id=&date=
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	courtID, err := apiutil.CourtIDFromQuery(r)
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}
	date, err := apiutil.RequiredQuery(r, "date")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	var availability booking.Availability
	if d.Availability != nil {
		// Cached grids expire with the first hold they count.
		availability, err = d.Availability.GetOrLoadUntil(ctx, slotlock.Key(courtID, date), func(ctx context.Context) (booking.Availability, time.Time, error) {
			a, err := d.Booking.GetAvailability(ctx, courtID, date)
			return a, a.ValidUntil(), err
		})
	} else {
		availability, err = d.Booking.GetAvailability(ctx, courtID, date)
	}
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to load availability")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, availability); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write availability response")
	}
}

type createHoldRequest struct {
	CourtID   int64            `json:"court_id"`
	Date      string           `json:"date"`
	Start     string           `json:"start"`
	End       string           `json:"end"`
	SessionID string           `json:"session_id"`
	Customer  booking.Customer `json:"customer"`
}

// POST /api/v1/holds
func HandleCreateHold(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	var req createHoldRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ip := ratelimit.GetClientIP(r, d.TrustForwardedHeader)
	if d.Limiter != nil {
		result := d.Limiter.CheckHold(req.SessionID, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), req.SessionID, ip, result)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
			_ = apiutil.WriteJSON(w, http.StatusTooManyRequests, apiutil.ErrorResponse{
				Error: "too many holds, try again later",
				Kind:  apiutil.KindRateLimited,
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	hold, err := d.Booking.CreateHold(ctx, booking.HoldRequest{
		CourtID:   req.CourtID,
		Date:      req.Date,
		Start:     req.Start,
		End:       req.End,
		SessionID: req.SessionID,
		Customer:  req.Customer,
	})
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to create hold")
		return
	}
	if d.Limiter != nil {
		d.Limiter.RecordHold(req.SessionID, ip)
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, hold); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write hold response")
	}
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// publicHold is the hold as shown to anyone holding its id. The customer
// field shadows the embedded one and stays nil, so personal data is omitted.
type publicHold struct {
	booking.Hold
	Customer *booking.Customer `json:"customer,omitempty"`
}

// GET /api/v1/holds/{id}
func HandleGetHold(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	hold, err := d.Booking.GetHold(ctx, r.PathValue("id"))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to load hold")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, publicHold{Hold: hold}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write hold response")
	}
}

type releaseHoldRequest struct {
	SessionID string `json:"session_id"`
}

// DELETE /api/v1/holds/{id}
func HandleReleaseHold(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	var req releaseHoldRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	holdID := r.PathValue("id")
	if err := d.Booking.ReleaseHold(ctx, holdID, req.SessionID); err != nil {
		apiutil.RespondError(w, r, err, "failed to release hold")
		return
	}

	log.Ctx(r.Context()).Info().Str("hold_id", holdID).Msg("Hold released")
	w.WriteHeader(http.StatusNoContent)
}

type confirmRequest struct {
	HoldID           string `json:"hold_id"`
	PaymentReference string `json:"payment_reference"`
}

// POST /api/v1/reservations/confirm
func HandleConfirmReservation(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	res, err := d.Booking.ConfirmReservation(ctx, req.HoldID, req.PaymentReference)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to confirm reservation")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, res); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write reservation response")
	}
}

// GET /api/v1/reservations/{code}
func HandleGetReservation(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	res, err := d.Booking.GetReservation(ctx, r.PathValue("code"))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to load reservation")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, res); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write reservation response")
	}
}

// Payment outcomes reported by the payment provider.
const (
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

type paymentWebhookRequest struct {
	ReservationCode  string `json:"reservation_code"`
	PaymentReference string `json:"payment_reference"`
	Status           string `json:"status"`
	Amount           *int64 `json:"amount"`
}

// POST /api/v1/payments/webhook
//
// Approved payments confirm the reservation; rejected ones cancel it and
// free the time range. Redelivered notifications are no-ops.
func HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	d, ok := requireBooking(w, r)
	if !ok {
		return
	}
	logger := log.Ctx(r.Context())

	var req paymentWebhookRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingRequestTimeout)
	defer cancel()

	var (
		res booking.Reservation
		err error
	)
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case PaymentApproved:
		var amount int64
		if req.Amount != nil {
			amount = *req.Amount
		} else {
			current, lookupErr := d.Booking.GetReservation(ctx, req.ReservationCode)
			if lookupErr != nil {
				apiutil.RespondError(w, r, lookupErr, "failed to load reservation")
				return
			}
			amount = current.TotalPrice
		}
		res, err = d.Booking.MarkConfirmed(ctx, req.ReservationCode, req.PaymentReference, amount)
	case PaymentRejected:
		reason := "payment rejected"
		if ref := strings.TrimSpace(req.PaymentReference); ref != "" {
			reason = fmt.Sprintf("payment %s rejected", ref)
		}
		res, err = d.Booking.MarkCancelled(ctx, req.ReservationCode, reason)
	default:
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "status", Reason: "must be approved or rejected"}, "")
		return
	}
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to apply payment notification")
		return
	}

	logger.Info().
		Str("reservation_code", res.Code).
		Str("payment_status", req.Status).
		Str("status", res.Status).
		Msg("Payment notification applied")

	if err := apiutil.WriteJSON(w, http.StatusOK, res); err != nil {
		logger.Error().Err(err).Msg("Failed to write webhook response")
	}
}
