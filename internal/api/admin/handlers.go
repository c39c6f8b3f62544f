// internal/api/admin/handlers.go
package admin

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/api/apiutil"
	"github.com/reservatuscanchas/canchas/internal/api/authz"
	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/cache"
	"github.com/reservatuscanchas/canchas/internal/catalog"
	"github.com/reservatuscanchas/canchas/internal/settlement"
	"github.com/reservatuscanchas/canchas/internal/slotlock"
)

const (
	adminRequestTimeout = 10 * time.Second
	depositsRunTimeout  = 2 * time.Minute
)

// Deps are the services behind the admin endpoints.
type Deps struct {
	Booking      *booking.Service
	Catalog      *catalog.Service
	Settlement   *settlement.Service
	Availability *cache.Cache[booking.Availability]
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	depsMu.Lock()
	deps = d
	depsMu.Unlock()
}

// RegisterRoutes mounts the admin endpoints behind auth.
func RegisterRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}
	handle("GET /api/v1/admin/reservations", HandleListReservations)
	handle("GET /api/v1/admin/reservations/{code}/history", HandleStatusHistory)
	handle("POST /api/v1/admin/reservations/{code}/status", HandleOverrideStatus)
	handle("PATCH /api/v1/admin/reservations/{code}/price", HandleCorrectPrice)
	handle("PATCH /api/v1/admin/courts/{id}", HandleUpdateCourt)
	handle("GET /api/v1/admin/court-blocks", HandleListBlocks)
	handle("POST /api/v1/admin/court-blocks", HandleCreateBlock)
	handle("DELETE /api/v1/admin/court-blocks/{id}", HandleDeleteBlock)
	handle("GET /api/v1/admin/deposits", HandleListDeposits)
	handle("POST /api/v1/admin/deposits/generate", HandleGenerateDeposits)
	handle("POST /api/v1/admin/deposits/{id}/paid", HandleMarkDepositPaid)
}

func loadDeps(w http.ResponseWriter, r *http.Request) (Deps, bool) {
	depsMu.RLock()
	d := deps
	depsMu.RUnlock()
	if d.Booking == nil || d.Catalog == nil || d.Settlement == nil {
		log.Ctx(r.Context()).Error().Msg("Admin handlers not initialized")
		_ = apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return d, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write admin response")
	}
}

// GET /api/v1/admin/reservations?court_id=&date=
func HandleListReservations(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
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

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	reservations, err := d.Booking.ListReservations(ctx, courtID, date)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list reservations")
		return
	}
	writeJSON(w, r, http.StatusOK, reservations)
}

// GET /api/v1/admin/reservations/{code}/history
func HandleStatusHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	history, err := d.Booking.StatusHistory(ctx, r.PathValue("code"))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to load status history")
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}

type overrideStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// POST /api/v1/admin/reservations/{code}/status
func HandleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	var req overrideStatusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	res, err := d.Booking.OverrideStatus(ctx, r.PathValue("code"), strings.ToLower(strings.TrimSpace(req.Status)), authz.ActorFromContext(r.Context()), req.Reason)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to update reservation status")
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type correctPriceRequest struct {
	TotalPrice *int64 `json:"total_price"`
}

// PATCH /api/v1/admin/reservations/{code}/price
func HandleCorrectPrice(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	var req correctPriceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}
	if req.TotalPrice == nil {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "total_price", Reason: "is required"}, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	res, err := d.Booking.CorrectPrice(ctx, r.PathValue("code"), *req.TotalPrice, authz.ActorFromContext(r.Context()))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to correct reservation price")
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// PATCH /api/v1/admin/courts/{id}
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}
	var update catalog.CourtUpdate
	if err := apiutil.DecodeJSON(r, &update); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	court, err := d.Catalog.UpdateCourt(ctx, courtID, update, authz.ActorFromContext(r.Context()))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to update court")
		return
	}
	if d.Availability != nil {
		d.Availability.InvalidatePrefix(slotlock.Key(courtID, ""))
	}
	writeJSON(w, r, http.StatusOK, court)
}

type createBlockRequest struct {
	CourtID   int64  `json:"court_id"`
	Reason    string `json:"reason"`
	Kind      string `json:"kind"`
	Date      string `json:"date"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Weekdays  []int  `json:"weekdays"`
	AllDay    bool   `json:"all_day"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// GET /api/v1/admin/court-blocks[?court_id=]
func HandleListBlocks(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	var courtID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("court_id")); raw != "" {
		id, err := apiutil.ParsePositiveInt64Field(raw, "court_id")
		if err != nil {
			apiutil.RespondError(w, r, err, "")
			return
		}
		courtID = id
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	blocks, err := d.Booking.ListBlocks(ctx, courtID)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list court blocks")
		return
	}
	writeJSON(w, r, http.StatusOK, blocks)
}

// POST /api/v1/admin/court-blocks
func HandleCreateBlock(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	var req createBlockRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	block, err := d.Booking.CreateBlock(ctx, booking.BlockRequest{
		CourtID:   req.CourtID,
		Reason:    req.Reason,
		Kind:      strings.ToLower(strings.TrimSpace(req.Kind)),
		Date:      req.Date,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Weekdays:  req.Weekdays,
		AllDay:    req.AllDay,
		Start:     req.Start,
		End:       req.End,
		CreatedBy: authz.ActorFromContext(r.Context()),
	})
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to create court block")
		return
	}
	writeJSON(w, r, http.StatusCreated, block)
}

// DELETE /api/v1/admin/court-blocks/{id}
func HandleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	blockID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	if err := d.Booking.DeleteBlock(ctx, blockID); err != nil {
		apiutil.RespondError(w, r, err, "failed to delete court block")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/deposits[?date=]
func HandleListDeposits(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = d.Settlement.Today()
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	deposits, err := d.Settlement.ListDeposits(ctx, date)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list deposits")
		return
	}
	writeJSON(w, r, http.StatusOK, deposits)
}

type generateDepositsRequest struct {
	Date string `json:"date"`
}

// POST /api/v1/admin/deposits/generate
//
// The body is optional; without a date the current day in the venue
// timezone is settled.
func HandleGenerateDeposits(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	var req generateDepositsRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.RespondError(w, r, err, "")
			return
		}
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = d.Settlement.Today()
	}

	ctx, cancel := context.WithTimeout(r.Context(), depositsRunTimeout)
	defer cancel()

	result, err := d.Settlement.GenerateDailyDeposits(ctx, date)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to generate deposits")
		return
	}
	log.Ctx(r.Context()).Info().
		Str("date", result.Date).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Str("actor", authz.ActorFromContext(r.Context())).
		Msg("Deposits generated on demand")
	writeJSON(w, r, http.StatusOK, result)
}

// POST /api/v1/admin/deposits/{id}/paid
func HandleMarkDepositPaid(w http.ResponseWriter, r *http.Request) {
	d, ok := loadDeps(w, r)
	if !ok {
		return
	}
	depositID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminRequestTimeout)
	defer cancel()

	deposit, err := d.Settlement.MarkPaid(ctx, depositID)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to mark deposit paid")
		return
	}
	log.Ctx(r.Context()).Info().
		Int64("deposit_id", deposit.ID).
		Str("actor", authz.ActorFromContext(r.Context())).
		Msg("Deposit marked paid")
	writeJSON(w, r, http.StatusOK, deposit)
}
