package apiutil

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/api/authz"
	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/catalog"
	"github.com/reservatuscanchas/canchas/internal/settlement"
)

// Error kinds reported in ErrorResponse.Kind.
const (
	KindNotFound          = "not_found"
	KindInvalidInput      = "invalid_input"
	KindOverlap           = "overlap"
	KindExpired           = "expired"
	KindForbidden         = "forbidden"
	KindConflict          = "conflict"
	KindIllegalTransition = "illegal_transition"
	KindUnauthorized      = "unauthorized"
	KindRateLimited       = "rate_limited"
	KindInternal          = "internal"
)

// Classify maps a service error to its HTTP status and kind.
func Classify(err error) (int, string) {
	var handlerErr HandlerError
	var fieldErr FieldError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &handlerErr):
		return handlerErr.Status, kindForStatus(handlerErr.Status)
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, KindInvalidInput
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, settlement.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, settlement.ErrInvalidInput):
		return http.StatusBadRequest, KindInvalidInput
	case errors.Is(err, booking.ErrOverlap):
		return http.StatusConflict, KindOverlap
	case errors.Is(err, booking.ErrExpired):
		return http.StatusGone, KindExpired
	case errors.Is(err, booking.ErrForbidden), errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, KindForbidden
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict, KindConflict
	case errors.Is(err, booking.ErrIllegalTransition):
		return http.StatusConflict, KindIllegalTransition
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized, KindUnauthorized
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusGone:
		return KindExpired
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		if status >= http.StatusInternalServerError {
			return KindInternal
		}
		return ""
	}
}

// RespondError writes err as a JSON error response. Internal failures are
// logged and rendered as internalMessage so storage details never leak.
func RespondError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	status, kind := Classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(internalMessage)
		message = internalMessage
	}
	if writeErr := WriteJSON(w, status, ErrorResponse{Error: message, Kind: kind}); writeErr != nil {
		log.Ctx(r.Context()).Error().Err(writeErr).Msg("Failed to write error response")
	}
}
