// internal/api/venues/handlers.go
package venues

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/api/apiutil"
	"github.com/reservatuscanchas/canchas/internal/catalog"
)

const catalogQueryTimeout = 5 * time.Second

var (
	serviceMu sync.RWMutex
	service   *catalog.Service
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *catalog.Service) {
	if svc == nil {
		return
	}
	serviceMu.Lock()
	service = svc
	serviceMu.Unlock()
}

// RegisterRoutes mounts the read-only catalog endpoints.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/cities", HandleListCities)
	mux.HandleFunc("GET /api/v1/cities/{id}/venues", HandleListVenues)
	mux.HandleFunc("GET /api/v1/venues/{id}", HandleGetVenue)
	mux.HandleFunc("GET /api/v1/venues/{id}/courts", HandleListCourts)
}

func loadService(w http.ResponseWriter, r *http.Request) *catalog.Service {
	serviceMu.RLock()
	svc := service
	serviceMu.RUnlock()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Catalog handlers not initialized")
		_ = apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
	return svc
}

func writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	if err := apiutil.WriteJSON(w, http.StatusOK, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write catalog response")
	}
}

// GET /api/v1/cities
func HandleListCities(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	cities, err := svc.ListCities(ctx)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list cities")
		return
	}
	writeJSON(w, r, cities)
}

// GET /api/v1/cities/{id}/venues
func HandleListVenues(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	cityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	venues, err := svc.ListVenues(ctx, cityID)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list venues")
		return
	}
	writeJSON(w, r, venues)
}

// GET /api/v1/venues/{id}
func HandleGetVenue(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	venue, err := svc.GetVenue(ctx, venueID)
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to load venue")
		return
	}
	writeJSON(w, r, venue)
}

// GET /api/v1/venues/{id}/courts?sport=
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.RespondError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	courts, err := svc.ListCourts(ctx, venueID, r.URL.Query().Get("sport"))
	if err != nil {
		apiutil.RespondError(w, r, err, "failed to list courts")
		return
	}
	writeJSON(w, r, courts)
}
