// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/api"
	"github.com/reservatuscanchas/canchas/internal/api/admin"
	"github.com/reservatuscanchas/canchas/internal/api/authz"
	"github.com/reservatuscanchas/canchas/internal/api/bookings"
	"github.com/reservatuscanchas/canchas/internal/api/venues"
	"github.com/reservatuscanchas/canchas/internal/booking"
	"github.com/reservatuscanchas/canchas/internal/cache"
	"github.com/reservatuscanchas/canchas/internal/catalog"
	"github.com/reservatuscanchas/canchas/internal/config"
	appdb "github.com/reservatuscanchas/canchas/internal/db"
	"github.com/reservatuscanchas/canchas/internal/email"
	"github.com/reservatuscanchas/canchas/internal/ratelimit"
	"github.com/reservatuscanchas/canchas/internal/scheduler"
	"github.com/reservatuscanchas/canchas/internal/settlement"
	"github.com/reservatuscanchas/canchas/internal/slotlock"
)

const healthCheckTimeout = 2 * time.Second

type application struct {
	server *http.Server

	closeOnce sync.Once
	closers   []func() error
}

// newApp wires storage, services, background jobs and HTTP routes from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*application, error) {
	app := &application{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	database, err := appdb.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.onClose(database.Close)

	locker, err := newLocker(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer, isCloser := locker.(interface{ Close() error }); isCloser {
		app.onClose(closer.Close)
	}

	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	bookingSvc := booking.NewService(database, locker, clock, booking.Options{
		HoldTTL:       cfg.Booking.HoldTTL,
		HoldRetention: cfg.Booking.HoldRetention,
		CodeAttempts:  cfg.Booking.CodeAttempts,
		PhoneRegion:   cfg.Booking.PhoneRegion,
		Location:      loc,
	})
	catalogSvc := catalog.NewService(database)
	settlementSvc := settlement.NewService(database, clock, settlement.Options{
		TaxRateBPS: cfg.Settlement.TaxRateBPS,
		Location:   loc,
	})

	if cfg.Email.Enabled {
		sender, err := email.NewSESClient(ctx, cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			return nil, fmt.Errorf("create email client: %w", err)
		}
		notifier := email.NewConfirmationNotifier(database.Queries, sender)
		bookingSvc.SetNotifier(notifier)
		app.onClose(func() error {
			notifier.Wait()
			return nil
		})
		log.Info().Str("sender", cfg.Email.Sender).Msg("Confirmation emails enabled")
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Window:          cfg.RateLimit.Window,
		HoldsPerSession: cfg.RateLimit.HoldsPerSession,
		HoldsPerIP:      cfg.RateLimit.HoldsPerIP,
		Clock:           clock,
	})
	app.onClose(func() error {
		limiter.Close()
		return nil
	})

	availability := cache.New[booking.Availability](cfg.Cache.TTL, cfg.Cache.MaxEntries, clock)

	if cfg.Features.EnableScheduler {
		if err := startScheduler(cfg, clock, loc, bookingSvc, settlementSvc); err != nil {
			return nil, err
		}
		app.onClose(scheduler.Stop)
	}

	keys := authz.NewKeyRing(adminKeys(cfg.Admin.Keys))
	if keys.Len() == 0 {
		log.Warn().Msg("No admin API keys configured; admin endpoints will reject every request")
	}

	bookings.InitHandlers(bookings.Deps{
		Booking:              bookingSvc,
		Limiter:              limiter,
		Availability:         availability,
		TrustForwardedHeader: cfg.RateLimit.TrustForwardedHeader,
	})
	venues.InitHandlers(catalogSvc)
	admin.InitHandlers(admin.Deps{
		Booking:      bookingSvc,
		Catalog:      catalogSvc,
		Settlement:   settlementSvc,
		Availability: availability,
	})

	app.server = newServer(cfg, database, keys)
	ok = true
	return app, nil
}

func newLocker(ctx context.Context, cfg *config.Config) (slotlock.Locker, error) {
	switch cfg.Locks.Backend {
	case config.LockBackendRedis:
		locker, err := slotlock.NewRedis(ctx, cfg.Locks.RedisURL, cfg.Locks.TTL, cfg.Locks.Retry)
		if err != nil {
			return nil, fmt.Errorf("connect slot lock redis: %w", err)
		}
		log.Info().Msg("Using redis slot locks")
		return locker, nil
	default:
		return slotlock.NewMemory(), nil
	}
}

func startScheduler(cfg *config.Config, clock clockwork.Clock, loc *time.Location, sweeper scheduler.HoldSweeper, gen scheduler.DepositGenerator) error {
	if err := scheduler.Init(clock, loc); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		return fmt.Errorf("scheduler instance: %w", err)
	}
	if err := scheduler.RegisterBookingJobs(svc, sweeper, cfg.Booking.HoldSweepCron, gen, cfg.Settlement.Cron); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.Info().
		Str("hold_sweep_cron", cfg.Booking.HoldSweepCron).
		Str("deposits_cron", cfg.Settlement.Cron).
		Msg("Scheduler started")
	return nil
}

func adminKeys(keys []config.AdminKey) []authz.Key {
	out := make([]authz.Key, 0, len(keys))
	for _, key := range keys {
		out = append(out, authz.Key{Name: key.Name, Hash: key.Hash})
	}
	return out
}

func (a *application) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil && !errors.Is(err, scheduler.ErrNotInitialized) {
				log.Error().Err(err).Msg("Failed to release resource on shutdown")
			}
		}
	})
}

func newServer(cfg *config.Config, database *appdb.DB, keys *authz.KeyRing) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	registerRoutes(router, database, keys)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, database *appdb.DB, keys *authz.KeyRing) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog routes
	venues.RegisterRoutes(mux)

	// Availability, holds, reservations and payment notifications
	bookings.RegisterRoutes(mux)

	// Admin routes
	admin.RegisterRoutes(mux, api.WithAdminAuth(keys))
}
