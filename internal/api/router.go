package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/booking"
	"github.com/docspot/booking-engine/internal/calendarsync"
)

type RouterConfig struct {
	Availability *availability.Service
	Bookings     *booking.Service
	CalendarSync *calendarsync.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Log          zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability read side
	r.Get("/doctors/{doctorID}/slots", availableSlotsHandler(cfg.Availability))

	// Booking write side
	r.Post("/bookings", createBookingHandler(cfg.Bookings))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/confirm", confirmBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Bookings))
	r.Post("/bookings/expire", expireBookingsHandler(cfg.Bookings))
	r.Get("/patients/{patientID}/bookings", listPatientBookingsHandler(cfg.Bookings))

	// Calendar sync
	r.Post("/calendar/webhook", calendarWebhookHandler(cfg.CalendarSync))
	r.Post("/calendar/connections/{connectionID}/sync", runSyncHandler(cfg.CalendarSync))

	return r
}
