package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types emitted by the booking and calendar-sync services. Delivery
// over email/SMS/WhatsApp happens downstream; a failed delivery never rolls
// back booking or sync state.
const (
	EventBookingCreated    = "booking.created"
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingCancelled  = "booking.cancelled"
	EventBookingExpired    = "booking.expired"
	EventSlotConflict      = "booking.slot_conflict"
	EventSyncFailed        = "calendar.sync_failed"
	EventConnectionExpired = "calendar.connection_expired"
)

type Event struct {
	Type      string
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	BookingID *uuid.UUID
	Payload   map[string]any
	At        time.Time
}

// Notifier hands events to the delivery layer. Implementations must not
// return errors to callers; a notification is fire-and-forget by contract.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// LogNotifier writes events to the structured log. It stands in for the real
// delivery pipeline, which is outside this engine.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) {
	e := n.log.Info().
		Str("event", ev.Type).
		Str("doctor_id", ev.DoctorID.String())

	if ev.PatientID != uuid.Nil {
		e = e.Str("patient_id", ev.PatientID.String())
	}
	if ev.BookingID != nil {
		e = e.Str("booking_id", ev.BookingID.String())
	}
	if len(ev.Payload) > 0 {
		e = e.Interface("payload", ev.Payload)
	}

	e.Msg("event emitted")
}
