package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSlotTaken is the arbiter conflict: another booking in an active
	// status already holds (doctor, date, start). The slot is gone, not
	// transiently busy; callers must re-fetch availability.
	ErrSlotTaken = errors.New("slot already taken")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	// CreatePending inserts the booking in pending_payment. The insert and
	// the active-slot uniqueness check are one atomic operation; a unique
	// violation surfaces as ErrSlotTaken.
	CreatePending(ctx context.Context, b *Booking) (*Booking, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error)

	// UpdateStatusFrom transitions id to `to` only when its current status is
	// one of `from`; ErrBookingNotFound otherwise.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Booking, error)

	// DeleteExpiredPending hard-deletes pending_payment bookings whose hold
	// expired before cutoff, freeing their slots. Returns the count.
	DeleteExpiredPending(ctx context.Context, cutoff time.Time) (int64, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
