package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
)

// Repository contains the read-side DB interactions the pipeline needs.
type Repository interface {
	GetDoctorSettings(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error)
	ListRules(ctx context.Context, doctorID uuid.UUID) ([]WeeklyRule, error)
	ListExceptions(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Exception, error)

	// Busy periods belonging to the doctor's active calendar connections
	ListBusyPeriods(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BusyPeriod, error)

	// Slot starts held by bookings in an active status
	ListBookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BookedStart, error)
}
