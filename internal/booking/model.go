package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/docspot/booking-engine/internal/availability"
)

type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusConfirmed        Status = "confirmed"
	StatusPendingApproval  Status = "pending_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusCompleted        Status = "completed"
	StatusCancelledPatient Status = "cancelled_patient"
	StatusCancelledDoctor  Status = "cancelled_doctor"
	StatusNoShow           Status = "no_show"
	StatusRefunded         Status = "refunded"
)

// ActiveStatuses are the statuses that occupy a slot. The partial unique
// index on bookings enforces at most one of these per (doctor, date, start).
var ActiveStatuses = []Status{
	StatusPendingPayment,
	StatusConfirmed,
	StatusPendingApproval,
	StatusApproved,
}

func (s Status) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time // midnight UTC
	StartMin  int
	EndMin    int
	Type      availability.ConsultationType
	Notes     *string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
