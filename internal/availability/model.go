package availability

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationType string

const (
	TypeInPerson ConsultationType = "in_person"
	TypeVideo    ConsultationType = "video"
)

// WeeklyRule is one recurring availability entry for a doctor. Overlapping
// rules for the same weekday and type are legal and get unioned during
// expansion.
type WeeklyRule struct {
	ID             uuid.UUID
	DoctorID       uuid.UUID
	Weekday        time.Weekday
	StartMin       int
	EndMin         int
	Type           ConsultationType
	LocationID     *uuid.UUID
	Active         bool
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ExceptionKind string

const (
	ExceptionBlocked ExceptionKind = "blocked"
	ExceptionAdded   ExceptionKind = "added"
)

// Exception is a one-off override for a single date. A blocked exception with
// an empty Type applies to every consultation type.
type Exception struct {
	ID       uuid.UUID
	DoctorID uuid.UUID
	Date     time.Time // midnight UTC
	StartMin int
	EndMin   int
	Kind     ExceptionKind
	Type     ConsultationType
}

// DoctorSettings carries the per-doctor slot configuration.
type DoctorSettings struct {
	DoctorID         uuid.UUID
	SlotMinutes      int
	BufferMinutes    int
	RequiresApproval bool
}

// BusyPeriod is an absolute time range imported from an external calendar.
type BusyPeriod struct {
	Start time.Time
	End   time.Time
}

// BookedStart identifies a slot consumed by an active booking.
type BookedStart struct {
	Date     time.Time // midnight UTC
	StartMin int
}

// DayWindows is the per-date shape every pipeline stage takes and returns.
type DayWindows struct {
	Date    time.Time
	Windows []Window
}

type Slot struct {
	Date     time.Time
	StartMin int
	EndMin   int
	Type     ConsultationType
}

type DaySlots struct {
	Date  time.Time
	Slots []Slot
}
