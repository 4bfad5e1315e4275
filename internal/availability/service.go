package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
)

// Service answers the read-side availability question by running the interval
// pipeline: expand recurrence, overlay exceptions, then materialize bookable
// slots, dropping those hit by external busy time or an active booking.
// Nothing is cached between calls; every answer reflects the datastore at
// query time.
type Service struct {
	repo         Repository
	maxRangeDays int
	now          func() time.Time
}

func NewService(repo Repository, maxRangeDays int) *Service {
	return &Service{
		repo:         repo,
		maxRangeDays: maxRangeDays,
		now:          time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetAvailableSlots returns the bookable slots for each date in [from, to].
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DaySlots, error) {
	from = DateOf(from)
	to = DateOf(to)

	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if s.maxRangeDays > 0 && int(to.Sub(from).Hours()/24) >= s.maxRangeDays {
		return nil, fmt.Errorf("%w: wider than %d days", ErrInvalidRange, s.maxRangeDays)
	}

	settings, err := s.repo.GetDoctorSettings(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	rules, err := s.repo.ListRules(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	exceptions, err := s.repo.ListExceptions(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}

	busy, err := s.repo.ListBusyPeriods(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list busy periods: %w", err)
	}

	booked, err := s.repo.ListBookedStarts(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list booked starts: %w", err)
	}

	days := ExpandRules(rules, from, to)
	days = ApplyExceptions(days, exceptions)

	return Materialize(days, settings.SlotMinutes, settings.BufferMinutes, busy, booked, s.now()), nil
}

// SlotOpen reports whether the exact slot is present in the current
// materialized availability. Booking creation re-checks this before its
// conditional insert; the datastore constraint remains the final word.
func (s *Service) SlotOpen(ctx context.Context, doctorID uuid.UUID, date time.Time, startMin, endMin int, typ ConsultationType) (bool, error) {
	days, err := s.GetAvailableSlots(ctx, doctorID, date, date)
	if err != nil {
		return false, err
	}

	for _, day := range days {
		for _, slot := range day.Slots {
			if slot.StartMin == startMin && slot.EndMin == endMin && slot.Type == typ {
				return true, nil
			}
		}
	}
	return false, nil
}

// Settings exposes the doctor's slot configuration to the booking side.
func (s *Service) Settings(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error) {
	return s.repo.GetDoctorSettings(ctx, doctorID)
}
