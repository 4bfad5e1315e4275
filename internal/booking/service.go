package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/notify"
)

var (
	ErrInvalidRequest    = errors.New("invalid booking request")
	ErrBookingExpired    = errors.New("booking hold has expired")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("caller may not act on this booking")
)

// AvailabilityChecker is the read-side view the arbiter validates against.
// The check is advisory; the conditional insert in the repository is the
// authoritative mutual-exclusion point.
type AvailabilityChecker interface {
	SlotOpen(ctx context.Context, doctorID uuid.UUID, date time.Time, startMin, endMin int, typ availability.ConsultationType) (bool, error)
	Settings(ctx context.Context, doctorID uuid.UUID) (*availability.DoctorSettings, error)
}

type CreateRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	StartMin  int
	EndMin    int
	Type      availability.ConsultationType
	Notes     *string
}

type CancellerRole string

const (
	CancelByPatient CancellerRole = "patient"
	CancelByDoctor  CancellerRole = "doctor"
)

type Service struct {
	repo       Repository
	slots      AvailabilityChecker
	notifier   notify.Notifier
	pendingTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(repo Repository, slots AvailabilityChecker, notifier notify.Notifier, pendingTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		slots:      slots,
		notifier:   notifier,
		pendingTTL: pendingTTL,
		log:        log.With().Str("component", "booking").Logger(),
		now:        time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateBooking reserves a slot for a patient. Two patients racing for the
// same slot both pass the advisory availability check; the conditional insert
// decides, and the loser gets ErrSlotTaken.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	open, err := s.slots.SlotOpen(ctx, req.DoctorID, req.Date, req.StartMin, req.EndMin, req.Type)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !open {
		return nil, ErrSlotTaken
	}

	expiresAt := s.now().Add(s.pendingTTL)
	created, err := s.repo.CreatePending(ctx, &Booking{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Date:      availability.DateOf(req.Date),
		StartMin:  req.StartMin,
		EndMin:    req.EndMin,
		Type:      req.Type,
		Notes:     req.Notes,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.notifier.Notify(ctx, notify.Event{
				Type:      notify.EventSlotConflict,
				DoctorID:  req.DoctorID,
				PatientID: req.PatientID,
				At:        s.now(),
			})
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create pending booking: %w", err)
	}

	s.logEvent(ctx, created.ID, notify.EventBookingCreated, map[string]any{
		"doctor_id":  req.DoctorID.String(),
		"patient_id": req.PatientID.String(),
		"date":       created.Date.Format("2006-01-02"),
		"start":      availability.FormatClock(created.StartMin),
		"expires_at": expiresAt,
	})
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventBookingCreated,
		DoctorID:  created.DoctorID,
		PatientID: created.PatientID,
		BookingID: &created.ID,
		At:        s.now(),
	})

	return created, nil
}

func (s *Service) validate(req *CreateRequest) error {
	switch {
	case req.DoctorID == uuid.Nil:
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidRequest)
	case req.PatientID == uuid.Nil:
		return fmt.Errorf("%w: patient_id is required", ErrInvalidRequest)
	case req.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidRequest)
	case req.StartMin < 0 || req.EndMin > 24*60 || req.EndMin <= req.StartMin:
		return fmt.Errorf("%w: start must precede end within the day", ErrInvalidRequest)
	case req.Type != availability.TypeInPerson && req.Type != availability.TypeVideo:
		return fmt.Errorf("%w: unknown consultation type %q", ErrInvalidRequest, req.Type)
	}
	return nil
}

// ConfirmBooking promotes a paid pending_payment booking. Doctors who require
// approval get pending_approval instead of confirmed. Invoked by the payments
// collaborator, never by patients directly.
func (s *Service) ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status != StatusPendingPayment {
		return nil, ErrInvalidTransition
	}
	if b.ExpiresAt != nil && b.ExpiresAt.Before(s.now()) {
		// The reaper will free the slot; the payment must be refunded upstream.
		return nil, ErrBookingExpired
	}

	settings, err := s.slots.Settings(ctx, b.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor settings: %w", err)
	}

	target := StatusConfirmed
	if settings.RequiresApproval {
		target = StatusPendingApproval
	}

	updated, err := s.repo.UpdateStatusFrom(ctx, id, []Status{StatusPendingPayment}, target)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("confirm booking: %w", err)
	}

	s.logEvent(ctx, updated.ID, notify.EventBookingConfirmed, map[string]any{"status": string(updated.Status)})
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventBookingConfirmed,
		DoctorID:  updated.DoctorID,
		PatientID: updated.PatientID,
		BookingID: &updated.ID,
		At:        s.now(),
	})

	return updated, nil
}

// CancelBooking cancels an active booking on behalf of the patient or the
// doctor. The actor must own the corresponding side of the booking.
func (s *Service) CancelBooking(ctx context.Context, id, actorID uuid.UUID, role CancellerRole) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var target Status
	switch role {
	case CancelByPatient:
		if b.PatientID != actorID {
			return nil, ErrUnauthorized
		}
		target = StatusCancelledPatient
	case CancelByDoctor:
		if b.DoctorID != actorID {
			return nil, ErrUnauthorized
		}
		target = StatusCancelledDoctor
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}

	if !b.Status.Active() {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatusFrom(ctx, id, ActiveStatuses, target)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.logEvent(ctx, updated.ID, notify.EventBookingCancelled, map[string]any{"by": string(role)})
	s.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventBookingCancelled,
		DoctorID:  updated.DoctorID,
		PatientID: updated.PatientID,
		BookingID: &updated.ID,
		Payload:   map[string]any{"by": string(role)},
		At:        s.now(),
	})

	return updated, nil
}

// GetBooking retrieves a booking by ID.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBookingsByPatient retrieves bookings for a specific patient.
func (s *Service) ListBookingsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	bookings, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookings by patient: %w", err)
	}
	return bookings, nil
}

// ExpirePendingBookings hard-deletes bookings stuck in pending_payment past
// their hold, freeing the slots for the next conditional insert. Safe to run
// on overlapping schedules; a second run over the same boundary deletes zero.
func (s *Service) ExpirePendingBookings(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpiredPending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}

	if count > 0 {
		s.logEvent(ctx, uuid.Nil, notify.EventBookingExpired, map[string]any{
			"reason": "worker",
			"count":  count,
		})
	}

	return count, nil
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: s.now(),
	}
	if bookingID != uuid.Nil {
		id := bookingID
		ev.BookingID = &id
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("insert booking event")
	}
}
