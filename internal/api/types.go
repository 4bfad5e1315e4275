package api

import (
	"time"

	"github.com/google/uuid"
)

type SlotResponse struct {
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	ConsultationType string `json:"consultation_type"`
}

type DaySlotsResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type AvailableSlotsResponse struct {
	DoctorID uuid.UUID          `json:"doctor_id"`
	Days     []DaySlotsResponse `json:"days"`
}

type CreateBookingRequest struct {
	DoctorID         string  `json:"doctor_id"`
	PatientID        string  `json:"patient_id"`
	Date             string  `json:"date"`       // YYYY-MM-DD
	StartTime        string  `json:"start_time"` // HH:MM
	EndTime          string  `json:"end_time"`   // HH:MM
	ConsultationType string  `json:"consultation_type"`
	Notes            *string `json:"notes,omitempty"`
}

type CancelBookingRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"` // "patient" or "doctor"
}

type BookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	DoctorID         uuid.UUID  `json:"doctor_id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	Date             string     `json:"date"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	ConsultationType string     `json:"consultation_type"`
	Status           string     `json:"status"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type WebhookResponse struct {
	Status string `json:"status"` // "ok" or "ignored"
}

type SyncResponse struct {
	EventsProcessed int `json:"events_processed"`
}

type ExpireResponse struct {
	ExpiredCount int64 `json:"expired_count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
