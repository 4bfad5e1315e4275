package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docspot/booking-engine/internal/availability"
	"github.com/docspot/booking-engine/internal/booking"
	"github.com/docspot/booking-engine/internal/calendarsync"
)

const dateLayout = "2006-01-02"

func availableSlotsHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		days, err := svc.GetAvailableSlots(r.Context(), doctorID, from, to)
		if err != nil {
			handleSlotsError(w, err)
			return
		}

		resp := AvailableSlotsResponse{DoctorID: doctorID, Days: make([]DaySlotsResponse, 0, len(days))}
		for _, day := range days {
			dr := DaySlotsResponse{Date: day.Date.Format(dateLayout), Slots: make([]SlotResponse, 0, len(day.Slots))}
			for _, slot := range day.Slots {
				dr.Slots = append(dr.Slots, SlotResponse{
					StartTime:        availability.FormatClock(slot.StartMin),
					EndTime:          availability.FormatClock(slot.EndMin),
					ConsultationType: string(slot.Type),
				})
			}
			resp.Days = append(resp.Days, dr)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		startMin, err := availability.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		endMin, err := availability.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		b, err := svc.CreateBooking(r.Context(), booking.CreateRequest{
			DoctorID:  doctorID,
			PatientID: patientID,
			Date:      date,
			StartMin:  startMin,
			EndMin:    endMin,
			Type:      availability.ConsultationType(req.ConsultationType),
			Notes:     req.Notes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func confirmBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		b, err := svc.ConfirmBooking(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func cancelBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		var req CancelBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor_id", "actor_id must be a valid UUID")
			return
		}

		b, err := svc.CancelBooking(r.Context(), id, actorID, booking.CancellerRole(req.Role))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func listPatientBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientID must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		bookings, err := svc.ListBookingsByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			resp = append(resp, toBookingResponse(&bookings[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

// calendarWebhookHandler receives the provider's push notifications. The
// channel and resource identifiers arrive as headers, Google-style.
func calendarWebhookHandler(svc *calendarsync.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := r.Header.Get("X-Goog-Channel-ID")
		resourceID := r.Header.Get("X-Goog-Resource-ID")
		resourceState := r.Header.Get("X-Goog-Resource-State")

		if channelID == "" || resourceID == "" {
			writeError(w, http.StatusBadRequest, "missing_channel_headers", "channel and resource headers are required")
			return
		}

		res, err := svc.HandleWebhook(r.Context(), channelID, resourceID, resourceState)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, WebhookResponse{Status: res.Status})
	}
}

func runSyncHandler(svc *calendarsync.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "connectionID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_connection_id", "connectionID must be a valid UUID")
			return
		}

		res, err := svc.RunScheduledSync(r.Context(), id)
		if err != nil {
			handleSyncError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SyncResponse{EventsProcessed: res.EventsProcessed})
	}
}

func expireBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.ExpirePendingBookings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ExpireResponse{ExpiredCount: count})
	}
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		DoctorID:         b.DoctorID,
		PatientID:        b.PatientID,
		Date:             b.Date.Format(dateLayout),
		StartTime:        availability.FormatClock(b.StartMin),
		EndTime:          availability.FormatClock(b.EndMin),
		ConsultationType: string(b.Type),
		Status:           string(b.Status),
		ExpiresAt:        b.ExpiresAt,
	}
}

func handleSlotsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, availability.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, availability.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_taken", "slot is no longer available, please re-fetch availability")
	case errors.Is(err, booking.ErrBookingExpired):
		writeError(w, http.StatusConflict, "booking_expired", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendarsync.ErrConnectionNotFound):
		writeError(w, http.StatusNotFound, "connection_not_found", err.Error())
	case errors.Is(err, calendarsync.ErrConnectionInactive):
		writeError(w, http.StatusConflict, "connection_expired", err.Error())
	case errors.Is(err, calendarsync.ErrSyncFailed):
		writeError(w, http.StatusBadGateway, "sync_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
