package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

// Service is the slice of *schedule.Service the handlers need.
type Service interface {
	AvailableSlots(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]availability.MinuteOfDay, error)
	AvailableRooms(ctx context.Context, date time.Time, start availability.MinuteOfDay) ([]availability.Room, error)
	SelectableDays(ctx context.Context, professionalID uuid.UUID, from time.Time, days int) ([]time.Time, error)
	Book(ctx context.Context, clientID, professionalID, roomID uuid.UUID, date time.Time, start availability.MinuteOfDay) (*schedule.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*schedule.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*schedule.AppointmentDetail, error)
	ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]schedule.AppointmentDetail, error)
}

const dateFormat = "2006-01-02"

func parseDateParam(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	d, err := time.ParseInLocation(dateFormat, raw, time.Local)
	return d, err == nil
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(key))
	return id, err == nil
}

func selectableDaysHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, ok := parseUUIDParam(r, "professional_id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}

		from, ok := parseDateParam(r, "from")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be a YYYY-MM-DD date")
			return
		}

		days := 30
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be a positive integer")
				return
			}
			days = n
		}

		selectable, err := svc.SelectableDays(r.Context(), profID, from, days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]string, len(selectable))
		for i, d := range selectable {
			out[i] = d.Format(dateFormat)
		}

		writeJSON(w, http.StatusOK, SelectableDaysResponse{
			ProfessionalID: profID,
			From:           from.Format(dateFormat),
			Days:           out,
		})
	}
}

func availableSlotsHandler(svc Service, sessionMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, ok := parseUUIDParam(r, "professional_id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}

		date, ok := parseDateParam(r, "date")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be a YYYY-MM-DD date")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), profID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		if slots == nil {
			slots = []availability.MinuteOfDay{}
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			ProfessionalID: profID,
			Date:           date.Format(dateFormat),
			SessionMinutes: sessionMinutes,
			Slots:          slots,
		})
	}
}

func availableRoomsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(r, "date")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be a YYYY-MM-DD date")
			return
		}

		start, err := availability.ParseMinuteOfDay(r.URL.Query().Get("time"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		rooms, err := svc.AvailableRooms(r.Context(), date, start)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		if rooms == nil {
			rooms = []availability.Room{}
		}

		writeJSON(w, http.StatusOK, RoomsResponse{
			Date:  date.Format(dateFormat),
			Time:  start.String(),
			Rooms: rooms,
		})
	}
}

func createAppointmentHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		profID, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}

		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_room_id", "room_id must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateFormat, req.Date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be a YYYY-MM-DD date")
			return
		}

		start, err := availability.ParseMinuteOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		appt, err := svc.Book(r.Context(), clientID, profID, roomID, date, start)
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func getAppointmentHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, schedule.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, appointmentDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(r, "client_id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		details, err := svc.ListAppointmentsByClient(r.Context(), clientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentDetailResponse, len(details))
		for i := range details {
			out[i] = appointmentDetailResponse(&details[i])
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func cancelAppointmentHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleCancelError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, schedule.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, schedule.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, schedule.ErrRoomTaken):
		writeError(w, http.StatusConflict, "room_taken", err.Error())
	case errors.Is(err, schedule.ErrBookingConflict):
		writeError(w, http.StatusConflict, "booking_conflict", err.Error())
	case errors.Is(err, schedule.ErrDayBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "day_being_booked", "day is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleCancelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
