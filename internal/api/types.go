package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	ClientID       string `json:"client_id"`
	ProfessionalID string `json:"professional_id"`
	RoomID         string `json:"room_id"`
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	RoomID         uuid.UUID `json:"room_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	ClientName       string `json:"client_name,omitempty"`
	ProfessionalName string `json:"professional_name,omitempty"`
	RoomName         string `json:"room_name,omitempty"`
}

type SlotsResponse struct {
	ProfessionalID uuid.UUID                  `json:"professional_id"`
	Date           string                     `json:"date"`
	SessionMinutes int                        `json:"session_minutes"`
	Slots          []availability.MinuteOfDay `json:"slots"`
}

type RoomsResponse struct {
	Date  string              `json:"date"`
	Time  string              `json:"time"`
	Rooms []availability.Room `json:"rooms"`
}

type SelectableDaysResponse struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	From           string    `json:"from"`
	Days           []string  `json:"days"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func appointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
		RoomID:         a.RoomID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Status:         string(a.Status),
	}
}

func appointmentDetailResponse(d *schedule.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: appointmentResponse(&d.Appointment),
	}
	if d.Client != nil {
		resp.ClientName = d.Client.Name
	}
	if d.Professional != nil {
		resp.ProfessionalName = d.Professional.Name
	}
	if d.Room != nil {
		resp.RoomName = d.Room.Name
	}
	return resp
}
