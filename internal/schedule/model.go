package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Professional struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Room struct {
	ID        uuid.UUID
	Name      string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	RoomID         uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Status         AppointmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Client       *Client
	Professional *Professional
	Room         *Room
}

// Snapshot converts the stored appointment into the engine's value form.
func (a Appointment) Snapshot() availability.Appointment {
	return availability.Appointment{
		Start:          a.StartTime,
		End:            a.EndTime,
		RoomID:         a.RoomID,
		ProfessionalID: a.ProfessionalID,
	}
}

// EngineRoom converts the stored room into the engine's value form.
func (r Room) EngineRoom() availability.Room {
	return availability.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity}
}
