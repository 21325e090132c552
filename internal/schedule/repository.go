package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
)

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")

	// ErrBookingConflict is returned by the persistence layer when its
	// overlap constraint rejects a write. The in-process re-validation is
	// advisory; this constraint is the actual invariant enforcer.
	ErrBookingConflict = errors.New("appointment conflicts with an existing booking")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)

	// Working hours, keyed by weekday; a professional with no stored rows
	// yields a nil map (hours unknown).
	GetClinicHours(ctx context.Context) (availability.WeeklyHours, error)
	GetProfessionalHours(ctx context.Context, professionalID uuid.UUID) (availability.WeeklyHours, error)

	// ListAppointmentsForDay returns every scheduled appointment whose start
	// falls on the given calendar day.
	ListAppointmentsForDay(ctx context.Context, day time.Time) ([]Appointment, error)

	CreateScheduledAppointment(ctx context.Context, clientID, professionalID, roomID uuid.UUID, start, end time.Time) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)

	// Completion worker
	FindElapsedScheduled(ctx context.Context, now time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
