package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
	"github.com/clinicdesk/clinic-scheduling/internal/config"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

var (
	ErrSlotTaken               = errors.New("selected time is no longer available")
	ErrRoomTaken               = errors.New("selected room is no longer available")
	ErrDayBeingBooked          = errors.New("day is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// AvailableSlots returns the bookable start times for a professional on a
// day: the 15-minute boundaries inside the intersection of clinic and
// professional hours, minus already-passed times when the day is today.
// Clashes with existing bookings are not filtered here; they are rejected at
// room selection and again at booking time.
func (s *Service) AvailableSlots(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]availability.MinuteOfDay, error) {
	clinicHours, err := s.repo.GetClinicHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinic hours: %w", err)
	}

	profHours, err := s.repo.GetProfessionalHours(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load professional hours: %w", err)
	}

	return availability.Slots(date, clinicHours, profHours, s.cfg.SessionMinutes, s.now())
}

// AvailableRooms returns the rooms free for a session starting at the given
// time on the given day, in stored (name) order.
func (s *Service) AvailableRooms(ctx context.Context, date time.Time, start availability.MinuteOfDay) ([]availability.Room, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	appts, err := s.repo.ListAppointmentsForDay(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	return availability.Rooms(engineRooms(rooms), date, start, s.cfg.SessionMinutes, snapshots(appts))
}

// SelectableDays returns the days in [from, from+days) a date picker should
// offer for the professional.
func (s *Service) SelectableDays(ctx context.Context, professionalID uuid.UUID, from time.Time, days int) ([]time.Time, error) {
	if days <= 0 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	clinicHours, err := s.repo.GetClinicHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinic hours: %w", err)
	}

	profHours, err := s.repo.GetProfessionalHours(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load professional hours: %w", err)
	}

	now := s.now()
	selectable := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		if availability.DateSelectable(day, clinicHours, profHours, now) {
			selectable = append(selectable, day)
		}
	}
	return selectable, nil
}

// Book creates a scheduled appointment. It takes a per-professional-day lock
// so concurrent requests for the same day serialize, then re-validates the
// slot and room against a fresh snapshot before writing. The database's
// overlap constraint remains the final authority; its rejection surfaces as
// ErrBookingConflict.
func (s *Service) Book(ctx context.Context, clientID, professionalID, roomID uuid.UUID, date time.Time, start availability.MinuteOfDay) (*Appointment, error) {
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if _, err := s.repo.GetProfessionalByID(ctx, professionalID); err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}
	room, err := s.repo.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	startAt := start.On(date)
	endAt := startAt.Add(time.Duration(s.cfg.SessionMinutes) * time.Minute)

	var created *Appointment

	err = s.locker.WithDayLock(ctx, professionalID, date, func(lockCtx context.Context) error {
		// Inside the critical section everything is re-derived from fresh
		// reads; the caller's earlier computation is only advisory.
		clinicHours, err := s.repo.GetClinicHours(lockCtx)
		if err != nil {
			return fmt.Errorf("load clinic hours: %w", err)
		}
		profHours, err := s.repo.GetProfessionalHours(lockCtx, professionalID)
		if err != nil {
			return fmt.Errorf("load professional hours: %w", err)
		}
		appts, err := s.repo.ListAppointmentsForDay(lockCtx, date)
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}

		slots, err := availability.Slots(date, clinicHours, profHours, s.cfg.SessionMinutes, s.now())
		if err != nil {
			return err
		}
		if !containsMinute(slots, start) {
			return ErrSlotTaken
		}

		for _, a := range appts {
			if a.ProfessionalID == professionalID && availability.Overlaps(startAt, endAt, a.StartTime, a.EndTime) {
				return ErrSlotTaken
			}
		}

		freeRooms, err := availability.Rooms([]availability.Room{room.EngineRoom()}, date, start, s.cfg.SessionMinutes, snapshots(appts))
		if err != nil {
			return err
		}
		if len(freeRooms) == 0 {
			return ErrRoomTaken
		}

		appt, err := s.repo.CreateScheduledAppointment(lockCtx, clientID, professionalID, roomID, startAt, endAt)
		if err != nil {
			return err
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"client_id":       clientID.String(),
			"professional_id": professionalID.String(),
			"room_id":         roomID.String(),
			"start_time":      startAt,
			"end_time":        endAt,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// Cancel moves a scheduled appointment to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{})

	return updated, nil
}

// CompleteElapsed is intended to be called by the worker periodically. It
// marks scheduled appointments whose end time has passed as completed.
func (s *Service) CompleteElapsed(ctx context.Context) error {
	now := s.now()
	elapsed, err := s.repo.FindElapsedScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("find elapsed appointments: %w", err)
	}

	for _, appt := range elapsed {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCompleted)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to complete appointment %s: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentCompleted, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointmentsByClient retrieves appointments for a specific client
func (s *Service) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListAppointmentsByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appointments, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

func engineRooms(rooms []Room) []availability.Room {
	out := make([]availability.Room, len(rooms))
	for i, r := range rooms {
		out[i] = r.EngineRoom()
	}
	return out
}

func snapshots(appts []Appointment) []availability.Appointment {
	out := make([]availability.Appointment, len(appts))
	for i, a := range appts {
		out[i] = a.Snapshot()
	}
	return out
}

func containsMinute(slots []availability.MinuteOfDay, t availability.MinuteOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
