package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
)

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var email *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.Email = email
	return &c, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	var specialty *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	p.Specialty = specialty
	return &p, nil
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room

	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Capacity,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ProfessionalID,
		&a.RoomID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

const appointmentColumns = `id, client_id, professional_id, room_id, start_time, end_time, status, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, capacity, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`, id)
	return scanRoom(row)
}

func (r *PgRepository) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, capacity, created_at, updated_at
		FROM rooms
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetClinicHours(ctx context.Context) (availability.WeeklyHours, error) {
	rows, err := r.db.Query(ctx, `
		SELECT weekday, opens_at, closes_at, is_open
		FROM clinic_hours
	`)
	if err != nil {
		return nil, err
	}
	return scanWeeklyHours(rows)
}

func (r *PgRepository) GetProfessionalHours(ctx context.Context, professionalID uuid.UUID) (availability.WeeklyHours, error) {
	rows, err := r.db.Query(ctx, `
		SELECT weekday, opens_at, closes_at, is_open
		FROM professional_hours
		WHERE professional_id = $1
	`, professionalID)
	if err != nil {
		return nil, err
	}
	return scanWeeklyHours(rows)
}

// scanWeeklyHours builds an hours map from per-weekday rows. Zero rows yield
// a nil map, which the engine treats as unknown hours.
func scanWeeklyHours(rows pgx.Rows) (availability.WeeklyHours, error) {
	defer rows.Close()

	var hours availability.WeeklyHours
	for rows.Next() {
		var weekday int16
		var opens, closes int16
		var open bool

		if err := rows.Scan(&weekday, &opens, &closes, &open); err != nil {
			return nil, err
		}

		if hours == nil {
			hours = availability.WeeklyHours{}
		}
		hours[time.Weekday(weekday)] = availability.DayHours{
			Opens:  availability.MinuteOfDay(opens),
			Closes: availability.MinuteOfDay(closes),
			Open:   open,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hours, nil
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, day time.Time) ([]Appointment, error) {
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND start_time >= $1
		  AND start_time < $2
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateScheduledAppointment(ctx context.Context, clientID, professionalID, roomID uuid.UUID, start, end time.Time) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, professional_id, room_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', now(), now())
		RETURNING `+appointmentColumns+`
	`, id, clientID, professionalID, roomID, start, end)

	appt, err := scanAppointment(row)
	if err != nil {
		// The appointments table carries exclusion constraints forbidding two
		// scheduled appointments with the same room or professional and
		// overlapping [start_time, end_time). That rejection is the final
		// word on conflicts.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
			return nil, ErrBookingConflict
		}
		return nil, err
	}

	return appt, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := AppointmentDetail{Appointment: *appt}

	if detail.Client, err = r.GetClientByID(ctx, appt.ClientID); err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if detail.Professional, err = r.GetProfessionalByID(ctx, appt.ProfessionalID); err != nil {
		return nil, fmt.Errorf("load professional: %w", err)
	}
	if detail.Room, err = r.GetRoomByID(ctx, appt.RoomID); err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}

	return &detail, nil
}

func (r *PgRepository) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.client_id, a.professional_id, a.room_id, a.start_time, a.end_time, a.status, a.created_at, a.updated_at,
		       c.id, c.name, c.email, c.created_at, c.updated_at,
		       p.id, p.name, p.specialty, p.created_at, p.updated_at,
		       r.id, r.name, r.capacity, r.created_at, r.updated_at
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN professionals p ON p.id = a.professional_id
		JOIN rooms r ON r.id = a.room_id
		WHERE a.client_id = $1
		ORDER BY a.start_time DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var detail AppointmentDetail
		var client Client
		var prof Professional
		var room Room

		err := rows.Scan(
			&detail.ID, &detail.ClientID, &detail.ProfessionalID, &detail.RoomID,
			&detail.StartTime, &detail.EndTime, &detail.Status, &detail.CreatedAt, &detail.UpdatedAt,
			&client.ID, &client.Name, &client.Email, &client.CreatedAt, &client.UpdatedAt,
			&prof.ID, &prof.Name, &prof.Specialty, &prof.CreatedAt, &prof.UpdatedAt,
			&room.ID, &room.Name, &room.Capacity, &room.CreatedAt, &room.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		detail.Client = &client
		detail.Professional = &prof
		detail.Room = &room
		result = append(result, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindElapsedScheduled(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND end_time < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
