package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-scheduling/internal/availability"
	"github.com/clinicdesk/clinic-scheduling/internal/config"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	clients       map[uuid.UUID]*Client
	professionals map[uuid.UUID]*Professional
	rooms         []Room
	clinicHours   availability.WeeklyHours
	profHours     map[uuid.UUID]availability.WeeklyHours
	appointments  []Appointment
	events        []EventLog
}

func (f *fakeRepo) GetClientByID(_ context.Context, id uuid.UUID) (*Client, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, ErrClientNotFound
}

func (f *fakeRepo) GetProfessionalByID(_ context.Context, id uuid.UUID) (*Professional, error) {
	if p, ok := f.professionals[id]; ok {
		return p, nil
	}
	return nil, ErrProfessionalNotFound
}

func (f *fakeRepo) GetRoomByID(_ context.Context, id uuid.UUID) (*Room, error) {
	for i := range f.rooms {
		if f.rooms[i].ID == id {
			return &f.rooms[i], nil
		}
	}
	return nil, ErrRoomNotFound
}

func (f *fakeRepo) ListRooms(_ context.Context) ([]Room, error) {
	return f.rooms, nil
}

func (f *fakeRepo) GetClinicHours(_ context.Context) (availability.WeeklyHours, error) {
	return f.clinicHours, nil
}

func (f *fakeRepo) GetProfessionalHours(_ context.Context, id uuid.UUID) (availability.WeeklyHours, error) {
	return f.profHours[id], nil
}

func (f *fakeRepo) ListAppointmentsForDay(_ context.Context, day time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusScheduled && a.StartTime.YearDay() == day.YearDay() && a.StartTime.Year() == day.Year() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateScheduledAppointment(_ context.Context, clientID, professionalID, roomID uuid.UUID, start, end time.Time) (*Appointment, error) {
	appt := Appointment{
		ID:             uuid.New(),
		ClientID:       clientID,
		ProfessionalID: professionalID,
		RoomID:         roomID,
		StartTime:      start,
		EndTime:        end,
		Status:         StatusScheduled,
	}
	f.appointments = append(f.appointments, appt)
	return &appt, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].ID == id && f.appointments[i].Status == from {
			f.appointments[i].Status = to
			return &f.appointments[i], nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			return &f.appointments[i], nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := f.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: *appt}, nil
}

func (f *fakeRepo) ListAppointmentsByClient(_ context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for _, a := range f.appointments {
		if a.ClientID == clientID {
			out = append(out, AppointmentDetail{Appointment: a})
		}
	}
	return out, nil
}

func (f *fakeRepo) FindElapsedScheduled(_ context.Context, now time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusScheduled && a.EndTime.Before(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	f.events = append(f.events, ev)
	return nil
}

// fakeLocker runs the critical section inline, or refuses when held.
type fakeLocker struct {
	held  bool
	calls int
}

func (l *fakeLocker) WithDayLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	l.calls++
	if l.held {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

// Test fixtures

var (
	testDay = time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC) // a Monday
	testNow = time.Date(2025, time.June, 9, 8, 0, 0, 0, time.UTC)
)

func week(opens, closes availability.MinuteOfDay) availability.WeeklyHours {
	w := availability.WeeklyHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		w[d] = availability.DayHours{Opens: opens, Closes: closes, Open: true}
	}
	return w
}

type fixture struct {
	repo   *fakeRepo
	locker *fakeLocker
	svc    *Service

	clientID uuid.UUID
	profID   uuid.UUID
	roomA    Room
	roomB    Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clientID := uuid.New()
	profID := uuid.New()
	roomA := Room{ID: uuid.New(), Name: "Room A", Capacity: 2}
	roomB := Room{ID: uuid.New(), Name: "Room B", Capacity: 4}

	repo := &fakeRepo{
		clients:       map[uuid.UUID]*Client{clientID: {ID: clientID, Name: "Ada"}},
		professionals: map[uuid.UUID]*Professional{profID: {ID: profID, Name: "Dr. Vieira"}},
		rooms:         []Room{roomA, roomB},
		clinicHours:   week(540, 1080), // 09:00-18:00
		profHours: map[uuid.UUID]availability.WeeklyHours{
			profID: week(540, 780), // 09:00-13:00
		},
	}
	locker := &fakeLocker{}

	svc := NewService(repo, locker, config.Config{SessionMinutes: 45})
	svc.now = func() time.Time { return testNow }

	return &fixture{
		repo: repo, locker: locker, svc: svc,
		clientID: clientID, profID: profID, roomA: roomA, roomB: roomB,
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)

	slots, err := f.svc.AvailableSlots(context.Background(), f.profID, testDay)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0].String())
	assert.Equal(t, "12:45", slots[len(slots)-1].String())
}

func TestAvailableSlotsUnknownProfessionalHours(t *testing.T) {
	f := newFixture(t)
	delete(f.repo.profHours, f.profID)

	slots, err := f.svc.AvailableSlots(context.Background(), f.profID, testDay)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableRoomsFiltersOverlaps(t *testing.T) {
	f := newFixture(t)

	f.repo.appointments = append(f.repo.appointments, Appointment{
		ID:             uuid.New(),
		ClientID:       f.clientID,
		ProfessionalID: uuid.New(),
		RoomID:         f.roomA.ID,
		StartTime:      time.Date(2025, time.June, 9, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, time.June, 9, 10, 45, 0, 0, time.UTC),
		Status:         StatusScheduled,
	})

	rooms, err := f.svc.AvailableRooms(context.Background(), testDay, 615) // 10:15
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, f.roomB.ID, rooms[0].ID)

	// Back-to-back candidate gets both rooms.
	rooms, err = f.svc.AvailableRooms(context.Background(), testDay, 645) // 10:45
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestSelectableDays(t *testing.T) {
	f := newFixture(t)
	f.repo.clinicHours[time.Wednesday] = availability.DayHours{Open: false}

	days, err := f.svc.SelectableDays(context.Background(), f.profID, testDay, 7)
	require.NoError(t, err)
	require.Len(t, days, 6)
	for _, d := range days {
		assert.NotEqual(t, time.Wednesday, d.Weekday())
	}
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600) // 10:00
	require.NoError(t, err)
	require.NotNil(t, appt)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, time.Date(2025, time.June, 9, 10, 0, 0, 0, time.UTC), appt.StartTime)
	assert.Equal(t, time.Date(2025, time.June, 9, 10, 45, 0, 0, time.UTC), appt.EndTime)
	assert.Equal(t, 1, f.locker.calls)

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, EventAppointmentBooked, f.repo.events[0].EventType)
}

func TestBookRejectsProfessionalOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600)
	require.NoError(t, err)

	// Same professional, different room, overlapping interval.
	_, err = f.svc.Book(context.Background(), f.clientID, f.profID, f.roomB.ID, testDay, 615)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookRejectsRoomOverlap(t *testing.T) {
	f := newFixture(t)

	otherProf := uuid.New()
	f.repo.professionals[otherProf] = &Professional{ID: otherProf, Name: "Dr. Ruiz"}
	f.repo.profHours[otherProf] = week(540, 1080)

	_, err := f.svc.Book(context.Background(), f.clientID, otherProf, f.roomA.ID, testDay, 600)
	require.NoError(t, err)

	// Different professional, same room, overlapping interval.
	_, err = f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 630)
	assert.ErrorIs(t, err, ErrRoomTaken)

	// The other room is still free.
	appt, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomB.ID, testDay, 630)
	require.NoError(t, err)
	assert.Equal(t, f.roomB.ID, appt.RoomID)
}

func TestBookRejectsTimeOutsideHours(t *testing.T) {
	f := newFixture(t)

	// 14:00 is past the professional's 13:00 close.
	_, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 840)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookRejectsPastSlotToday(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time {
		return time.Date(2025, time.June, 9, 11, 30, 0, 0, time.UTC)
	}

	_, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600) // 10:00
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookLockContention(t *testing.T) {
	f := newFixture(t)
	f.locker.held = true

	_, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600)
	assert.ErrorIs(t, err, ErrDayBeingBooked)
}

func TestBookUnknownEntities(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), uuid.New(), f.profID, f.roomA.ID, testDay, 600)
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.svc.Book(context.Background(), f.clientID, uuid.New(), f.roomA.ID, testDay, 600)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	_, err = f.svc.Book(context.Background(), f.clientID, f.profID, uuid.New(), testDay, 600)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	// The cancelled booking no longer blocks the slot.
	_, err = f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600)
	assert.NoError(t, err)
}

func TestCompleteElapsed(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), f.clientID, f.profID, f.roomA.ID, testDay, 600)
	require.NoError(t, err)

	f.svc.now = func() time.Time {
		return time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC)
	}
	require.NoError(t, f.svc.CompleteElapsed(context.Background()))

	got, err := f.repo.GetAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	var completedEvents int
	for _, ev := range f.repo.events {
		if ev.EventType == EventAppointmentCompleted {
			completedEvents++
		}
	}
	assert.Equal(t, 1, completedEvents)
}
