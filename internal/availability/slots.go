// Package availability computes bookable appointment slots and rooms from
// clinic hours, professional hours and already-booked appointments. It is
// pure: all loading and persisting happens in the caller, and the current
// time is always passed in.
package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidDuration = errors.New("session duration must be a positive number of minutes")

// Room is a bookable room, read-only to the engine.
type Room struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

// Appointment is an immutable snapshot of an existing booking, loaded by the
// caller for a single calendar day.
type Appointment struct {
	Start          time.Time
	End            time.Time
	RoomID         uuid.UUID
	ProfessionalID uuid.UUID
}

// Slots returns every bookable start time on the given day, ascending.
//
// The window is the intersection of clinic and professional hours for the
// day's weekday; a closed or unknown side, or an empty intersection, yields
// no slots rather than an error. Candidates are generated on SlotInterval
// boundaries strictly before closing. On the current calendar day, starts at
// or before now are dropped; future days are unaffected by now's time of day.
//
// Existing appointments are deliberately not consulted here: professional
// conflicts are rejected at booking time and room conflicts at room
// selection (Rooms).
func Slots(date time.Time, clinic, professional WeeklyHours, sessionMinutes int, now time.Time) ([]MinuteOfDay, error) {
	if sessionMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	opens, closes, ok := effectiveWindow(date, clinic, professional)
	if !ok {
		return nil, nil
	}

	today := sameDay(date, now)

	var slots []MinuteOfDay
	for t := ceilToInterval(opens); t < closes; t += SlotInterval {
		if today && !t.On(date).After(now) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}

// Rooms filters rooms down to those free for the candidate interval
// [start, start+sessionMinutes) on the given day. Intervals are half-open, so
// a booking that ends exactly at the candidate start does not conflict.
// Input ordering is preserved.
func Rooms(rooms []Room, date time.Time, start MinuteOfDay, sessionMinutes int, appointments []Appointment) ([]Room, error) {
	if sessionMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	from := start.On(date)
	to := from.Add(time.Duration(sessionMinutes) * time.Minute)

	free := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if roomFree(room.ID, from, to, appointments) {
			free = append(free, room)
		}
	}
	return free, nil
}

func roomFree(roomID uuid.UUID, from, to time.Time, appointments []Appointment) bool {
	for _, a := range appointments {
		if a.RoomID == roomID && Overlaps(from, to, a.Start, a.End) {
			return false
		}
	}
	return true
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DateSelectable reports whether the day is worth offering in a date picker:
// not in the past (day granularity, today always qualifies), clinic open that
// weekday, and professional hours known and open that weekday.
func DateSelectable(date time.Time, clinic, professional WeeklyHours, now time.Time) bool {
	y, m, d := now.In(date.Location()).Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	if date.Before(startOfToday) {
		return false
	}
	if _, ok := clinic.day(date); !ok {
		return false
	}
	if _, ok := professional.day(date); !ok {
		return false
	}
	return true
}
