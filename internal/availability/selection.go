package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Selection errors. All of them are recoverable: a stale choice means another
// booking won the race, so the caller clears the choice and asks the user to
// pick again.
var (
	ErrSelectionOrder   = errors.New("selection step out of order")
	ErrDateNotOfferable = errors.New("date is not selectable")
	ErrSlotUnavailable  = errors.New("slot is no longer available")
	ErrRoomUnavailable  = errors.New("room is no longer available")
	ErrAlreadyBooked    = errors.New("selection is already booked")
)

type SelectionState int

const (
	StateNoClient SelectionState = iota
	StateClient
	StateDate
	StateTime
	StateRoom
	StateBooked
)

// Selection is the candidate-booking workflow: client, then date, then time,
// then room, then booked. Every step validates the choice against a freshly
// computed set supplied by the caller, and changing anything upstream resets
// everything downstream, because slot and room sets are only valid snapshots
// at computation time.
type Selection struct {
	state SelectionState

	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	Date           time.Time
	Start          MinuteOfDay
	RoomID         uuid.UUID
}

func (s *Selection) State() SelectionState { return s.state }

// SelectClient starts (or restarts) the workflow. Any previous date, time and
// room choices are discarded.
func (s *Selection) SelectClient(clientID, professionalID uuid.UUID) error {
	if s.state == StateBooked {
		return ErrAlreadyBooked
	}
	s.ClientID = clientID
	s.ProfessionalID = professionalID
	s.resetTo(StateClient)
	return nil
}

// SelectDate picks a day. The caller passes the DateSelectable verdict
// computed from current hours.
func (s *Selection) SelectDate(date time.Time, selectable bool) error {
	if s.state == StateBooked {
		return ErrAlreadyBooked
	}
	if s.state < StateClient {
		return ErrSelectionOrder
	}
	if !selectable {
		s.resetTo(StateClient)
		return ErrDateNotOfferable
	}
	s.Date = date
	s.resetTo(StateDate)
	return nil
}

// SelectTime picks a start time out of a freshly computed slot set.
func (s *Selection) SelectTime(start MinuteOfDay, slots []MinuteOfDay) error {
	if s.state == StateBooked {
		return ErrAlreadyBooked
	}
	if s.state < StateDate {
		return ErrSelectionOrder
	}
	if !containsSlot(slots, start) {
		s.resetTo(StateDate)
		return ErrSlotUnavailable
	}
	s.Start = start
	s.resetTo(StateTime)
	return nil
}

// SelectRoom picks a room out of a freshly computed room set.
func (s *Selection) SelectRoom(roomID uuid.UUID, rooms []Room) error {
	if s.state == StateBooked {
		return ErrAlreadyBooked
	}
	if s.state < StateTime {
		return ErrSelectionOrder
	}
	if !containsRoom(rooms, roomID) {
		s.resetTo(StateTime)
		return ErrRoomUnavailable
	}
	s.RoomID = roomID
	s.state = StateRoom
	return nil
}

// Confirm re-validates the full selection against freshly recomputed slot and
// room sets immediately before the write. A stale slot or room drops the
// selection back to the step that must be redone.
func (s *Selection) Confirm(slots []MinuteOfDay, rooms []Room) error {
	if s.state == StateBooked {
		return ErrAlreadyBooked
	}
	if s.state != StateRoom {
		return ErrSelectionOrder
	}
	if !containsSlot(slots, s.Start) {
		s.resetTo(StateDate)
		return ErrSlotUnavailable
	}
	if !containsRoom(rooms, s.RoomID) {
		s.resetTo(StateTime)
		return ErrRoomUnavailable
	}
	s.state = StateBooked
	return nil
}

// resetTo clears every choice downstream of the given step.
func (s *Selection) resetTo(state SelectionState) {
	s.state = state
	if state < StateRoom {
		s.RoomID = uuid.Nil
	}
	if state < StateTime {
		s.Start = 0
	}
	if state < StateDate {
		s.Date = time.Time{}
	}
}

func containsSlot(slots []MinuteOfDay, t MinuteOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func containsRoom(rooms []Room, id uuid.UUID) bool {
	for _, r := range rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}
