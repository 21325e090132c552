package availability

import "time"

// DayHours is one weekday's working window. When Open is false the window
// bounds are meaningless and never read.
type DayHours struct {
	Opens  MinuteOfDay `json:"opens"`
	Closes MinuteOfDay `json:"closes"`
	Open   bool        `json:"open"`
}

// WeeklyHours maps a weekday to its working window. A nil map or a missing
// weekday means the hours are unknown, which the engine treats as closed.
type WeeklyHours map[time.Weekday]DayHours

// day returns the window for the date's weekday and whether it is open.
// Unknown hours fail closed.
func (w WeeklyHours) day(date time.Time) (DayHours, bool) {
	if w == nil {
		return DayHours{}, false
	}
	h, ok := w[date.Weekday()]
	if !ok || !h.Open {
		return DayHours{}, false
	}
	return h, true
}

// effectiveWindow intersects clinic and professional windows for one day.
// The second return is false when either side is closed or unknown, or when
// the intersection is empty or degenerate.
func effectiveWindow(date time.Time, clinic, professional WeeklyHours) (opens, closes MinuteOfDay, ok bool) {
	ch, ok := clinic.day(date)
	if !ok {
		return 0, 0, false
	}
	ph, ok := professional.day(date)
	if !ok {
		return 0, 0, false
	}

	opens = ch.Opens
	if ph.Opens > opens {
		opens = ph.Opens
	}
	closes = ch.Closes
	if ph.Closes < closes {
		closes = ph.Closes
	}

	if opens >= closes {
		return 0, 0, false
	}
	return opens, closes, true
}

// sameDay reports whether a and b fall on the same calendar day, compared in
// a's location.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
