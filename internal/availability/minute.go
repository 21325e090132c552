package availability

import (
	"fmt"
	"time"
)

// SlotInterval is the quantization step for candidate appointment starts.
const SlotInterval = 15

// MinuteOfDay is a time of day expressed as minutes since midnight.
type MinuteOfDay int

// ParseMinuteOfDay parses a zero-padded "HH:MM" string.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return MinuteOfDay(h*60 + m), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *MinuteOfDay) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("time of day must be a %q string", "HH:MM")
	}
	v, err := ParseMinuteOfDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// On anchors the minute onto the given calendar day, keeping the day's location.
func (m MinuteOfDay) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, int(m)/60, int(m)%60, 0, 0, day.Location())
}

// ceilToInterval rounds up to the next SlotInterval boundary.
func ceilToInterval(m MinuteOfDay) MinuteOfDay {
	rem := int(m) % SlotInterval
	if rem == 0 {
		return m
	}
	return m + MinuteOfDay(SlotInterval-rem)
}
