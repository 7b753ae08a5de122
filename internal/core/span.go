package core

// span.go parses period headers such as "9.00-9.55" into time spans.
//
// Headers never carry AM/PM markers, so hours below a threshold are read as
// afternoon hours. The thresholds differ between start and end clauses and
// are tuned to the documents seen so far; they live on Thresholds so a
// profile can override them.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default PM-shift thresholds. Start hours below DefaultStartPMHour and end
// hours below DefaultEndPMHour are shifted by 12 hours.
const (
	DefaultStartPMHour = 8
	DefaultEndPMHour   = 9
)

// Filler characters trimmed from either end of a clause before reading it.
const (
	startClauseFiller = " NO"
	endClauseFiller   = "APM "
	minuteFiller      = "AMP "
)

var hourMinuteSep = regexp.MustCompile(`[:.]`)

// Thresholds controls the PM-shift heuristic.
type Thresholds struct {
	StartPM int
	EndPM   int
}

// DefaultThresholds returns the thresholds used when a profile sets none.
func DefaultThresholds() Thresholds {
	return Thresholds{StartPM: DefaultStartPMHour, EndPM: DefaultEndPMHour}
}

// TimeOfDay is a wall-clock time stored as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for HH:MM values.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	h, m, err := splitHourMinute(string(b))
	if err != nil {
		return err
	}
	*t = NewTimeOfDay(h, m)
	return nil
}

// Span is a start/end time-of-day pair for a scheduling period.
type Span struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// String formats the span as "HH:MM - HH:MM".
func (s Span) String() string {
	return s.Start.String() + " - " + s.End.String()
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Union returns the smallest span covering both s and other.
// Used only when one cell spans several merged period columns.
func (s Span) Union(other Span) Span {
	out := other
	if s.Start < other.Start {
		out.Start = s.Start
	}
	if s.End > other.End {
		out.End = s.End
	}
	return out
}

// ParseSpan parses a period header like "9.00-9.55" or "2:00 - 2:55 PM".
func ParseSpan(text string, th Thresholds) (Span, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return Span{}, &FormatError{Input: text, Reason: "expected exactly one '-' between start and end"}
	}

	start := strings.Trim(parts[0], startClauseFiller)
	end := strings.Trim(parts[1], endClauseFiller)

	startHour, startMin, err := splitHourMinute(start)
	if err != nil {
		return Span{}, &FormatError{Input: text, Reason: "start: " + err.Error()}
	}
	endHour, endMin, err := splitHourMinute(end)
	if err != nil {
		return Span{}, &FormatError{Input: text, Reason: "end: " + err.Error()}
	}

	if startHour < th.StartPM {
		startHour += 12
	}
	if endHour < th.EndPM {
		endHour += 12
	}

	return Span{
		Start: NewTimeOfDay(startHour, startMin),
		End:   NewTimeOfDay(endHour, endMin),
	}, nil
}

// splitHourMinute reads "h", "h.mm" or "h:mm". A missing minute is zero.
func splitHourMinute(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	parts := hourMinuteSep.Split(s, -1)

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("hour %q is not a number", parts[0])
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour %d is out of range", hour)
	}
	if len(parts) == 1 {
		return hour, 0, nil
	}

	minStr := strings.Trim(parts[1], minuteFiller)
	if minStr == "" {
		return hour, 0, nil
	}
	minute, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, 0, fmt.Errorf("minute %q is not a number", parts[1])
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute %d is out of range", minute)
	}
	return hour, minute, nil
}
