package core

import (
	"fmt"
	"time"
)

// EventType identifies the kind of a scheduled event.
type EventType string

const (
	Lecture   EventType = "L"
	Tutorial  EventType = "T"
	Practical EventType = "P"
	Talk      EventType = "TALK"
)

// String returns the display name of the event type.
func (t EventType) String() string {
	switch t {
	case Lecture:
		return "Lecture"
	case Tutorial:
		return "Tutorial"
	case Practical:
		return "Practical"
	case Talk:
		return "Talk"
	default:
		return string(t)
	}
}

// eventTypeFromTag maps the single-letter cell prefix to an EventType.
func eventTypeFromTag(tag byte) (EventType, bool) {
	switch tag {
	case 'L':
		return Lecture, true
	case 'T':
		return Tutorial, true
	case 'P':
		return Practical, true
	default:
		return "", false
	}
}

// TalkCourseCode is the course code assigned to every talk event.
const TalkCourseCode = "TALK"

// Event is one scheduled class occupying a day and a time span.
// Events are built by the Parser and never modified afterwards.
type Event struct {
	Type       EventType    `json:"type"`
	Batches    []string     `json:"batches"`
	CourseCode string       `json:"courseCode"`
	CourseName string       `json:"courseName,omitempty"` // Empty when the code did not resolve
	Classroom  string       `json:"classroom"`
	Lecturers  []string     `json:"lecturers"`
	Span       Span         `json:"span"`
	Day        time.Weekday `json:"day"`
}

// Subject returns the course name, or the raw course code when unresolved.
func (e Event) Subject() string {
	if e.CourseName != "" {
		return e.CourseName
	}
	return e.CourseCode
}

// String renders the event as a multi-line summary.
func (e Event) String() string {
	return fmt.Sprintf("Event: %s\nTime: %s\nDay: %s\nBatches: %v\nSubject: %s\nVenue: %s\nLecturer: %v\n",
		e.Type, e.Span, e.Day, e.Batches, e.Subject(), e.Classroom, e.Lecturers)
}

// Lookups bundles the read-only tables a parse consults.
// The parser never mutates them; callers own their lifecycle.
type Lookups struct {
	Courses   map[string]string // course code -> course name
	Faculty   map[string]string // faculty abbreviation -> full name
	Electives map[string]string // elective code -> subject name
}

// CellContext locates a cell in the grid and carries its effective period.
type CellContext struct {
	Row  int
	Col  int
	Span Span
	Day  time.Weekday
}

// ParseResult is the outcome of walking one document.
// Events are ordered Monday through Sunday, column-major within a day.
type ParseResult struct {
	Events   []Event       `json:"events"`
	Failures []*ParseError `json:"failures"`
}

// Weekdays lists the days in document order.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}
