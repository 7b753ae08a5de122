package core

// event.go turns one cell string into an Event.
//
// A cell reads <type><batches>(<course code>)<classroom and lecturers>, as in
// "PF7,F8(15B17CI371)CL3/AKS". Some documents bracket the batches instead and
// put the code first in the remainder: "L(F2-F6)CS201/CR5,GM". Talks use a
// looser layout "<batches>(<anything>)-<classroom>" and are recognized by a
// marker.
//
// The parse runs in fixed stages, each consuming a prefix of the text:
//
//	normalize and upper-case -> talk? -> type tag -> batches -> course code -> remainder -> classify
//
// Any stage may fail; the failure is returned as a *ParseError so the caller
// can record it and move on to the next cell.

import (
	"errors"
	"fmt"
	"strings"
)

// Parser converts cell strings to Events. It holds no mutable state, so one
// Parser may serve any number of goroutines.
type Parser struct {
	Lookups     Lookups
	Corrections *CorrectionTable
	Classifier  Classifier
	TalkMarker  string
}

// NewParser returns a parser configured by profile p.
func NewParser(lookups Lookups, p Profile) *Parser {
	return &Parser{
		Lookups:     lookups,
		Corrections: p.Corrections,
		Classifier:  p.Classifier(),
		TalkMarker:  p.TalkMarker,
	}
}

func (p *Parser) classifier() Classifier {
	if p.Classifier == nil {
		return NewTokenClassifier(nil)
	}
	return p.Classifier
}

func (p *Parser) talkMarker() string {
	if p.TalkMarker == "" {
		return TalkCourseCode
	}
	return p.TalkMarker
}

// ParseCell parses raw into an Event placed at the given cell context.
// Every error it returns is a *ParseError carrying raw and the coordinates.
func (p *Parser) ParseCell(raw string, at CellContext) (Event, error) {
	ev, err := p.parse(raw, at)
	if err != nil {
		return Event{}, newParseError(at, raw, err)
	}
	if err := ValidateEvent(ev); err != nil {
		return Event{}, newParseError(at, raw, err)
	}
	return ev, nil
}

func (p *Parser) parse(raw string, at CellContext) (Event, error) {
	text := p.Corrections.ApplyCell(strings.ToUpper(CleanCell(raw)))
	if text == "" {
		return Event{}, fmt.Errorf("%w: empty cell", ErrMalformed)
	}

	if marker := p.talkMarker(); strings.Contains(text, marker) {
		return p.parseTalk(text, marker, at)
	}

	typ, ok := eventTypeFromTag(text[0])
	if !ok {
		return Event{}, fmt.Errorf("%w %q", ErrRejected, text[:1])
	}
	body := text[1:]

	open := strings.IndexByte(body, '(')
	if open < 0 {
		return Event{}, fmt.Errorf("%w: missing '(' before course code", ErrMalformed)
	}
	closing := strings.IndexByte(body[open:], ')')
	if closing < 0 {
		return Event{}, fmt.Errorf("%w: missing ')' after course code", ErrMalformed)
	}
	closing += open

	inner, rest := body[open+1:closing], body[closing+1:]
	if strings.TrimSpace(body[:open]) == "" {
		if batches, code, remainder, ok := bracketedBatches(inner, rest); ok {
			return p.assemble(typ, batches, code, remainder, at), nil
		}
	}

	batches, err := ParseBatches(strings.ReplaceAll(body[:open], ".", ","))
	if err != nil {
		return Event{}, fmt.Errorf("batches: %w", err)
	}
	return p.assemble(typ, batches, strings.TrimSpace(inner), trimLeadingNoise(rest), at), nil
}

// assemble resolves the course code, classifies the remainder and builds the
// Event.
func (p *Parser) assemble(typ EventType, batches []string, code, remainder string, at CellContext) Event {
	code = p.Corrections.ApplyCode(code)
	classroom, lecturers := p.classifier().Classify(remainder, p.Lookups.Faculty)
	if lecturers == nil {
		lecturers = []string{}
	}

	return Event{
		Type:       typ,
		Batches:    batches,
		CourseCode: code,
		CourseName: p.courseName(code),
		Classroom:  classroom,
		Lecturers:  lecturers,
		Span:       at.Span,
		Day:        at.Day,
	}
}

// bracketedBatches reads the "L(F2-F6)CS201/CR5,GM" layout: the brackets hold
// batch codes and the course code is the first token after them. ok is false
// when inner is not a list of batch codes.
func bracketedBatches(inner, rest string) (batches []string, code, remainder string, ok bool) {
	batches, err := ParseBatches(strings.ReplaceAll(inner, ".", ","))
	if err != nil || len(batches) == 0 {
		return nil, "", "", false
	}
	for _, b := range batches {
		if !IsBatchCode(b) {
			return nil, "", "", false
		}
	}

	rest = trimLeadingNoise(rest)
	end := strings.IndexAny(rest, ",/\\ ")
	if end < 0 {
		end = len(rest)
	}
	code = rest[:end]
	if code == "" {
		return nil, "", "", false
	}
	return batches, code, trimLeadingNoise(rest[end:]), true
}

// parseTalk handles cells carrying the talk marker. The course code is fixed
// and the classroom follows the last '-'.
func (p *Parser) parseTalk(text, marker string, at CellContext) (Event, error) {
	head, rest := "", text
	if i := strings.IndexByte(text, '('); i >= 0 {
		head, rest = text[:i], text[i:]
	}

	batches, err := ParseBatches(strings.ReplaceAll(head, marker, ""))
	if err != nil {
		return Event{}, fmt.Errorf("talk batches: %w", err)
	}

	classroom := rest
	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		classroom = rest[i+1:]
	}

	return Event{
		Type:       Talk,
		Batches:    batches,
		CourseCode: TalkCourseCode,
		CourseName: Talk.String(),
		Classroom:  strings.TrimSpace(classroom),
		Lecturers:  []string{},
		Span:       at.Span,
		Day:        at.Day,
	}, nil
}

// courseName resolves code against the course map and then the elective map.
// An unresolved code yields "".
func (p *Parser) courseName(code string) string {
	name, ok := ResolveCourse(code, p.Lookups.Courses)
	if !ok {
		name, ok = ResolveCourse(code, p.Lookups.Electives)
	}
	if !ok {
		return ""
	}
	return NormalizeSpace(name)
}

// IsRejected reports whether err came from a cell whose type tag is unknown.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
