package core

// classify.go splits the text after a course code into a classroom and its
// lecturers.
//
// Classroom and lecturer tokens share the same surface shape (letters and
// digits), so they are told apart by position, reserved prefixes and the
// punctuation around them. The rules below are applied in order and the
// first that fires wins:
//
//  1. Known idioms (literal markers) with a fixed classroom layout
//  2. A fused "CR5GM" token: classroom followed directly by a lecturer
//  3. Fewer than two tokens: the sole token is the classroom
//  4. A classroom code followed by bare numbers: "CL10,11" -> "CL10/CL11"
//  5. A placeholder lecturer first: the last token is the classroom
//  6. A two-letter room code last (not a reserved prefix): it is the classroom
//  7. Otherwise the first token is the classroom

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Classifier splits a cell remainder into classroom and lecturers.
// Implementations must be pure: the faculty map is read-only.
type Classifier interface {
	Classify(remainder string, faculty map[string]string) (classroom string, lecturers []string)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(remainder string, faculty map[string]string) (string, []string)

// Classify calls f.
func (f ClassifierFunc) Classify(remainder string, faculty map[string]string) (string, []string) {
	return f(remainder, faculty)
}

// IdiomMode is the classroom layout forced by a ClassroomIdiom.
type IdiomMode int

const (
	// IdiomLeadingPair joins the first two tokens into one classroom.
	IdiomLeadingPair IdiomMode = iota
	// IdiomTrailingPair joins the last two tokens into one classroom.
	IdiomTrailingPair
	// IdiomNoClassroom treats every token as a lecturer.
	IdiomNoClassroom
	// IdiomDotLecturers takes the first token as classroom and splits the
	// remaining tokens on '.'.
	IdiomDotLecturers
	// IdiomSpaceSeparated splits the first token on whitespace into the
	// classroom and its lecturers.
	IdiomSpaceSeparated
)

// ClassroomIdiom forces a layout whenever Marker appears in the remainder.
// An Exact idiom applies only when the remainder is Marker itself.
type ClassroomIdiom struct {
	Marker string    `yaml:"marker"`
	Mode   IdiomMode `yaml:"mode"`
	Exact  bool      `yaml:"exact"`
}

func (i ClassroomIdiom) matches(remainder string) bool {
	if i.Marker == "" {
		return false
	}
	if i.Exact {
		return remainder == i.Marker
	}
	return strings.Contains(remainder, i.Marker)
}

// Defaults for placeholder lecturer codes.
var (
	// DefaultReservedPrefixes are two-letter prefixes that mark placeholder
	// lecturers rather than rooms.
	DefaultReservedPrefixes = []string{"NF", "TA"}

	// DefaultFacultyCategories expands the category letter of a new-faculty code.
	DefaultFacultyCategories = map[string]string{
		"P": "Physics",
		"M": "Maths",
	}
)

// NoClassroom is the classroom recorded when a cell names none.
const NoClassroom = "N/A"

var (
	tokenDelimiters    = regexp.MustCompile(`[,/\\]+`)
	fusedRoomRegex     = regexp.MustCompile(`^([A-Za-z]+)(\d+)([A-Za-z].*)$`)
	classroomCodeRegex = regexp.MustCompile(`^([A-Z]{2,})(\d+)$`)
	twoLetterRoomRegex = regexp.MustCompile(`^([A-Z]{2})(\d+)$`)
	newFacultyRegex    = regexp.MustCompile(`^NF(.*?)(\d+)$`)
	assistantRegex     = regexp.MustCompile(`^TA-?(\d+)$`)
)

// TokenClassifier is the default Classifier.
type TokenClassifier struct {
	Idioms            []ClassroomIdiom
	ReservedPrefixes  []string
	FacultyCategories map[string]string
}

// NewTokenClassifier returns a classifier with the default placeholder rules
// and the given idioms.
func NewTokenClassifier(idioms []ClassroomIdiom) *TokenClassifier {
	return &TokenClassifier{
		Idioms:            idioms,
		ReservedPrefixes:  DefaultReservedPrefixes,
		FacultyCategories: DefaultFacultyCategories,
	}
}

// Classify implements Classifier.
func (c *TokenClassifier) Classify(remainder string, faculty map[string]string) (string, []string) {
	classroom, raw := c.split(strings.TrimSpace(remainder))

	lecturers := make([]string, 0, len(raw))
	for _, tok := range raw {
		if l := c.ResolveLecturer(tok, faculty); l != "" {
			lecturers = append(lecturers, l)
		}
	}
	return classroom, lecturers
}

// split decides the classroom and the raw lecturer tokens.
func (c *TokenClassifier) split(remainder string) (string, []string) {
	tokens := SplitTokens(remainder)

	for _, idiom := range c.Idioms {
		if idiom.matches(remainder) {
			return applyIdiom(idiom.Mode, tokens)
		}
	}

	if m := fusedRoomRegex.FindStringSubmatch(remainder); m != nil {
		return m[1] + m[2], SplitTokens(m[3])
	}

	if len(tokens) == 0 {
		return "", nil
	}
	if len(tokens) == 1 {
		return tokens[0], nil
	}

	if room, rest, ok := concatClassrooms(tokens); ok {
		return room, rest
	}

	first, last := tokens[0], tokens[len(tokens)-1]
	if c.isPlaceholder(first) {
		return last, tokens[:len(tokens)-1]
	}

	if m := twoLetterRoomRegex.FindStringSubmatch(last); m != nil && !c.isReserved(m[1]) {
		return last, tokens[:len(tokens)-1]
	}

	return first, tokens[1:]
}

func applyIdiom(mode IdiomMode, tokens []string) (string, []string) {
	switch mode {
	case IdiomLeadingPair:
		if len(tokens) < 2 {
			break
		}
		return tokens[0] + "/" + tokens[1], tokens[2:]

	case IdiomTrailingPair:
		if len(tokens) < 2 {
			break
		}
		n := len(tokens)
		return tokens[n-2] + "/" + tokens[n-1], tokens[:n-2]

	case IdiomNoClassroom:
		return NoClassroom, tokens

	case IdiomDotLecturers:
		if len(tokens) == 0 {
			break
		}
		var rest []string
		for _, t := range tokens[1:] {
			rest = append(rest, strings.Split(t, ".")...)
		}
		return tokens[0], rest

	case IdiomSpaceSeparated:
		if len(tokens) == 0 {
			break
		}
		fields := strings.Fields(tokens[0])
		if len(fields) == 0 {
			break
		}
		return fields[0], append(fields[1:], tokens[1:]...)
	}

	if len(tokens) == 0 {
		return "", nil
	}
	return tokens[0], tokens[1:]
}

// concatClassrooms finds a room code followed by bare numbers and expands
// the numbers with the room's letters. Tokens outside the run are lecturers.
func concatClassrooms(tokens []string) (string, []string, bool) {
	for i := 0; i < len(tokens)-1; i++ {
		m := classroomCodeRegex.FindStringSubmatch(tokens[i])
		if m == nil || !digitsRegex.MatchString(tokens[i+1]) {
			continue
		}

		rooms := []string{tokens[i]}
		j := i + 1
		for ; j < len(tokens) && digitsRegex.MatchString(tokens[j]); j++ {
			rooms = append(rooms, m[1]+tokens[j])
		}

		rest := make([]string, 0, len(tokens)-(j-i))
		rest = append(rest, tokens[:i]...)
		rest = append(rest, tokens[j:]...)
		return strings.Join(rooms, "/"), rest, true
	}
	return "", nil, false
}

func (c *TokenClassifier) isPlaceholder(tok string) bool {
	return newFacultyRegex.MatchString(tok) || assistantRegex.MatchString(tok)
}

func (c *TokenClassifier) isReserved(prefix string) bool {
	for _, p := range c.ReservedPrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

// ResolveLecturer maps a raw lecturer token to a display name: a faculty
// map hit (title-cased), a placeholder expansion, or the trimmed token.
func (c *TokenClassifier) ResolveLecturer(tok string, faculty map[string]string) string {
	name := strings.Trim(tok, "- ")
	if full, ok := faculty[name]; ok {
		name = titleCase(full)
	}
	name = strings.Trim(NormalizeSpace(name), "- ")

	if nf, ok := c.newFaculty(name); ok {
		return nf
	}
	if m := assistantRegex.FindStringSubmatch(name); m != nil {
		return "Teaching Assistant " + m[1]
	}
	return name
}

// newFaculty expands "NF<category><number>" placeholders.
func (c *TokenClassifier) newFaculty(s string) (string, bool) {
	m := newFacultyRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	category, number := m[1], m[2]
	if category == "" {
		return "New Faculty " + number, true
	}
	if name, ok := c.FacultyCategories[category]; ok {
		category = name
	}
	return "New Faculty " + category + " " + number, true
}

// SplitTokens splits on ',', '/' and '\', trimming and dropping empty tokens.
func SplitTokens(s string) []string {
	var out []string
	for _, t := range tokenDelimiters.Split(s, -1) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// titleCase upper-cases the first letter of each word. A Caser is stateful,
// so one is built per call to keep concurrent day walks independent.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
