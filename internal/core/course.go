package core

// course.go resolves possibly malformed course codes to course names.
//
// Codes are hand-entered and commonly drop or duplicate a digit in the
// middle segment, or carry an extra trailing digit. Resolution walks a
// ladder: exact lookup, then shape-specific repairs, then progressively
// shorter forms of the code. An unresolved code is a normal outcome.

import (
	"regexp"
	"strconv"
)

// CodeShape classifies a course code.
type CodeShape int

const (
	ShapeUnknown CodeShape = iota
	ShapeFull              // 15B11CI111
	ShapeMedium            // B11CI111
	ShapeShort             // CI111
)

func (s CodeShape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapeMedium:
		return "medium"
	case ShapeShort:
		return "short"
	default:
		return "unknown"
	}
}

var (
	fullCodeRegex   = regexp.MustCompile(`^(\d{2})([A-Z])(\d{1,2})([A-Z]{2})(\d{3,4})$`)
	mediumCodeRegex = regexp.MustCompile(`^[A-Z]\d{1,2}([A-Z]{2}\d{3,4})$`)
	shortCodeRegex  = regexp.MustCompile(`^([A-Z]{2})(\d{3,4})$`)
	fullSuffixRegex = regexp.MustCompile(`^\d{2}[A-Z]\d{1,2}([A-Z]{2}\d{3,4})$`)
)

// ClassifyCode returns the shape of a course code.
func ClassifyCode(code string) CodeShape {
	switch {
	case fullCodeRegex.MatchString(code):
		return ShapeFull
	case mediumCodeRegex.MatchString(code):
		return ShapeMedium
	case shortCodeRegex.MatchString(code):
		return ShapeShort
	default:
		return ShapeUnknown
	}
}

// ResolveCourse looks up the course name for code, repairing the code when
// the exact form is missing from courses. It never fails; ok is false when
// nothing matched.
func ResolveCourse(code string, courses map[string]string) (name string, ok bool) {
	if code == "" || len(courses) == 0 {
		return "", false
	}
	if name, ok := courses[code]; ok {
		return name, true
	}

	switch ClassifyCode(code) {
	case ShapeFull:
		return lookupFull(code, courses)
	case ShapeMedium:
		return lookupMedium(code, courses)
	case ShapeShort:
		return lookupShort(code, courses)
	default:
		name, ok := courses[code]
		return name, ok
	}
}

// RepairCandidates lists plausible corrections of a full-shape code.
// A single-digit middle segment yields twenty candidates: the digit with
// 0-9 appended, then with 0-9 prepended. A four-digit suffix is cut to
// three digits in every candidate.
func RepairCandidates(code string) []string {
	m := fullCodeRegex.FindStringSubmatch(code)
	if m == nil {
		return []string{code}
	}
	prefix, letter, middle, chars, suffix := m[1], m[2], m[3], m[4], m[5]
	if len(suffix) == 4 {
		suffix = suffix[:3]
	}

	if len(middle) != 1 {
		return []string{prefix + letter + middle + chars + suffix}
	}

	out := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		out = append(out, prefix+letter+middle+strconv.Itoa(i)+chars+suffix)
	}
	for i := 0; i < 10; i++ {
		out = append(out, prefix+letter+strconv.Itoa(i)+middle+chars+suffix)
	}
	return out
}

func lookupFull(code string, courses map[string]string) (string, bool) {
	for _, candidate := range RepairCandidates(code) {
		if name, ok := courses[candidate]; ok {
			return name, true
		}
	}

	if name, ok := lookupMedium(code[2:], courses); ok {
		return name, true
	}

	if m := fullSuffixRegex.FindStringSubmatch(code); m != nil {
		return lookupShort(m[1], courses)
	}
	return "", false
}

func lookupMedium(code string, courses map[string]string) (string, bool) {
	if name, ok := courses[code]; ok {
		return name, true
	}
	if m := mediumCodeRegex.FindStringSubmatch(code); m != nil {
		return lookupShort(m[1], courses)
	}
	return "", false
}

func lookupShort(code string, courses map[string]string) (string, bool) {
	if m := shortCodeRegex.FindStringSubmatch(code); m != nil {
		digits := m[2]
		if len(digits) == 4 {
			digits = digits[:3]
		}
		code = m[1] + digits
	}
	name, ok := courses[code]
	return name, ok
}
