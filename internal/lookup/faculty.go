package lookup

import (
	"strings"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// FacultyLayout names a sheet layout that lists faculty abbreviations.
type FacultyLayout int

const (
	// FacultyPairs is a sheet of side-by-side (code, name) column pairs,
	// bounded on the right by a "Time Table Team" column.
	FacultyPairs FacultyLayout = iota
	// FacultyInline is a "Faculty Abbreviation with Names" header over
	// single cells such as "GM: G. Mehta" or "GM - G. Mehta".
	FacultyInline
	// FacultyAbbreviationFirst is a "Faculty Abbreviation" header over
	// (code, name) rows.
	FacultyAbbreviationFirst
	// FacultyNameFirst is a "Faculty Names" header over (name, code) rows.
	FacultyNameFirst
)

const (
	teamMarker         = "Time Table Team"
	inlineHeader       = "Faculty Abbreviation with Names"
	abbreviationHeader = "Faculty Abbreviation"
	namesHeader        = "Faculty Names"
)

var facultyLayoutNames = map[string]FacultyLayout{
	"pairs":        FacultyPairs,
	"inline":       FacultyInline,
	"abbreviation": FacultyAbbreviationFirst,
	"names":        FacultyNameFirst,
}

// ParseFacultyLayout maps a layout name to its FacultyLayout.
func ParseFacultyLayout(name string) (FacultyLayout, bool) {
	l, ok := facultyLayoutNames[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// Faculty extracts abbreviation -> full name pairs from g.
func Faculty(g core.Grid, layout FacultyLayout) map[string]string {
	switch layout {
	case FacultyPairs:
		return facultyPairs(g)
	case FacultyInline:
		return facultyUnder(g, func(v string) bool { return v == inlineHeader }, readInline)
	case FacultyAbbreviationFirst:
		return facultyUnder(g, func(v string) bool {
			return strings.HasPrefix(v, abbreviationHeader) && v != inlineHeader
		}, readPairs(false))
	case FacultyNameFirst:
		return facultyUnder(g, func(v string) bool { return strings.HasPrefix(v, namesHeader) }, readPairs(true))
	default:
		return map[string]string{}
	}
}

func facultyPairs(g core.Grid) map[string]string {
	out := make(map[string]string)
	lastCol := teamBound(g)

	for col := 1; col <= lastCol; col += 2 {
		for row := 1; row <= g.MaxRow(); row++ {
			code, ok := cell(g, row, col)
			if !ok {
				continue
			}
			if name, ok := cell(g, row, col+1); ok {
				out[code] = name
			}
		}
	}
	return out
}

// teamBound returns the last column left of the "Time Table Team" marker,
// or the sheet width when there is none.
func teamBound(g core.Grid) int {
	for row := 1; row <= g.MaxRow(); row++ {
		for col := 1; col <= g.MaxCol(); col++ {
			if v, ok := g.Cell(row, col); ok && strings.Contains(v, teamMarker) {
				return col - 1
			}
		}
	}
	return g.MaxCol()
}

// readDown reads the run of populated cells starting at (row, col).
type readDown func(g core.Grid, row, col int, out map[string]string)

// facultyUnder runs read below every header cell accepted by isHeader.
func facultyUnder(g core.Grid, isHeader func(string) bool, read readDown) map[string]string {
	out := make(map[string]string)
	for row := 1; row <= g.MaxRow(); row++ {
		for col := 1; col <= g.MaxCol(); col++ {
			if v, ok := cell(g, row, col); ok && isHeader(v) {
				read(g, row+1, col, out)
			}
		}
	}
	return out
}

func readInline(g core.Grid, row, col int, out map[string]string) {
	for ; row <= g.MaxRow(); row++ {
		v, ok := cell(g, row, col)
		if !ok {
			return
		}
		sep := ":"
		switch {
		case strings.Contains(v, "-"):
			sep = "-"
		case strings.Contains(v, ";"):
			sep = ";"
		}
		code, name, found := strings.Cut(v, sep)
		if !found {
			continue
		}
		out[strings.TrimSpace(code)] = strings.TrimSpace(name)
	}
}

func readPairs(nameFirst bool) readDown {
	return func(g core.Grid, row, col int, out map[string]string) {
		for ; row <= g.MaxRow(); row++ {
			a, ok := cell(g, row, col)
			if !ok {
				return
			}
			b, ok := cell(g, row, col+1)
			if !ok {
				continue
			}
			if nameFirst {
				a, b = b, a
			}
			out[a] = b
		}
	}
}

// cell returns the trimmed value at (row, col); ok is false when it is blank.
func cell(g core.Grid, row, col int) (string, bool) {
	v, ok := g.Cell(row, col)
	if !ok {
		return "", false
	}
	v = core.CleanCell(v)
	return v, v != ""
}
