package lookup

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// courseTable is the row layout below a course header.
type courseTable int

const (
	// Short code, full code, subject name.
	tableShortFull courseTable = iota + 1
	// "SHORT/FULL" code cell, subject name. Ends at the faculty list.
	tableSlashed
	// Full code, subject name. Ends at the first non-code row.
	tableFullOnly
)

var (
	shortCodeHeaders = []string{"Short Subject Code", "CODE", "SHORT FORM"}
	fullCodeHeaders  = []string{"Subject Code", "SUBJECT CODE"}
)

// Courses extracts course code -> course name pairs from every course table
// found in g. Each course is registered under all the code forms a cell may
// use: the full code and its shorter suffixes.
func Courses(g core.Grid) map[string]string {
	out := make(map[string]string)
	for row := 1; row <= g.MaxRow(); row++ {
		for col := 1; col <= g.MaxCol(); col++ {
			switch courseHeaderAt(g, row, col) {
			case tableShortFull:
				readShortFull(g, row+1, col, out)
			case tableSlashed:
				readSlashed(g, row+1, col, out)
			case tableFullOnly:
				readFullOnly(g, row+1, col, out)
			}
		}
	}
	return out
}

func courseHeaderAt(g core.Grid, row, col int) courseTable {
	value, _ := cell(g, row, col)
	next, _ := cell(g, row, col+1)
	prev := ""
	if col > 1 {
		prev, _ = cell(g, row, col-1)
	}

	switch {
	case oneOf(value, shortCodeHeaders) && oneOf(next, fullCodeHeaders):
		return tableShortFull
	case value == "SHORT FORM / SUBJECT CODE" && next == "SUBJECT NAME":
		return tableSlashed
	case value == "SUBJECT CODE" && next == "SUBJECT NAME" && prev == "Name":
		return tableSlashed
	case value == "SUBJECT CODE" && next == "SUBJECT NAME":
		return tableFullOnly
	}
	return 0
}

func readShortFull(g core.Grid, row, col int, out map[string]string) {
	for ; row <= g.MaxRow(); row++ {
		full, okFull := cell(g, row, col+1)
		name, okName := cell(g, row, col+2)
		if !okFull || !okName {
			continue
		}
		out[stripParens(full)] = name
		if short, ok := cell(g, row, col); ok {
			out[stripParens(short)] = name
		}
	}
}

func readSlashed(g core.Grid, row, col int, out map[string]string) {
	for ; row <= g.MaxRow(); row++ {
		v, ok := cell(g, row, col)
		if v == inlineHeader {
			return
		}
		name, okName := cell(g, row, col+1)
		if !ok || !okName {
			continue
		}

		v = removeSpace(v)
		out[v] = name
		if short, full, found := strings.Cut(v, "/"); found {
			out[short] = name
			out[full] = name
		}
	}
}

func readFullOnly(g core.Grid, row, col int, out map[string]string) {
	for ; row <= g.MaxRow(); row++ {
		v, _ := cell(g, row, col)
		v = removeSpace(v)
		if !looksLikeFullCode(v) {
			return
		}
		name, _ := cell(g, row, col+1)

		out[v] = name
		out[v[2:]] = name
		if len(v) > 5 {
			out[v[5:]] = name
		}
	}
}

// looksLikeFullCode reports whether v starts with two digits and a letter.
func looksLikeFullCode(v string) bool {
	return len(v) > 3 &&
		unicode.IsDigit(rune(v[0])) && unicode.IsDigit(rune(v[1])) &&
		unicode.IsLetter(rune(v[2]))
}

func stripParens(s string) string {
	return strings.Trim(s, "() ")
}

func removeSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func oneOf(s string, list []string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}
