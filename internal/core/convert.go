package core

// convert.go normalizes raw cell text before it reaches the grammars.
//
// Spreadsheet exports carry non-breaking spaces, embedded newlines and
// runs of whitespace that carry no meaning in the cell syntax.

import (
	"strings"
	"unicode"
)

// cellSpaceReplacer maps whitespace look-alikes to a plain space.
var cellSpaceReplacer = strings.NewReplacer(
	" ", " ", // non-breaking space
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// CleanCell trims a cell and replaces non-breaking spaces and newlines
// with plain spaces. Interior runs of spaces are kept.
func CleanCell(s string) string {
	return strings.TrimSpace(cellSpaceReplacer.Replace(s))
}

// NormalizeSpace cleans s and collapses whitespace runs to one space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(cellSpaceReplacer.Replace(s)), " ")
}

// HasLetter reports whether s contains at least one letter.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// trimLeadingNoise drops leading characters that are neither ASCII letters
// nor digits.
func trimLeadingNoise(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
