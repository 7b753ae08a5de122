package lookup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// ElectiveLayout locates the elective table on its sheet. Rows and columns
// are 1-based; data starts on the row after HeaderRow.
type ElectiveLayout struct {
	HeaderRow  int
	CodeCol    int
	SubjectCol int
}

// DefaultElectiveLayout matches the published elective lists.
var DefaultElectiveLayout = ElectiveLayout{HeaderRow: 4, CodeCol: 1, SubjectCol: 4}

var trailingNumber = regexp.MustCompile(`^(.+?)(\d+)$`)

// Electives extracts elective code -> subject pairs. A paired code such as
// "21B12CS317/318" registers the first code and its successor.
func Electives(g core.Grid, layout ElectiveLayout) map[string]string {
	out := make(map[string]string)
	for row := layout.HeaderRow + 1; row <= g.MaxRow(); row++ {
		code, ok := cell(g, row, layout.CodeCol)
		if !ok {
			continue
		}
		subject, ok := cell(g, row, layout.SubjectCol)
		if !ok {
			continue
		}

		base, _, paired := strings.Cut(code, "/")
		base = strings.TrimSpace(base)
		out[base] = subject
		if !paired {
			continue
		}
		if m := trailingNumber.FindStringSubmatch(base); m != nil {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				out[m[1]+strconv.Itoa(n+1)] = subject
			}
		}
	}
	return out
}
