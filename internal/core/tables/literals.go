package tables

import "fmt"

// spamEntries are whole-cell notices that carry no event.
var spamEntries = []string{
	"LUNCH",
	"ALL BATCH FREE FOR MEETING",
	"FREE TS11",
	"/NFMATH3",
	"BLOCKED",
	"LECTURE AND TUTORIAL CLASSES ARE BLOCKED FOR TALKS.",
}

// electiveCategories lists the category labels that head an elective block.
// Each category is written "HSS 1", "HSS1" or "HSS-1" depending on the sheet.
func electiveCategories() []string {
	out := []string{"SE"}
	add := func(prefix string, n int) {
		out = append(out,
			fmt.Sprintf("%s %d", prefix, n),
			fmt.Sprintf("%s%d", prefix, n),
			fmt.Sprintf("%s-%d", prefix, n),
		)
	}
	add("HSS", 1)
	add("HSS", 2)
	add("OE", 2)
	for n := 1; n <= 6; n++ {
		add("DE", n)
	}
	return out
}
