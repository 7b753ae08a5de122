package tables

import (
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// The plain profile carries no document-specific fixes. It suits sheets
// that already follow the cell syntax closely.
func init() {
	core.Register(core.Profile{
		Key:                "plain",
		Label:              "Plain timetable",
		Description:        "Generic week grid without known typos or classroom idioms.",
		Thresholds:         core.DefaultThresholds(),
		SpamEntries:        spamEntries,
		ElectiveCategories: electiveCategories(),
		IrregularDays:      []time.Weekday{time.Saturday},
	})
}
