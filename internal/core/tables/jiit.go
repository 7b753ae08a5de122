package tables

import (
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
)

func init() {
	core.Register(core.Profile{
		Key:         "jiit",
		Label:       "JIIT semester timetable",
		Description: "Week grid with period headers in row 1-3, day labels in column 1 and an irregular Saturday band.",
		Thresholds:  core.DefaultThresholds(),
		Corrections: core.MustCorrectionTable(jiitCellFixes, jiitCodeFixes),

		Idioms:            jiitIdioms,
		ReservedPrefixes:  core.DefaultReservedPrefixes,
		FacultyCategories: core.DefaultFacultyCategories,

		SpamEntries:        spamEntries,
		ElectiveCategories: electiveCategories(),
		IrregularDays:      []time.Weekday{time.Saturday},

		SupplementalCourses: map[string]string{
			"EC112": "Basic Electronics for Biotechnology",
		},
	})
}

// jiitCellFixes repair known typos in cell text before tokenizing.
var jiitCellFixes = []core.CorrectionRule{
	{Kind: core.CorrectReplace, Match: "C1-C3HS", Replacement: "C1-C3(HS"},
	{Kind: core.CorrectWhole, Match: "LC1-C3(HS211)-/FF1KMB", Replacement: "LC1-C3(HS211)-/FF1/KMB"},
	{Kind: core.CorrectRegex, Match: `^PBG(\d)`, Replacement: "PG$1"},
	{Kind: core.CorrectReplace, Match: "A5-A6-A10", Replacement: "A5,A6,A10"},
}

var jiitCodeFixes = map[string]string{
	"M302": "MA302",
}

// jiitIdioms are remainders whose classroom layout breaks the general rules.
var jiitIdioms = []core.ClassroomIdiom{
	{Marker: "EDD/CADD0", Mode: core.IdiomLeadingPair},
	{Marker: "ACL,JBSPL", Mode: core.IdiomLeadingPair},
	{Marker: "SPL, 5G LAB/", Mode: core.IdiomLeadingPair},
	{Marker: "SPL,5G LAB/", Mode: core.IdiomLeadingPair},
	{Marker: "BS,SHG/CL15/CL16", Mode: core.IdiomTrailingPair},
	{Marker: "TA13/MO", Mode: core.IdiomNoClassroom, Exact: true},
	{Marker: "PL2/RAV.NFP1", Mode: core.IdiomDotLecturers},
	{Marker: "SR05 NFMATHS3", Mode: core.IdiomSpaceSeparated},
}
