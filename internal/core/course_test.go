package core

import "testing"

// ----------------------------------------------------------------------------
// ResolveCourse Tests
// ----------------------------------------------------------------------------

var testCourses = map[string]string{
	"15B11CI111": "Software Engineering",
	"B11MA112":   "Mathematics-2",
	"PH211":      "Physics Lab-2",
	"CI371":      "Database Systems",
	"CS201":      "Data Structures",
}

func TestResolveCourse(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantName string
		wantOK   bool
	}{
		{name: "exact full", code: "15B11CI111", wantName: "Software Engineering", wantOK: true},
		{name: "exact short", code: "CS201", wantName: "Data Structures", wantOK: true},

		// Full-shape repairs
		{name: "dropped middle digit", code: "15B1CI111", wantName: "Software Engineering", wantOK: true},
		{name: "extra suffix digit", code: "15B11CI1111", wantName: "Software Engineering", wantOK: true},
		{name: "full falls back to medium", code: "17B11MA112", wantName: "Mathematics-2", wantOK: true},
		{name: "full falls back to short", code: "15B17PH211", wantName: "Physics Lab-2", wantOK: true},

		// Medium and short
		{name: "medium falls back to short", code: "B17CI371", wantName: "Database Systems", wantOK: true},
		{name: "short with extra digit", code: "CI3715", wantName: "Database Systems", wantOK: true},

		// Unresolved
		{name: "unknown shape", code: "TALK", wantOK: false},
		{name: "unknown full", code: "15B11XX999", wantOK: false},
		{name: "empty", code: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := ResolveCourse(tt.code, testCourses)
			if ok != tt.wantOK {
				t.Fatalf("ResolveCourse(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if name != tt.wantName {
				t.Errorf("ResolveCourse(%q) = %q, want %q", tt.code, name, tt.wantName)
			}
		})
	}
}

func TestResolveCourse_EmptyMap(t *testing.T) {
	if name, ok := ResolveCourse("CS201", nil); ok || name != "" {
		t.Errorf("ResolveCourse with nil map = (%q, %v), want (\"\", false)", name, ok)
	}
}

func TestClassifyCode(t *testing.T) {
	tests := []struct {
		code string
		want CodeShape
	}{
		{"15B11CI111", ShapeFull},
		{"15B1CI1111", ShapeFull},
		{"B11CI111", ShapeMedium},
		{"CI111", ShapeShort},
		{"CS201", ShapeShort},
		{"TALK", ShapeUnknown},
		{"cs201", ShapeUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyCode(tt.code); got != tt.want {
			t.Errorf("ClassifyCode(%q) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// RepairCandidates Tests
// ----------------------------------------------------------------------------

func TestRepairCandidates_SingleDigitMiddle(t *testing.T) {
	got := RepairCandidates("15B1CI111")
	if len(got) != 20 {
		t.Fatalf("len = %d, want 20", len(got))
	}

	checks := map[int]string{
		0:  "15B10CI111",
		9:  "15B19CI111",
		10: "15B01CI111",
		19: "15B91CI111",
	}
	for i, want := range checks {
		if got[i] != want {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestRepairCandidates_TruncatesSuffix(t *testing.T) {
	for _, c := range RepairCandidates("15B1CI1112") {
		if c[len(c)-5:] != "CI111" {
			t.Errorf("candidate %q keeps the fourth suffix digit", c)
		}
	}

	got := RepairCandidates("15B11CI1112")
	if len(got) != 1 || got[0] != "15B11CI111" {
		t.Errorf("RepairCandidates = %v, want [15B11CI111]", got)
	}
}

func TestRepairCandidates_NotFullShape(t *testing.T) {
	got := RepairCandidates("CS201")
	if len(got) != 1 || got[0] != "CS201" {
		t.Errorf("RepairCandidates = %v, want [CS201]", got)
	}
}
