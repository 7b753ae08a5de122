package tables_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
	_ "github.com/JonMunkholm/ttparse/internal/core/tables"
)

var at = core.CellContext{
	Row:  3,
	Col:  2,
	Span: core.Span{Start: core.NewTimeOfDay(9, 0), End: core.NewTimeOfDay(9, 50)},
	Day:  time.Monday,
}

func TestProfilesRegistered(t *testing.T) {
	for _, key := range []string{"jiit", "plain"} {
		p, ok := core.GetProfile(key)
		if !ok {
			t.Errorf("profile %s not registered", key)
			continue
		}
		if p.Label == "" {
			t.Errorf("profile %s has no label", key)
		}
		if p.TalkMarker != core.TalkCourseCode {
			t.Errorf("profile %s talk marker = %q", key, p.TalkMarker)
		}
		if len(p.IrregularDays) != 1 || p.IrregularDays[0] != time.Saturday {
			t.Errorf("profile %s irregular days = %v", key, p.IrregularDays)
		}
	}
}

func TestJIITCorrections(t *testing.T) {
	p, _ := core.GetProfile("jiit")
	parser := core.NewParser(core.Lookups{}, p)

	tests := []struct {
		name        string
		raw         string
		wantType    core.EventType
		wantBatches []string
		wantCode    string
	}{
		{name: "code fix", raw: "LF1(M302)CR5", wantType: core.Lecture, wantBatches: []string{"F1"}, wantCode: "MA302"},
		{name: "stray tag letter", raw: "PBG1(CS201)LAB1", wantType: core.Practical, wantBatches: []string{"G1"}, wantCode: "CS201"},
		{name: "missing paren", raw: "LC1-C3HS211)CR5", wantType: core.Lecture, wantBatches: []string{"C1", "C2", "C3"}, wantCode: "HS211"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parser.ParseCell(tt.raw, at)
			if err != nil {
				t.Fatalf("ParseCell(%q) error = %v", tt.raw, err)
			}
			if ev.Type != tt.wantType || ev.CourseCode != tt.wantCode {
				t.Errorf("event = %s %s, want %s %s", ev.Type, ev.CourseCode, tt.wantType, tt.wantCode)
			}
			if len(ev.Batches) != len(tt.wantBatches) {
				t.Fatalf("Batches = %v, want %v", ev.Batches, tt.wantBatches)
			}
			for i := range ev.Batches {
				if ev.Batches[i] != tt.wantBatches[i] {
					t.Errorf("Batches = %v, want %v", ev.Batches, tt.wantBatches)
					break
				}
			}
		})
	}
}

func TestJIITIdioms(t *testing.T) {
	p, _ := core.GetProfile("jiit")
	plain, _ := core.GetProfile("plain")
	raw := "TF1(CS201)TA13/MO"

	ev, err := core.NewParser(core.Lookups{}, p).ParseCell(raw, at)
	if err != nil {
		t.Fatalf("jiit ParseCell error = %v", err)
	}
	if ev.Classroom != core.NoClassroom {
		t.Errorf("jiit classroom = %q, want %q", ev.Classroom, core.NoClassroom)
	}

	ev, err = core.NewParser(core.Lookups{}, plain).ParseCell(raw, at)
	if err != nil {
		t.Fatalf("plain ParseCell error = %v", err)
	}
	if ev.Classroom == core.NoClassroom {
		t.Error("plain profile should not apply the jiit idiom")
	}
}

func TestJIITIdioms_ExactRemainder(t *testing.T) {
	p, _ := core.GetProfile("jiit")
	parser := core.NewParser(core.Lookups{}, p)

	tests := []struct {
		name          string
		raw           string
		wantClassroom string
		wantLecturers []string
	}{
		{
			name:          "documented cell",
			raw:           "TA18(25B31EC311)-TA13/MO",
			wantClassroom: core.NoClassroom,
			wantLecturers: []string{"Teaching Assistant 13", "MO"},
		},
		{
			name:          "marker inside a longer remainder",
			raw:           "LF1(CS201)CR5/TA13/MO",
			wantClassroom: "CR5",
			wantLecturers: []string{"Teaching Assistant 13", "MO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parser.ParseCell(tt.raw, at)
			if err != nil {
				t.Fatalf("ParseCell(%q) error = %v", tt.raw, err)
			}
			if ev.Classroom != tt.wantClassroom {
				t.Errorf("Classroom = %q, want %q", ev.Classroom, tt.wantClassroom)
			}
			if !reflect.DeepEqual(ev.Lecturers, tt.wantLecturers) {
				t.Errorf("Lecturers = %q, want %q", ev.Lecturers, tt.wantLecturers)
			}
		})
	}
}

func TestJIITSupplementalCourses(t *testing.T) {
	p, _ := core.GetProfile("jiit")

	l := p.WithLookups(core.Lookups{Courses: map[string]string{"CS201": "Data Structures"}})
	if l.Courses["EC112"] == "" || l.Courses["CS201"] != "Data Structures" {
		t.Errorf("Courses = %v", l.Courses)
	}
}

func TestElectiveCategories(t *testing.T) {
	p, _ := core.GetProfile("plain")
	want := []string{"SE", "HSS 1", "HSS1", "HSS-1", "OE-2", "DE6"}

	for _, label := range want {
		found := false
		for _, c := range p.ElectiveCategories {
			if c == label {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ElectiveCategories missing %q", label)
		}
	}
}
