package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/ttparse/internal/core"
	_ "github.com/JonMunkholm/ttparse/internal/core/tables"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/store"
)

// writeWorkbook builds an xlsx file with one sheet per entry of sheets, each
// given as cell reference -> value.
func writeWorkbook(t *testing.T, sheets map[string]map[string]string, order ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%s): %v", name, err)
		}
		for ref, v := range sheets[name] {
			if err := f.SetCellValue(name, ref, v); err != nil {
				t.Fatalf("SetCellValue(%s!%s): %v", name, ref, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

// timetable is a Monday and Tuesday grid with one failing cell.
func timetable(t *testing.T) []byte {
	return writeWorkbook(t, map[string]map[string]string{
		"Week": {
			"B2": "9.00-9.50",
			"C2": "10.00-10.50",
			"A3": "MONDAY",
			"B3": "LF1(CS201)CR5/GM",
			"C3": "XF1(CS201)CR5",
			"A4": "TUESDAY",
			"B4": "TF2(CS201)CR6",
		},
	}, "Week")
}

func newTestService(t *testing.T, opts Options) (*Service, *store.Memory) {
	t.Helper()
	backend := store.NewMemory(10)
	svc, err := New(backend, opts)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	return svc, backend
}

// ----------------------------------------------------------------------------
// Construction Tests
// ----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("New(nil) should fail")
	}

	if _, err := New(store.NewMemory(1), Options{DefaultProfile: "nope"}); !errors.Is(err, core.ErrUnknownProfile) {
		t.Errorf("unknown default profile err = %v, want ErrUnknownProfile", err)
	}

	svc, _ := newTestService(t, Options{})
	if svc.DefaultProfile() != "jiit" {
		t.Errorf("DefaultProfile = %q, want jiit", svc.DefaultProfile())
	}
	if len(svc.Profiles()) < 2 {
		t.Errorf("Profiles = %d, want jiit and plain", len(svc.Profiles()))
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("Ping error = %v", err)
	}
}

// ----------------------------------------------------------------------------
// Cell Tests
// ----------------------------------------------------------------------------

func TestParseCell(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	if err := svc.ReplaceLookup(ctx, lookup.KindCourses, map[string]string{"CS201": "Data Structures"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.ReplaceLookup(ctx, lookup.KindFaculty, map[string]string{"GM": "G. Mehta"}); err != nil {
		t.Fatal(err)
	}

	ev, err := svc.ParseCell(CellRequest{Raw: "L(F2-F6)CS201/CR5,GM", Period: "9.00-9.50", Day: time.Monday})
	if err != nil {
		t.Fatalf("ParseCell error = %v", err)
	}
	if ev.CourseName != "Data Structures" || ev.Classroom != "CR5" {
		t.Errorf("event = %+v", ev)
	}
	if want := []string{"F2", "F3", "F4", "F5", "F6"}; !reflect.DeepEqual(ev.Batches, want) {
		t.Errorf("Batches = %v, want %v", ev.Batches, want)
	}
	if want := []string{"G. Mehta"}; !reflect.DeepEqual(ev.Lecturers, want) {
		t.Errorf("Lecturers = %v, want %v", ev.Lecturers, want)
	}
	if got := ev.Span.String(); got != "09:00 - 09:50" {
		t.Errorf("Span = %s, want 09:00 - 09:50", got)
	}
}

func TestParseCell_Errors(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	tests := []struct {
		name    string
		req     CellRequest
		wantErr error
	}{
		{name: "unknown tag", req: CellRequest{Raw: "XF1(CS201)CR5"}, wantErr: core.ErrRejected},
		{name: "bad period", req: CellRequest{Raw: "LF1(CS201)CR5", Period: "nine"}, wantErr: core.ErrFormat},
		{name: "unknown profile", req: CellRequest{Raw: "LF1(CS201)CR5", Profile: "nope"}, wantErr: core.ErrUnknownProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseCell(tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseCell err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseCell_LowercaseMatchesGrid(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	ev, err := svc.ParseCell(CellRequest{Raw: "lf1(cs201)cr5", Period: "9.00-9.50"})
	if err != nil {
		t.Fatalf("ParseCell error = %v", err)
	}
	if ev.Type != core.Lecture || ev.CourseCode != "CS201" || ev.Classroom != "CR5" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseCell_ThresholdOverride(t *testing.T) {
	svc, _ := newTestService(t, Options{Thresholds: core.Thresholds{StartPM: 7, EndPM: 7}})

	ev, err := svc.ParseCell(CellRequest{Raw: "LF1(CS201)CR5", Period: "8.00-8.50"})
	if err != nil {
		t.Fatalf("ParseCell error = %v", err)
	}
	if got := ev.Span.String(); got != "08:00 - 08:50" {
		t.Errorf("Span = %s, want 08:00 - 08:50 with the lowered threshold", got)
	}
}

// ----------------------------------------------------------------------------
// Workbook Tests
// ----------------------------------------------------------------------------

func TestParseWorkbook(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t, Options{})
	if err := svc.ReplaceLookup(ctx, lookup.KindCourses, map[string]string{"CS201": "Data Structures"}); err != nil {
		t.Fatal(err)
	}

	run, res, err := svc.ParseWorkbook(ctx, ParseRequest{FileName: "week.xlsx", Data: timetable(t)})
	if err != nil {
		t.Fatalf("ParseWorkbook error = %v", err)
	}

	if run.Profile != "jiit" || run.Sheet != "Week" || run.FileName != "week.xlsx" {
		t.Errorf("run = %+v", run)
	}
	if run.Events != 2 || run.Failures != 1 {
		t.Errorf("counts = %d/%d, want 2/1", run.Events, run.Failures)
	}
	if res.Events[0].Day != time.Monday || res.Events[1].Day != time.Tuesday {
		t.Errorf("days = %v, %v", res.Events[0].Day, res.Events[1].Day)
	}
	if res.Events[0].CourseName != "Data Structures" {
		t.Errorf("CourseName = %q", res.Events[0].CourseName)
	}
	if f := res.Failures[0]; f.Row != 3 || f.Col != 3 || !core.IsRejected(f) {
		t.Errorf("failure = %+v", f)
	}

	stored, storedRes, err := backend.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if stored.ID != run.ID || len(storedRes.Events) != 2 {
		t.Errorf("stored = %+v with %d events", stored, len(storedRes.Events))
	}
}

func TestParseWorkbook_Errors(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name    string
		req     ParseRequest
		wantErr error
	}{
		{name: "unknown profile", req: ParseRequest{Profile: "nope", Data: timetable(t)}, wantErr: core.ErrUnknownProfile},
		{name: "not a workbook", req: ParseRequest{Data: []byte("plain text")}},
		{name: "missing sheet", req: ParseRequest{Sheet: "Week 9", Data: timetable(t)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ParseWorkbook(ctx, tt.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Run Tests
// ----------------------------------------------------------------------------

func TestRuns(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	run, _, err := svc.ParseWorkbook(ctx, ParseRequest{FileName: "week.xlsx", Data: timetable(t)})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := svc.ListRuns(ctx, store.RunFilter{Profile: "jiit"})
	if err != nil || len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}

	if _, res, err := svc.GetRun(ctx, run.ID.String()); err != nil || len(res.Events) != 2 {
		t.Errorf("GetRun = %v, %v", res, err)
	}
	if _, _, err := svc.GetRun(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidRunID) {
		t.Errorf("GetRun(bad id) err = %v, want ErrInvalidRunID", err)
	}

	if err := svc.DeleteRun(ctx, run.ID.String()); err != nil {
		t.Fatalf("DeleteRun error = %v", err)
	}
	if _, _, err := svc.GetRun(ctx, run.ID.String()); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("GetRun after delete err = %v, want ErrRunNotFound", err)
	}
}

func TestWaitForParses(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxConcurrent: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.WaitForParses(ctx); err != nil {
		t.Errorf("WaitForParses on an idle service = %v", err)
	}
	if st := svc.LimiterStatus(); st.Active != 0 {
		t.Errorf("Active = %d, want 0", st.Active)
	}
}

// ----------------------------------------------------------------------------
// Lookup Tests
// ----------------------------------------------------------------------------

func TestLoadLookups(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	courses := filepath.Join(dir, "courses.json")
	if err := os.WriteFile(courses, []byte(`{"CS201": "Data Structures", "MA111": "Calculus"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, backend := newTestService(t, Options{LookupPaths: lookup.Paths{lookup.KindCourses: courses}})
	if err := backend.SaveLookup(ctx, "courses", map[string]string{"MA111": "Mathematics I"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.LoadLookups(ctx); err != nil {
		t.Fatalf("LoadLookups error = %v", err)
	}
	want := map[string]string{"CS201": "Data Structures", "MA111": "Mathematics I"}
	if got := svc.Lookup(lookup.KindCourses); !reflect.DeepEqual(got, want) {
		t.Errorf("courses = %v, want %v", got, want)
	}
	if got := svc.Lookup(lookup.KindFaculty); len(got) != 0 {
		t.Errorf("faculty = %v, want empty", got)
	}
}

func TestReplaceLookup(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t, Options{})

	m := map[string]string{"GM": "G. Mehta"}
	if err := svc.ReplaceLookup(ctx, lookup.KindFaculty, m); err != nil {
		t.Fatalf("ReplaceLookup error = %v", err)
	}
	if got := svc.Lookups().Faculty; !reflect.DeepEqual(got, m) {
		t.Errorf("Faculty = %v, want %v", got, m)
	}
	saved, err := backend.LoadLookup(ctx, "faculty")
	if err != nil || !reflect.DeepEqual(saved, m) {
		t.Errorf("saved = %v, %v", saved, err)
	}
}

func TestBuildLookup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	if err := svc.ReplaceLookup(ctx, lookup.KindFaculty, map[string]string{"KN": "Kavita Nair"}); err != nil {
		t.Fatal(err)
	}

	data := writeWorkbook(t, map[string]map[string]string{
		"Cover":   {"A1": "Faculty list"},
		"Faculty": {"A1": "GM", "B1": "G. Mehta", "A2": "AKS", "B2": "A. K. Sharma"},
	}, "Cover", "Faculty")

	tests := []struct {
		name string
		opts BuildOptions
		want map[string]string
	}{
		{
			name: "replace",
			opts: BuildOptions{Sheet: "Faculty", FacultyLayout: lookup.FacultyPairs},
			want: map[string]string{"GM": "G. Mehta", "AKS": "A. K. Sharma"},
		},
		{
			name: "merge",
			opts: BuildOptions{Sheet: "Faculty", Merge: true},
			want: map[string]string{"GM": "G. Mehta", "AKS": "A. K. Sharma"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.BuildLookup(ctx, lookup.KindFaculty, data, tt.opts)
			if err != nil {
				t.Fatalf("BuildLookup error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildLookup = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(svc.Lookup(lookup.KindFaculty), tt.want) {
				t.Errorf("table in use = %v", svc.Lookup(lookup.KindFaculty))
			}
		})
	}

	if _, err := svc.BuildLookup(ctx, lookup.Kind("rooms"), data, BuildOptions{Sheet: "Faculty"}); !errors.Is(err, lookup.ErrUnknownKind) {
		t.Errorf("unknown kind err = %v, want ErrUnknownKind", err)
	}
}

func TestBuildLookup_MergeKeepsExisting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	if err := svc.ReplaceLookup(ctx, lookup.KindFaculty, map[string]string{"KN": "Kavita Nair", "GM": "old"}); err != nil {
		t.Fatal(err)
	}

	data := writeWorkbook(t, map[string]map[string]string{
		"Faculty": {"A1": "GM", "B1": "G. Mehta"},
	}, "Faculty")

	got, err := svc.BuildLookup(ctx, lookup.KindFaculty, data, BuildOptions{Merge: true})
	if err != nil {
		t.Fatalf("BuildLookup error = %v", err)
	}
	want := map[string]string{"KN": "Kavita Nair", "GM": "G. Mehta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLookup = %v, want %v", got, want)
	}
}
