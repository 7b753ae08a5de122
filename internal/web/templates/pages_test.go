package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
	"github.com/JonMunkholm/ttparse/internal/store"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestRunPage_EscapesCellText(t *testing.T) {
	run := store.Run{
		ID:        uuid.New(),
		Profile:   "jiit",
		FileName:  "<b>tt</b>.xlsx",
		Sheet:     "Sheet1",
		Events:    1,
		Failures:  1,
		CreatedAt: time.Now(),
	}
	res := &core.ParseResult{
		Events: []core.Event{{
			Type:       core.Lecture,
			Batches:    []string{"F2", "F3"},
			CourseCode: "CS201",
			CourseName: "Data Structures",
			Classroom:  "CR5",
			Lecturers:  []string{"Gaurav Mehta"},
			Span:       core.Span{Start: core.NewTimeOfDay(9, 0), End: core.NewTimeOfDay(9, 50)},
			Day:        time.Monday,
		}},
		Failures: []*core.ParseError{{Row: 4, Col: 3, Raw: "<script>", Reason: "malformed cell"}},
	}

	out := renderString(t, RunPage(run, res))

	for _, want := range []string{"Data Structures", "F2, F3", "09:00 - 09:50", "Monday", "R4C3", "&lt;script&gt;", "&lt;b&gt;tt&lt;/b&gt;.xlsx"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("raw cell text was not escaped")
	}
}

func TestIndex_Empty(t *testing.T) {
	out := renderString(t, Index(nil))
	if !strings.Contains(out, "No workbooks parsed yet") {
		t.Errorf("empty index = %q", out)
	}
}

func TestIndex_LinksRuns(t *testing.T) {
	id := uuid.New()
	out := renderString(t, Index([]store.Run{{ID: id, FileName: "a.xlsx", Profile: "jiit"}}))
	if !strings.Contains(out, `href="/runs/`+id.String()+`"`) {
		t.Errorf("index does not link run %s", id)
	}
}

func TestErrorPage(t *testing.T) {
	out := renderString(t, ErrorPage("Parse run not found", "Check the run id", "RUN001"))
	for _, want := range []string{"Parse run not found", "Check the run id", "RUN001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
