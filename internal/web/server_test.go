package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/ttparse/internal/config"
	"github.com/JonMunkholm/ttparse/internal/core"
	_ "github.com/JonMunkholm/ttparse/internal/core/tables"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/service"
	"github.com/JonMunkholm/ttparse/internal/sheet"
	"github.com/JonMunkholm/ttparse/internal/store"
	mw "github.com/JonMunkholm/ttparse/internal/web/middleware"
)

const testAPIKey = "test-key"

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2},
		Security: config.SecurityConfig{
			RequireAPIKey: true,
			APIKeys:       []string{testAPIKey},
			EnableCSP:     true,
		},
		Parser: config.ParserConfig{Profile: "jiit"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc, err := service.New(store.NewMemory(10), service.Options{MaxConcurrent: 2})
	if err != nil {
		t.Fatalf("service.New error = %v", err)
	}
	return NewServer(svc, testConfig())
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// timetableUpload returns a multipart body holding a one-day workbook.
func timetableUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for ref, v := range map[string]string{
		"B2": "9.00-9.50",
		"A3": "MONDAY",
		"B3": "LF1(CS201)CR5/GM",
		"B4": "XF2(CS201)CR5",
	} {
		if err := f.SetCellValue("Sheet1", ref, v); err != nil {
			t.Fatal(err)
		}
	}
	data, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "week.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data.Bytes())
	w.Close()
	return body, w.FormDataContentType()
}

func uploadRun(t *testing.T, s *Server) RunResponse {
	t.Helper()
	body, contentType := timetableUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", contentType)

	rec := do(s, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/parse = %d: %s", rec.Code, rec.Body.String())
	}
	var out RunResponse
	decode(t, rec, &out)
	return out
}

// ----------------------------------------------------------------------------
// Health and Metadata Tests
// ----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP header missing")
	}
}

func TestListProfiles(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))

	var profiles []ProfileInfo
	decode(t, rec, &profiles)

	defaults := 0
	for _, p := range profiles {
		if p.Default {
			defaults++
			if p.Key != "jiit" {
				t.Errorf("default profile = %s, want jiit", p.Key)
			}
		}
		if p.StartPMHour == 0 || p.EndPMHour == 0 {
			t.Errorf("profile %s has no thresholds", p.Key)
		}
	}
	if defaults != 1 {
		t.Errorf("%d default profiles, want 1", defaults)
	}
}

// ----------------------------------------------------------------------------
// Parse Tests
// ----------------------------------------------------------------------------

func TestParseCell(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, resp CellResponse)
	}{
		{
			name:       "lecture",
			body:       `{"raw": "L(F2-F6)CS201/CR5", "period": "9.00-9.50", "day": "tue"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp CellResponse) {
				if resp.Event == nil || resp.Error != nil {
					t.Fatalf("response = %+v", resp)
				}
				if resp.Event.Day != "Tuesday" || resp.Event.Classroom != "CR5" || len(resp.Event.Batches) != 5 {
					t.Errorf("event = %+v", resp.Event)
				}
				if resp.Event.Subject != "CS201" {
					t.Errorf("Subject = %q, want the raw code", resp.Event.Subject)
				}
			},
		},
		{
			name:       "rejected cell",
			body:       `{"raw": "XF1(CS201)CR5"}`,
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, resp CellResponse) {
				if resp.Event != nil || resp.Error == nil || resp.Error.Code == "" {
					t.Errorf("response = %+v", resp)
				}
			},
		},
		{
			name:       "unknown day",
			body:       `{"raw": "LF1(CS201)CR5", "day": "someday"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown profile",
			body:       `{"raw": "LF1(CS201)CR5", "profile": "nope"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad json",
			body:       `{"raw": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/parse-cell", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(s, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				var resp CellResponse
				decode(t, rec, &resp)
				tt.check(t, resp)
			}
		})
	}
}

func TestParseWorkbook(t *testing.T) {
	s := newTestServer(t)
	out := uploadRun(t, s)

	if out.Run.FileName != "week.xlsx" || out.Run.Profile != "jiit" {
		t.Errorf("run = %+v", out.Run)
	}
	if len(out.Events) != 1 || out.Events[0].Day != "Monday" {
		t.Errorf("events = %+v", out.Events)
	}
	if len(out.Failures) != 1 || out.Failures[0].Row != 4 {
		t.Errorf("failures = %+v", out.Failures)
	}
}

func TestParseWorkbook_Errors(t *testing.T) {
	s := newTestServer(t)

	t.Run("no file", func(t *testing.T) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("sheet", "Week")
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		if rec := do(s, req); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown profile in path", func(t *testing.T) {
		body, contentType := timetableUpload(t)
		req := httptest.NewRequest(http.MethodPost, "/api/parse/nope", body)
		req.Header.Set("Content-Type", contentType)

		rec := do(s, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		var resp ErrorResponse
		decode(t, rec, &resp)
		if resp.Code == "" || resp.Message == "" {
			t.Errorf("error response = %+v", resp)
		}
	})
}

// ----------------------------------------------------------------------------
// Run Tests
// ----------------------------------------------------------------------------

func TestRuns(t *testing.T) {
	s := newTestServer(t)
	out := uploadRun(t, s)
	path := "/api/runs/" + out.Run.ID.String()

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/runs?profile=jiit", nil))
	var runs []store.Run
	decode(t, rec, &runs)
	if len(runs) != 1 || runs[0].ID != out.Run.ID {
		t.Errorf("runs = %+v", runs)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET run = %d", rec.Code)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET bad id = %d, want 400", rec.Code)
	}

	rec = do(s, httptest.NewRequest(http.MethodDelete, path, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("DELETE without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set(mw.APIKeyHeader, "wrong")
	if rec := do(s, req); rec.Code != http.StatusForbidden {
		t.Errorf("DELETE with wrong key = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set(mw.APIKeyHeader, testAPIKey)
	if rec := do(s, req); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", rec.Code)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted run = %d, want 404", rec.Code)
	}
}

func TestPages(t *testing.T) {
	s := newTestServer(t)
	out := uploadRun(t, s)

	for _, path := range []string{"/", "/runs/" + out.Run.ID.String()} {
		rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("GET %s Content-Type = %s", path, ct)
		}
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/runs/"+out.Run.ID.String()[:8], nil))
	if rec.Code != http.StatusBadRequest || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("bad run page = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

// ----------------------------------------------------------------------------
// Lookup Tests
// ----------------------------------------------------------------------------

func TestLookups(t *testing.T) {
	s := newTestServer(t)

	put := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/lookups/faculty", strings.NewReader(body))
		if key != "" {
			req.Header.Set(mw.APIKeyHeader, key)
		}
		return do(s, req)
	}

	if rec := put("", `{"GM": "G. Mehta"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("PUT without key = %d, want 401", rec.Code)
	}
	if rec := put(testAPIKey, `["GM"]`); rec.Code != http.StatusBadRequest {
		t.Errorf("PUT array = %d, want 400", rec.Code)
	}
	if rec := put(testAPIKey, `{"GM": "G. Mehta"}`); rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d: %s", rec.Code, rec.Body.String())
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/lookups/faculty", nil))
	var got map[string]string
	decode(t, rec, &got)
	if got["GM"] != "G. Mehta" {
		t.Errorf("GET faculty = %v", got)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/lookups/rooms", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET rooms = %d, want 404", rec.Code)
	}

	// The new table is used by later parses.
	req := httptest.NewRequest(http.MethodPost, "/api/parse-cell", strings.NewReader(`{"raw": "LF1(CS201)CR5/GM"}`))
	rec = do(s, req)
	var resp CellResponse
	decode(t, rec, &resp)
	if resp.Event == nil || len(resp.Event.Lecturers) != 1 || resp.Event.Lecturers[0] != "G. Mehta" {
		t.Errorf("parse after PUT = %+v", resp.Event)
	}
}

// ----------------------------------------------------------------------------
// Helper Tests
// ----------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown profile", fmt.Errorf("x: %w", core.ErrUnknownProfile), http.StatusNotFound},
		{"unknown kind", lookup.ErrUnknownKind, http.StatusNotFound},
		{"run not found", store.ErrRunNotFound, http.StatusNotFound},
		{"busy", core.ErrTooManyParses, http.StatusServiceUnavailable},
		{"too large", errFileTooLarge, http.StatusRequestEntityTooLarge},
		{"bad id", service.ErrInvalidRunID, http.StatusBadRequest},
		{"not a workbook", sheet.ErrNotWorkbook, http.StatusBadRequest},
		{"rejected", core.ErrRejected, http.StatusUnprocessableEntity},
		{"format", &core.FormatError{Input: "x", Reason: "y"}, http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input  string
		want   time.Weekday
		wantOK bool
	}{
		{"", time.Monday, true},
		{"mon", time.Monday, true},
		{"Tues", time.Tuesday, true},
		{" SATURDAY ", time.Saturday, true},
		{"someday", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseWeekday(tt.input)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("parseWeekday(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &rateLimiter{visitors: make(map[string]*visitor), rate: 2, window: time.Minute}

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request in the window should be throttled")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other clients have their own budget")
	}
}
