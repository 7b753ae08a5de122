package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
	"github.com/JonMunkholm/ttparse/internal/logging"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/service"
	"github.com/JonMunkholm/ttparse/internal/store"
	"github.com/JonMunkholm/ttparse/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// indexRuns is how many recent runs the index page lists.
const indexRuns = 20

// ----------------------------------------------------------------------------
// Health and metadata
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "store unreachable",
		})
		return
	}
	writeJSON(w, map[string]any{
		"status": "ok",
		"parses": s.service.LimiterStatus(),
	})
}

// ProfileInfo describes a document profile to clients.
type ProfileInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
	StartPMHour int    `json:"startPmHour"`
	EndPMHour   int    `json:"endPmHour"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.service.Profiles()
	out := make([]ProfileInfo, len(profiles))
	for i, p := range profiles {
		out[i] = ProfileInfo{
			Key:         p.Key,
			Label:       p.Label,
			Description: p.Description,
			Default:     p.Key == s.service.DefaultProfile(),
			StartPMHour: p.Thresholds.StartPM,
			EndPMHour:   p.Thresholds.EndPM,
		}
	}
	writeJSON(w, out)
}

// handleParseStatus reports parse slot usage for monitoring.
func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}

// ----------------------------------------------------------------------------
// Parsing
// ----------------------------------------------------------------------------

// EventJSON is an Event with its day spelled out.
type EventJSON struct {
	core.Event
	Day     string `json:"day"`
	Subject string `json:"subject"`
}

func toEventJSON(events []core.Event) []EventJSON {
	out := make([]EventJSON, len(events))
	for i, ev := range events {
		out[i] = EventJSON{Event: ev, Day: ev.Day.String(), Subject: ev.Subject()}
	}
	return out
}

// RunResponse is a parse run with its events and failures.
type RunResponse struct {
	Run      store.Run          `json:"run"`
	Events   []EventJSON        `json:"events"`
	Failures []*core.ParseError `json:"failures"`
}

func newRunResponse(run store.Run, res *core.ParseResult) RunResponse {
	failures := res.Failures
	if failures == nil {
		failures = []*core.ParseError{}
	}
	return RunResponse{Run: run, Events: toEventJSON(res.Events), Failures: failures}
}

// handleParseWorkbook parses an uploaded timetable workbook.
// Form fields: file (required), sheet (optional). The profile comes from the
// URL or the "profile" field.
func (s *Server) handleParseWorkbook(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	profile := chi.URLParam(r, "profile")
	if profile == "" {
		profile = r.FormValue("profile")
	}

	run, res, err := s.service.ParseWorkbook(r.Context(), service.ParseRequest{
		Profile:  profile,
		FileName: name,
		Sheet:    r.FormValue("sheet"),
		Data:     data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, newRunResponse(run, res))
}

// CellRequest is the body of POST /api/parse-cell.
type CellRequest struct {
	Raw     string `json:"raw"`
	Period  string `json:"period,omitempty"`
	Day     string `json:"day,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// CellResponse is the outcome of parsing one cell. Exactly one of Event and
// Error is set.
type CellResponse struct {
	Event *EventJSON     `json:"event,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// handleParseCell parses a single cell string. Grammar failures are a normal
// outcome here and come back as 422 with the mapped error.
func (s *Server) handleParseCell(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	day, ok := parseWeekday(req.Day)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown day %q", req.Day))
		return
	}

	ev, err := s.service.ParseCell(service.CellRequest{
		Profile: req.Profile,
		Raw:     req.Raw,
		Period:  req.Period,
		Day:     day,
	})
	if err != nil {
		status := statusFor(err)
		if status != http.StatusUnprocessableEntity {
			s.respondError(w, r, err)
			return
		}
		msg := core.MapError(err)
		writeJSONStatus(w, status, CellResponse{Error: &ErrorResponse{
			Error:   err.Error(),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		}})
		return
	}
	evJSON := toEventJSON([]core.Event{ev})[0]
	writeJSON(w, CellResponse{Event: &evJSON})
}

// ----------------------------------------------------------------------------
// Runs
// ----------------------------------------------------------------------------

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runs, err := s.service.ListRuns(r.Context(), store.RunFilter{
		Profile: q.Get("profile"),
		Limit:   parseIntParam(r, "limit", store.DefaultRunLimit),
		Offset:  parseIntParam(r, "offset", 0),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, res, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, newRunResponse(run, res))
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRun(r.Context(), chi.URLParam(r, "runID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------------
// Pages
// ----------------------------------------------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), store.RunFilter{Limit: indexRuns})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, templates.Index(runs))
}

func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, res, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, templates.RunPage(run, res))
}

// ----------------------------------------------------------------------------
// Lookups
// ----------------------------------------------------------------------------

func (s *Server) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := lookup.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := lookup.WriteJSON(w, s.service.Lookup(kind)); err != nil {
		s.respondError(w, r, err)
	}
}

// handlePutLookup replaces a lookup table with a JSON object of strings.
func (s *Server) handlePutLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := lookup.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	m, err := lookup.ReadJSON(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.ReplaceLookup(r.Context(), kind, m); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"kind": kind, "entries": len(m)})
}

// handleBuildLookup reads a lookup table out of an uploaded workbook.
// Form fields: file, sheet, layout (faculty only: pairs, inline,
// abbreviation, names) and merge=true to keep existing entries.
func (s *Server) handleBuildLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := lookup.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, _, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := service.BuildOptions{
		Sheet: r.FormValue("sheet"),
		Merge: r.FormValue("merge") == "true",
	}
	if name := r.FormValue("layout"); name != "" {
		layout, ok := lookup.ParseFacultyLayout(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown faculty layout %q", name))
			return
		}
		opts.FacultyLayout = layout
	}

	m, err := s.service.BuildLookup(r.Context(), kind, data, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"kind": kind, "entries": len(m)})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// readUpload reads the multipart "file" field, bounded by the configured
// upload size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errFileTooLarge, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

// parseIntParam parses a non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// parseWeekday accepts a day name or any prefix of one ("mon", "Tues").
// An empty name is Monday.
func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return time.Monday, true
	}
	for _, d := range core.Weekdays {
		if strings.HasPrefix(strings.ToLower(d.String()), name) {
			return d, true
		}
	}
	return 0, false
}

// render writes an HTML component.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}
