// Package service ties the parser to its inputs and outputs: uploaded
// workbooks, lookup tables and the run store. HTTP handlers and the command
// line talk to a Service, never to core directly.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/ttparse/internal/core"
	"github.com/JonMunkholm/ttparse/internal/logging"
	"github.com/JonMunkholm/ttparse/internal/lookup"
	"github.com/JonMunkholm/ttparse/internal/sheet"
	"github.com/JonMunkholm/ttparse/internal/store"
	"github.com/google/uuid"
)

// DefaultParseTimeout bounds a single workbook parse.
const DefaultParseTimeout = 2 * time.Minute

// ErrInvalidRunID is returned when a run id is not a UUID.
var ErrInvalidRunID = errors.New("invalid run id")

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	// DefaultProfile is used when a request names no profile.
	DefaultProfile string

	// Thresholds overrides every profile's PM thresholds when non-zero.
	Thresholds core.Thresholds

	// Workers bounds the day bands parsed at once within one workbook.
	Workers int

	// Corrections are merged on top of every profile's own table.
	Corrections *core.CorrectionTable

	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration

	// LookupPaths seeds the lookup tables from JSON files at startup.
	LookupPaths lookup.Paths

	// SentinelFills are the fill colors that end an irregular day band.
	SentinelFills []string
}

// Service parses workbooks and owns the lookup tables they need.
type Service struct {
	backend store.Backend
	limiter *core.ParseLimiter
	opts    Options

	mu      sync.RWMutex
	lookups core.Lookups
}

// New creates a Service storing runs and lookups in backend.
func New(backend store.Backend, opts Options) (*Service, error) {
	if backend == nil {
		return nil, errors.New("service: nil backend")
	}
	if opts.DefaultProfile == "" {
		opts.DefaultProfile = "jiit"
	}
	if _, err := core.LookupProfile(opts.DefaultProfile); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultParseTimeout
	}
	if len(opts.SentinelFills) == 0 {
		opts.SentinelFills = sheet.DefaultSentinelFills
	}

	return &Service{
		backend: backend,
		limiter: core.NewParseLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:    opts,
		lookups: core.Lookups{
			Courses:   map[string]string{},
			Faculty:   map[string]string{},
			Electives: map[string]string{},
		},
	}, nil
}

// LoadLookups seeds the tables from the configured JSON files, then overlays
// any snapshot saved in the backend.
func (s *Service) LoadLookups(ctx context.Context) error {
	l, err := lookup.LoadPaths(s.opts.LookupPaths)
	if err != nil {
		return fmt.Errorf("load lookup files: %w", err)
	}

	for _, kind := range lookup.Kinds {
		m, err := s.backend.LoadLookup(ctx, string(kind))
		if errors.Is(err, store.ErrLookupNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s snapshot: %w", kind, err)
		}
		l = lookup.With(l, kind, lookup.MergeMaps(lookup.Get(l, kind), m))
	}

	s.mu.Lock()
	s.lookups = l
	s.mu.Unlock()

	slog.Info("lookups loaded",
		"courses", len(l.Courses),
		"faculty", len(l.Faculty),
		"electives", len(l.Electives),
	)
	return nil
}

// Lookups returns the current tables. Callers must not modify the maps.
func (s *Service) Lookups() core.Lookups {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups
}

// Lookup returns one table by kind.
func (s *Service) Lookup(kind lookup.Kind) map[string]string {
	return lookup.Get(s.Lookups(), kind)
}

// ReplaceLookup persists m as the kind table and swaps it in. Parses already
// running keep the table they started with.
func (s *Service) ReplaceLookup(ctx context.Context, kind lookup.Kind, m map[string]string) error {
	if err := s.backend.SaveLookup(ctx, string(kind), m); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}

	s.mu.Lock()
	s.lookups = lookup.With(s.lookups, kind, m)
	s.mu.Unlock()

	logging.FromContext(ctx).Info("lookup replaced", "kind", kind, "entries", len(m))
	return nil
}

// BuildOptions selects how BuildLookup reads a lookup workbook.
type BuildOptions struct {
	Sheet         string
	FacultyLayout lookup.FacultyLayout
	Electives     lookup.ElectiveLayout
	// Merge keeps existing entries the workbook does not mention.
	Merge bool
}

// BuildLookup reads a lookup table of the given kind from an xlsx workbook
// and replaces (or merges into) the current table. It returns the table now
// in use.
func (s *Service) BuildLookup(ctx context.Context, kind lookup.Kind, data []byte, opts BuildOptions) (map[string]string, error) {
	wb, err := sheet.Open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	ws, err := wb.Sheet(opts.Sheet)
	if err != nil {
		return nil, err
	}

	var m map[string]string
	switch kind {
	case lookup.KindCourses:
		m = lookup.Courses(ws)
	case lookup.KindFaculty:
		m = lookup.Faculty(ws, opts.FacultyLayout)
	case lookup.KindElectives:
		layout := opts.Electives
		if layout == (lookup.ElectiveLayout{}) {
			layout = lookup.DefaultElectiveLayout
		}
		m = lookup.Electives(ws, layout)
	default:
		return nil, fmt.Errorf("%w: %q", lookup.ErrUnknownKind, kind)
	}

	if opts.Merge {
		m = lookup.MergeMaps(s.Lookup(kind), m)
	}
	if err := s.ReplaceLookup(ctx, kind, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Profiles lists the registered document profiles.
func (s *Service) Profiles() []core.Profile {
	return core.Profiles()
}

// DefaultProfile returns the key used when a request names none.
func (s *Service) DefaultProfile() string {
	return s.opts.DefaultProfile
}

// profile resolves key and applies the service-wide overrides.
func (s *Service) profile(key string) (core.Profile, error) {
	if key == "" {
		key = s.opts.DefaultProfile
	}
	p, err := core.LookupProfile(key)
	if err != nil {
		return core.Profile{}, err
	}
	if s.opts.Thresholds != (core.Thresholds{}) {
		p.Thresholds = s.opts.Thresholds
	}
	if s.opts.Corrections != nil {
		p.Corrections = p.Corrections.Merge(s.opts.Corrections)
	}
	return p, nil
}

// ParseRequest is one uploaded timetable workbook.
type ParseRequest struct {
	Profile  string
	FileName string
	// Sheet selects a worksheet; empty means the first.
	Sheet string
	Data  []byte
}

// ParseWorkbook parses a timetable workbook, stores the run and returns it
// with every event and failure.
//
// Returns core.ErrTooManyParses if no parse slot frees up in time.
func (s *Service) ParseWorkbook(ctx context.Context, req ParseRequest) (store.Run, *core.ParseResult, error) {
	p, err := s.profile(req.Profile)
	if err != nil {
		return store.Run{}, nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return store.Run{}, nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	wb, err := sheet.Open(bytes.NewReader(req.Data), sheet.WithSentinelFills(s.opts.SentinelFills...))
	if err != nil {
		return store.Run{}, nil, err
	}
	defer wb.Close()

	ws, err := wb.Sheet(req.Sheet)
	if err != nil {
		return store.Run{}, nil, err
	}

	run := store.Run{
		ID:        uuid.New(),
		Profile:   p.Key,
		FileName:  req.FileName,
		Sheet:     ws.Name(),
		CreatedAt: time.Now().UTC(),
	}

	w := core.NewWalker(p, s.Lookups())
	w.Workers = s.opts.Workers
	w.Logger = logging.WithFields(ctx,
		"run_id", run.ID,
		"profile", p.Key,
		"file", req.FileName,
	)

	res, err := w.Walk(ctx, ws)
	if err != nil {
		return store.Run{}, nil, fmt.Errorf("parse %s: %w", req.FileName, err)
	}
	run.Events = len(res.Events)
	run.Failures = len(res.Failures)

	if err := s.backend.SaveRun(ctx, run, res); err != nil {
		return store.Run{}, nil, fmt.Errorf("save run: %w", err)
	}
	return run, res, nil
}

// CellRequest is a single cell to parse outside any grid.
type CellRequest struct {
	Profile string
	Raw     string
	// Period is a header such as "9.00-9.50". It may be empty when only the
	// cell grammar is of interest.
	Period string
	Day    time.Weekday
}

// ParseCell parses one cell string against the current lookups.
func (s *Service) ParseCell(req CellRequest) (core.Event, error) {
	p, err := s.profile(req.Profile)
	if err != nil {
		return core.Event{}, err
	}

	at := core.CellContext{Day: req.Day}
	if req.Period != "" {
		span, err := core.ParseSpan(req.Period, p.Thresholds)
		if err != nil {
			return core.Event{}, err
		}
		at.Span = span
	} else {
		// No header: give the cell a nominal span so validation only
		// reports grammar problems.
		at.Span = core.Span{Start: core.NewTimeOfDay(0, 0), End: core.NewTimeOfDay(0, 1)}
	}

	return core.NewParser(p.WithLookups(s.Lookups()), p).ParseCell(req.Raw, at)
}

// ListRuns returns stored runs, newest first.
func (s *Service) ListRuns(ctx context.Context, f store.RunFilter) ([]store.Run, error) {
	return s.backend.ListRuns(ctx, f)
}

// GetRun returns a stored run with its events and failures.
func (s *Service) GetRun(ctx context.Context, id string) (store.Run, *core.ParseResult, error) {
	runID, err := ParseRunID(id)
	if err != nil {
		return store.Run{}, nil, err
	}
	return s.backend.GetRun(ctx, runID)
}

// DeleteRun removes a stored run.
func (s *Service) DeleteRun(ctx context.Context, id string) error {
	runID, err := ParseRunID(id)
	if err != nil {
		return err
	}
	return s.backend.DeleteRun(ctx, runID)
}

// ParseRunID parses a run id from a URL or form value.
func ParseRunID(id string) (uuid.UUID, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}
	return runID, nil
}

// Ping checks the backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// LimiterStatus reports parse slot usage.
func (s *Service) LimiterStatus() core.ParseLimiterStatus {
	return s.limiter.Status()
}

// WaitForParses blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForParses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
