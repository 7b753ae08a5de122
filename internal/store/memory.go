package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// DefaultMemoryRuns is how many runs a Memory store keeps.
const DefaultMemoryRuns = 100

// Memory keeps recent runs and lookup snapshots in process memory. It backs
// servers started without a database; nothing survives a restart.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	order    []uuid.UUID
	runs     map[uuid.UUID]memoryRun
	lookups  map[string]map[string]string
}

type memoryRun struct {
	run Run
	res *core.ParseResult
}

// NewMemory returns a store that keeps at most capacity runs, evicting the
// oldest first.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryRuns
	}
	return &Memory{
		capacity: capacity,
		runs:     make(map[uuid.UUID]memoryRun),
		lookups:  make(map[string]map[string]string),
	}
}

// SaveRun stores run and its result.
func (m *Memory) SaveRun(_ context.Context, run Run, res *core.ParseResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.Events = len(res.Events)
	run.Failures = len(res.Failures)
	if _, exists := m.runs[run.ID]; !exists {
		m.order = append(m.order, run.ID)
	}
	m.runs[run.ID] = memoryRun{run: run, res: res}

	for len(m.order) > m.capacity {
		delete(m.runs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// ListRuns returns runs newest first.
func (m *Memory) ListRuns(_ context.Context, f RunFilter) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		if f.Profile != "" && r.run.Profile != f.Profile {
			continue
		}
		runs = append(runs, r.run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	if f.Offset >= len(runs) {
		return []Run{}, nil
	}
	runs = runs[f.Offset:]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun returns a stored run.
func (m *Memory) GetRun(_ context.Context, id uuid.UUID) (Run, *core.ParseResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[id]
	if !ok {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r.run, r.res, nil
}

// DeleteRun removes a stored run.
func (m *Memory) DeleteRun(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	delete(m.runs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// SaveLookup stores a copy of entries.
func (m *Memory) SaveLookup(_ context.Context, kind string, entries map[string]string) error {
	cp := make(map[string]string, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	m.mu.Lock()
	m.lookups[kind] = cp
	m.mu.Unlock()
	return nil
}

// LoadLookup returns the stored snapshot of kind.
func (m *Memory) LoadLookup(_ context.Context, kind string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.lookups[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLookupNotFound, kind)
	}
	return entries, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
