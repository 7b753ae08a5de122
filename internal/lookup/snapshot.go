package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// Kind names one of the three lookup tables.
type Kind string

const (
	KindCourses   Kind = "courses"
	KindFaculty   Kind = "faculty"
	KindElectives Kind = "electives"
)

// Kinds lists every lookup kind.
var Kinds = []Kind{KindCourses, KindFaculty, KindElectives}

// ErrUnknownKind is returned for a kind other than Kinds.
var ErrUnknownKind = errors.New("unknown lookup kind")

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Get returns the table of the given kind from l.
func Get(l core.Lookups, kind Kind) map[string]string {
	switch kind {
	case KindCourses:
		return l.Courses
	case KindFaculty:
		return l.Faculty
	case KindElectives:
		return l.Electives
	}
	return nil
}

// With returns a copy of l with the table of the given kind replaced.
func With(l core.Lookups, kind Kind, m map[string]string) core.Lookups {
	switch kind {
	case KindCourses:
		l.Courses = m
	case KindFaculty:
		l.Faculty = m
	case KindElectives:
		l.Electives = m
	}
	return l
}

// MergeMaps merges maps left to right; later maps win on key collisions.
func MergeMaps(maps ...map[string]string) map[string]string {
	n := 0
	for _, m := range maps {
		n += len(m)
	}
	out := make(map[string]string, n)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Keys returns m's keys in sorted order.
func Keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadJSON decodes a flat JSON object of strings.
func ReadJSON(r io.Reader) (map[string]string, error) {
	var m map[string]string
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode lookup: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// WriteJSON encodes m as an indented JSON object with sorted keys.
func WriteJSON(w io.Writer, m map[string]string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// LoadFile reads a JSON snapshot from path.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// SaveFile writes m to path, replacing the file atomically.
func SaveFile(path string, m map[string]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lookup-*.json")
	if err != nil {
		return fmt.Errorf("create lookup: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, m); err != nil {
		tmp.Close()
		return fmt.Errorf("write lookup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write lookup: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Paths maps each kind to a snapshot file. Empty paths are skipped.
type Paths map[Kind]string

// LoadPaths reads every configured snapshot. A missing file yields an empty
// table rather than an error so a fresh deployment can start without data.
func LoadPaths(paths Paths) (core.Lookups, error) {
	l := core.Lookups{
		Courses:   map[string]string{},
		Faculty:   map[string]string{},
		Electives: map[string]string{},
	}
	for _, kind := range Kinds {
		path := paths[kind]
		if path == "" {
			continue
		}
		m, err := LoadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return core.Lookups{}, fmt.Errorf("%s: %w", kind, err)
		}
		l = With(l, kind, m)
	}
	return l, nil
}
