package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Profile describes one family of timetable documents: the quirks of its
// layout and the data tables its cells need. Profiles are registered at init
// time by the tables package and looked up by Key.
type Profile struct {
	Key         string
	Label       string
	Description string

	// Thresholds for reading period headers without AM/PM markers.
	Thresholds Thresholds

	// Corrections applied to every cell before tokenizing.
	Corrections *CorrectionTable

	// Classifier options.
	Idioms            []ClassroomIdiom
	ReservedPrefixes  []string
	FacultyCategories map[string]string

	// TalkMarker routes a cell down the talk branch when it appears in it.
	TalkMarker string

	// SpamEntries are cell values skipped outright.
	SpamEntries []string
	// ElectiveCategories stop the scan of the current column.
	ElectiveCategories []string

	// IrregularDays end their row band on fill, merge or blank row instead
	// of on the next populated label in column 1.
	IrregularDays []time.Weekday

	// SupplementalCourses are merged under the caller's course map.
	SupplementalCourses map[string]string
}

// Classifier builds the token classifier configured by p.
func (p Profile) Classifier() *TokenClassifier {
	c := NewTokenClassifier(p.Idioms)
	if len(p.ReservedPrefixes) > 0 {
		c.ReservedPrefixes = p.ReservedPrefixes
	}
	if len(p.FacultyCategories) > 0 {
		c.FacultyCategories = p.FacultyCategories
	}
	return c
}

// WithLookups returns lookups whose course map includes p's supplemental
// courses. Entries already in lookups win. The input maps are not modified.
func (p Profile) WithLookups(lookups Lookups) Lookups {
	if len(p.SupplementalCourses) == 0 {
		return lookups
	}
	courses := make(map[string]string, len(lookups.Courses)+len(p.SupplementalCourses))
	for k, v := range p.SupplementalCourses {
		courses[k] = v
	}
	for k, v := range lookups.Courses {
		courses[k] = v
	}
	lookups.Courses = courses
	return lookups
}

func (p Profile) isIrregular(day time.Weekday) bool {
	for _, d := range p.IrregularDays {
		if d == day {
			return true
		}
	}
	return false
}

// ErrUnknownProfile is returned for a profile key nobody registered.
var ErrUnknownProfile = errors.New("unknown profile")

var (
	registry   = make(map[string]Profile)
	registryMu sync.RWMutex
)

// Register adds a profile to the registry.
// Panics if a profile with the same key is already registered.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		panic(fmt.Sprintf("profile already registered: %s", p.Key))
	}

	if p.Thresholds == (Thresholds{}) {
		p.Thresholds = DefaultThresholds()
	}
	if p.TalkMarker == "" {
		p.TalkMarker = TalkCourseCode
	}

	registry[p.Key] = p
}

// GetProfile returns a profile by key.
// Returns false if not found.
func GetProfile(key string) (Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	return p, ok
}

// Profiles returns all registered profiles sorted by key.
func Profiles() []Profile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Profile, 0, len(registry))
	for _, p := range registry {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// ProfileCount returns the number of registered profiles.
func ProfileCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered profiles.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Profile)
}

// LookupProfile is GetProfile returning ErrUnknownProfile for a missing key.
func LookupProfile(key string) (Profile, error) {
	p, ok := GetProfile(key)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	return p, nil
}
