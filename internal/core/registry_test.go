package core

import (
	"errors"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// Registry Tests
// ----------------------------------------------------------------------------

func TestRegister_FillsDefaults(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(Profile{Key: "bare"})

	p, ok := GetProfile("bare")
	if !ok {
		t.Fatal("GetProfile(bare) not found")
	}
	if p.Thresholds != DefaultThresholds() {
		t.Errorf("Thresholds = %+v, want defaults", p.Thresholds)
	}
	if p.TalkMarker != TalkCourseCode {
		t.Errorf("TalkMarker = %q, want %q", p.TalkMarker, TalkCourseCode)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(Profile{Key: "dup"})

	defer func() {
		if recover() == nil {
			t.Error("second Register did not panic")
		}
	}()
	Register(Profile{Key: "dup"})
}

func TestProfiles_Sorted(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	for _, key := range []string{"plain", "alpha", "jiit"} {
		Register(Profile{Key: key})
	}

	got := Profiles()
	want := []string{"alpha", "jiit", "plain"}
	if len(got) != len(want) {
		t.Fatalf("Profiles() returned %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Key != want[i] {
			t.Errorf("Profiles()[%d] = %q, want %q", i, p.Key, want[i])
		}
	}
	if ProfileCount() != 3 {
		t.Errorf("ProfileCount() = %d, want 3", ProfileCount())
	}
}

func TestLookupProfile_Unknown(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	_, err := LookupProfile("nope")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("err = %v, want ErrUnknownProfile", err)
	}
	if got := MapError(err).Code; got != "PRF001" {
		t.Errorf("MapError code = %s, want PRF001", got)
	}
}

// ----------------------------------------------------------------------------
// Profile Tests
// ----------------------------------------------------------------------------

func TestProfile_WithLookups(t *testing.T) {
	p := Profile{SupplementalCourses: map[string]string{
		"EC112": "Basic Electronics",
		"CS201": "Overridden",
	}}
	courses := map[string]string{"CS201": "Data Structures"}

	got := p.WithLookups(Lookups{Courses: courses})

	if got.Courses["EC112"] != "Basic Electronics" {
		t.Errorf("supplemental course missing: %v", got.Courses)
	}
	if got.Courses["CS201"] != "Data Structures" {
		t.Errorf("caller's course was overridden: %v", got.Courses)
	}
	if _, ok := courses["EC112"]; ok {
		t.Error("WithLookups modified the caller's map")
	}
}

func TestProfile_Classifier(t *testing.T) {
	p := Profile{
		ReservedPrefixes:  []string{"GL"},
		FacultyCategories: map[string]string{"C": "Chemistry"},
	}
	c := p.Classifier()
	if got := c.ResolveLecturer("NFC2", nil); got != "New Faculty Chemistry 2" {
		t.Errorf("ResolveLecturer = %q", got)
	}
	if !c.isReserved("GL") || c.isReserved("NF") {
		t.Errorf("ReservedPrefixes = %v, want [GL]", c.ReservedPrefixes)
	}

	def := Profile{}.Classifier()
	if !def.isReserved("NF") || !def.isReserved("TA") {
		t.Errorf("default ReservedPrefixes = %v", def.ReservedPrefixes)
	}
}

func TestProfile_IsIrregular(t *testing.T) {
	p := Profile{IrregularDays: []time.Weekday{time.Saturday}}
	if !p.isIrregular(time.Saturday) || p.isIrregular(time.Monday) {
		t.Error("isIrregular does not follow IrregularDays")
	}
}
