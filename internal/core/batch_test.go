package core

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseBatches Tests
// ----------------------------------------------------------------------------

func TestParseBatches(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		// Ranges
		{name: "qualified range", input: "F2-F6", want: []string{"F2", "F3", "F4", "F5", "F6"}},
		{name: "short range", input: "A1-4", want: []string{"A1", "A2", "A3", "A4"}},
		{name: "single element range", input: "B3-B3", want: []string{"B3"}},

		// Continuations inherit the last letter
		{name: "range then number", input: "C1-C3,5", want: []string{"C1", "C2", "C3", "C5"}},
		{name: "single then numbers", input: "E15,16,17", want: []string{"E15", "E16", "E17"}},
		{name: "letter switch", input: "F7,F8,B1,2", want: []string{"F7", "F8", "B1", "B2"}},

		// Concatenated runs
		{name: "concat run", input: "F2F3F6F7", want: []string{"F2", "F3", "F6", "F7"}},
		{name: "concat then number", input: "F2F3,4", want: []string{"F2", "F3", "F4"}},

		// Whitespace and empties
		{name: "spaces", input: " B1 , B2 ", want: []string{"B1", "B2"}},
		{name: "trailing comma", input: "A1,", want: []string{"A1"}},
		{name: "empty", input: "", want: nil},
		{name: "only spaces", input: "   ", want: nil},
		{name: "tabs and newlines", input: "F1,\tF2\n,F3", want: []string{"F1", "F2", "F3"}},
		{name: "largest range", input: "A1-A100", want: batchRun("A", 1, 100)},

		// Free-form labels are kept verbatim
		{name: "free-form labels", input: "ECE,CSE", want: []string{"ECE", "CSE"}},
		{name: "single label", input: "BT", want: []string{"BT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBatches(tt.input)
			if err != nil {
				t.Fatalf("ParseBatches(%q) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBatches(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBatches_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSegment string
	}{
		{name: "range across letters", input: "F3-C5", wantSegment: "F3-C5"},
		{name: "backwards range", input: "F6-F2", wantSegment: "F6-F2"},
		{name: "open range", input: "F2-", wantSegment: "F2-"},
		{name: "leading number", input: "5,F2", wantSegment: "5"},
		{name: "label among codes", input: "F1,X", wantSegment: "X"},
		{name: "two letter code", input: "F1,CS2", wantSegment: "CS2"},
		{name: "range end overflows", input: "A1-99999999999999999999", wantSegment: "A1-99999999999999999999"},
		{name: "range start overflows", input: "A99999999999999999999-A1", wantSegment: "A99999999999999999999-A1"},
		{name: "range too long", input: "A1-A20000000", wantSegment: "A1-A20000000"},
		{name: "range one past limit", input: "A1-A101", wantSegment: "A1-A101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatches(tt.input)
			if err == nil {
				t.Fatalf("ParseBatches(%q) expected error", tt.input)
			}
			if !errors.Is(err, ErrBatchFormat) {
				t.Errorf("error %v is not ErrBatchFormat", err)
			}
			var be *BatchFormatError
			if !errors.As(err, &be) {
				t.Fatalf("error %v is not a *BatchFormatError", err)
			}
			if be.Segment != tt.wantSegment {
				t.Errorf("Segment = %q, want %q", be.Segment, tt.wantSegment)
			}
		})
	}
}

func TestIsBatchCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"F12", true},
		{"CSE1", true},
		{"ECE", false},
		{"12", false},
		{"F1-F2", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsBatchCode(tt.input); got != tt.want {
			t.Errorf("IsBatchCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func batchRun(letter string, from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, letter+strconv.Itoa(i))
	}
	return out
}
