package core

// batch.go expands batch specifications such as "F2-F6", "C1-C3,5" or
// "F2F3F6F7" into individual batch identifiers.
//
// Documents alternate between fully qualified codes and terse continuations
// that drop the repeated letter, so the grammar carries the last letter seen
// across comma-separated segments.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	batchRangeRegex  = regexp.MustCompile(`^([A-Z])(\d+)-([A-Z]?)(\d+)$`)
	batchConcatRegex = regexp.MustCompile(`^[A-Z]\d+([A-Z]\d+)+$`)
	batchPairRegex   = regexp.MustCompile(`([A-Z])(\d+)`)
	batchSingleRegex = regexp.MustCompile(`^[A-Z]\d+$`)
	digitsRegex      = regexp.MustCompile(`^\d+$`)
	batchCodeRegex   = regexp.MustCompile(`^[A-Za-z]+\d+$`)
)

// MaxBatchRange is the largest number of batches one range may expand to.
const MaxBatchRange = 100

// ParseBatches parses a comma-separated batch specification.
// An empty specification yields no batches and no error.
func ParseBatches(text string) ([]string, error) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil, nil
	}

	var parts []string
	for _, p := range strings.Split(text, ",") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if allStringOnly(parts) {
		return parts, nil
	}

	var result []string
	var letter string

	for _, part := range parts {
		switch {
		case strings.Contains(part, "-"):
			batches, err := expandBatchRange(part)
			if err != nil {
				return nil, err
			}
			result = append(result, batches...)
			letter = part[:1]

		case batchConcatRegex.MatchString(part):
			pairs := batchPairRegex.FindAllStringSubmatch(part, -1)
			for _, m := range pairs {
				result = append(result, m[1]+m[2])
			}
			letter = pairs[len(pairs)-1][1]

		case digitsRegex.MatchString(part):
			if letter == "" {
				return nil, &BatchFormatError{Segment: part, Reason: "number without a preceding letter"}
			}
			result = append(result, letter+part)

		case batchSingleRegex.MatchString(part):
			result = append(result, part)
			letter = part[:1]

		default:
			return nil, &BatchFormatError{Segment: part, Reason: "unrecognized batch"}
		}
	}

	return result, nil
}

// expandBatchRange expands "C1-C3" or "C1-3" into every batch in between.
func expandBatchRange(part string) ([]string, error) {
	m := batchRangeRegex.FindStringSubmatch(part)
	if m == nil {
		return nil, &BatchFormatError{Segment: part, Reason: "invalid range"}
	}

	startLetter, endLetter := m[1], m[3]
	if endLetter != "" && endLetter != startLetter {
		return nil, &BatchFormatError{Segment: part, Reason: "range spans different letters"}
	}

	start, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &BatchFormatError{Segment: part, Reason: "range start out of bounds"}
	}
	end, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, &BatchFormatError{Segment: part, Reason: "range end out of bounds"}
	}
	if start > end {
		return nil, &BatchFormatError{Segment: part, Reason: fmt.Sprintf("range runs backwards (%d > %d)", start, end)}
	}
	if end-start >= MaxBatchRange {
		return nil, &BatchFormatError{Segment: part, Reason: fmt.Sprintf("range covers more than %d batches", MaxBatchRange)}
	}

	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, startLetter+strconv.Itoa(i))
	}
	return out, nil
}

// allStringOnly reports whether no part contains a letter+digit batch code
// or is a bare number. Such lists are free-form labels (elective groups).
func allStringOnly(parts []string) bool {
	for _, p := range parts {
		if batchPairRegex.MatchString(p) || digitsRegex.MatchString(p) {
			return false
		}
	}
	return true
}

// IsBatchCode reports whether s has the regular <Letters><Digits> shape.
func IsBatchCode(s string) bool {
	return batchCodeRegex.MatchString(s)
}
