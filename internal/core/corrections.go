package core

// corrections.go holds the literal fixes applied to known-bad cell text
// before tokenizing.
//
// Source documents contain a handful of recurring typos that would
// otherwise need special cases inside the grammar. Keeping them as data
// leaves the parser regular and the exception list auditable. Tables can be
// extended from a YAML file:
//
//	cells:
//	  - kind: replace
//	    match: "A5-A6-A10"
//	    replacement: "A5,A6,A10"
//	codes:
//	  M302: MA302

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// CorrectionKind selects how a CorrectionRule matches.
type CorrectionKind string

const (
	// CorrectReplace replaces every occurrence of Match with Replacement.
	CorrectReplace CorrectionKind = "replace"
	// CorrectWhole replaces the entire text when it contains Match.
	CorrectWhole CorrectionKind = "whole"
	// CorrectRegex replaces regexp matches of Match, expanding $1 etc.
	CorrectRegex CorrectionKind = "regex"
)

// CorrectionRule is one literal fix for cell text.
type CorrectionRule struct {
	Kind        CorrectionKind `yaml:"kind"`
	Match       string         `yaml:"match"`
	Replacement string         `yaml:"replacement"`

	re *regexp.Regexp
}

// CorrectionTable is the full set of cell and course-code fixes.
// It is read-only once built.
type CorrectionTable struct {
	Cells []CorrectionRule  `yaml:"cells"`
	Codes map[string]string `yaml:"codes"`
}

// NewCorrectionTable compiles the rules and returns a ready table.
func NewCorrectionTable(cells []CorrectionRule, codes map[string]string) (*CorrectionTable, error) {
	t := &CorrectionTable{Codes: make(map[string]string, len(codes))}
	for k, v := range codes {
		t.Codes[k] = v
	}
	for _, r := range cells {
		if err := t.add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustCorrectionTable is like NewCorrectionTable but panics on a bad rule.
// Use it only for tables compiled into the binary.
func MustCorrectionTable(cells []CorrectionRule, codes map[string]string) *CorrectionTable {
	t, err := NewCorrectionTable(cells, codes)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *CorrectionTable) add(r CorrectionRule) error {
	if r.Match == "" {
		return fmt.Errorf("correction rule has empty match")
	}
	switch r.Kind {
	case CorrectReplace, CorrectWhole:
	case CorrectRegex:
		re, err := regexp.Compile(r.Match)
		if err != nil {
			return fmt.Errorf("correction rule %q: %w", r.Match, err)
		}
		r.re = re
	default:
		return fmt.Errorf("correction rule %q: unknown kind %q", r.Match, r.Kind)
	}
	t.Cells = append(t.Cells, r)
	return nil
}

// Merge returns a new table holding t's rules followed by other's.
// Code corrections in other win over t's.
func (t *CorrectionTable) Merge(other *CorrectionTable) *CorrectionTable {
	out := &CorrectionTable{Codes: make(map[string]string)}
	for _, src := range []*CorrectionTable{t, other} {
		if src == nil {
			continue
		}
		out.Cells = append(out.Cells, src.Cells...)
		for k, v := range src.Codes {
			out.Codes[k] = v
		}
	}
	return out
}

// ApplyCell runs every cell rule over text in order.
func (t *CorrectionTable) ApplyCell(text string) string {
	if t == nil {
		return text
	}
	for _, r := range t.Cells {
		switch r.Kind {
		case CorrectReplace:
			text = strings.ReplaceAll(text, r.Match, r.Replacement)
		case CorrectWhole:
			if strings.Contains(text, r.Match) {
				text = r.Replacement
			}
		case CorrectRegex:
			text = r.re.ReplaceAllString(text, r.Replacement)
		}
	}
	return text
}

// ApplyCode returns the corrected course code, or code unchanged.
func (t *CorrectionTable) ApplyCode(code string) string {
	if t == nil {
		return code
	}
	if fixed, ok := t.Codes[code]; ok {
		return fixed
	}
	return code
}

// LoadCorrections reads a YAML correction table from r.
func LoadCorrections(r io.Reader) (*CorrectionTable, error) {
	var raw struct {
		Cells []CorrectionRule  `yaml:"cells"`
		Codes map[string]string `yaml:"codes"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode corrections: %w", err)
	}
	return NewCorrectionTable(raw.Cells, raw.Codes)
}

// LoadCorrectionsFile reads a YAML correction table from path.
func LoadCorrectionsFile(path string) (*CorrectionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corrections: %w", err)
	}
	defer f.Close()
	return LoadCorrections(f)
}
