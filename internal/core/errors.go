package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across the grammar boundary.
var (
	ErrFormat       = errors.New("invalid format")
	ErrBatchFormat  = errors.New("invalid batch format")
	ErrRejected     = errors.New("unrecognized event type")
	ErrMalformed    = errors.New("malformed cell")
	ErrInvalidEvent = errors.New("invalid event")
)

// FormatError reports text a grammar could not split or read.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: %s", e.Input, e.Reason)
}

// Is makes errors.Is(err, ErrFormat) succeed.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// BatchFormatError reports a batch segment the batch grammar rejected.
type BatchFormatError struct {
	Segment string
	Reason  string
}

func (e *BatchFormatError) Error() string {
	return fmt.Sprintf("invalid batch %q: %s", e.Segment, e.Reason)
}

// Is makes errors.Is(err, ErrBatchFormat) succeed.
func (e *BatchFormatError) Is(target error) bool {
	return target == ErrBatchFormat
}

// ParseError records a cell that could not be turned into an Event.
// It carries the raw cell text and its grid coordinates so the caller can
// report it alongside the events that did parse.
type ParseError struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *ParseError) Error() string {
	if e.Row > 0 || e.Col > 0 {
		return fmt.Sprintf("cell (%d,%d) %q: %s", e.Row, e.Col, e.Raw, e.Reason)
	}
	return fmt.Sprintf("cell %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError builds a ParseError at the given cell, using err's message as reason.
func newParseError(at CellContext, raw string, err error) *ParseError {
	return &ParseError{
		Row:    at.Row,
		Col:    at.Col,
		Raw:    raw,
		Reason: err.Error(),
		Err:    err,
	}
}
