package core

// error_messages.go maps technical errors to user-facing messages with a
// code support staff can look up.
//
// Codes by category:
//
//	PARSE001-PARSE099  cell and header grammar failures
//	FILE001-FILE099    uploaded workbook problems
//	PRF001-PRF099      document profiles
//	LKP001-LKP099      lookup tables
//	RUN001-RUN099      parse runs and their lifecycle
//	DB001-DB099        database connectivity
//	RATE001            request throttling
//	ERR000             anything else; check the logs for the original error
//
// A rule matches either by errors.Is against a sentinel or by a
// case-insensitive substring of the error text. The first matching rule wins,
// so specific rules come before general ones.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorRule struct {
	target  error
	pattern string
	msg     UserMessage
}

func (r errorRule) matches(err error, lower string) bool {
	if r.target != nil {
		return errors.Is(err, r.target)
	}
	return strings.Contains(lower, r.pattern)
}

var errorRules = []errorRule{
	// Parse
	{target: ErrRejected, msg: UserMessage{
		Message: "Cell does not start with a known event type",
		Action:  "Start the cell with L, T or P",
		Code:    "PARSE001",
	}},
	{target: ErrBatchFormat, msg: UserMessage{
		Message: "Batch list could not be read",
		Action:  "Write batches as F1-F4, C1,C3 or F2F3",
		Code:    "PARSE002",
	}},
	{target: ErrFormat, msg: UserMessage{
		Message: "Period header could not be read",
		Action:  "Write periods as 9.00-9.50 or 2:00-2:50",
		Code:    "PARSE003",
	}},
	{target: ErrMalformed, msg: UserMessage{
		Message: "Cell layout is not recognized",
		Action:  "Put the course code in parentheses after the batches",
		Code:    "PARSE004",
	}},
	{target: ErrInvalidEvent, msg: UserMessage{
		Message: "Parsed event is incomplete",
		Action:  "Check the period header above this cell",
		Code:    "PARSE005",
	}},

	// Profiles and limits
	{target: ErrUnknownProfile, msg: UserMessage{
		Message: "Unknown document profile",
		Action:  "Pick one of the profiles listed at /api/profiles",
		Code:    "PRF001",
	}},
	{target: ErrTooManyParses, msg: UserMessage{
		Message: "System is busy parsing other documents",
		Action:  "Please wait a moment and try again",
		Code:    "RUN002",
	}},

	// Files
	{pattern: "file too large", msg: UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Upload a single timetable sheet",
		Code:    "FILE001",
	}},
	{pattern: "not a workbook", msg: UserMessage{
		Message: "File is not a valid xlsx workbook",
		Action:  "Save the timetable as .xlsx and upload again",
		Code:    "FILE002",
	}},
	{pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Please select a timetable file to upload",
		Code:    "FILE003",
	}},
	{pattern: "sheet not found", msg: UserMessage{
		Message: "The requested sheet is not in the workbook",
		Action:  "Check the sheet name or leave it empty for the first sheet",
		Code:    "FILE004",
	}},
	{pattern: "empty workbook", msg: UserMessage{
		Message: "The workbook has no sheets",
		Action:  "Upload a workbook containing the timetable",
		Code:    "FILE005",
	}},

	// Lookups
	{pattern: "unknown lookup kind", msg: UserMessage{
		Message: "Unknown lookup table",
		Action:  "Use one of courses, faculty or electives",
		Code:    "LKP001",
	}},
	{pattern: "decode lookup", msg: UserMessage{
		Message: "Lookup table is not a JSON object of strings",
		Action:  "Send a flat object such as {\"CS201\": \"Data Structures\"}",
		Code:    "LKP002",
	}},
	{pattern: "lookup not found", msg: UserMessage{
		Message: "No saved lookup table",
		Action:  "Upload the lookup table first",
		Code:    "LKP003",
	}},

	// Runs
	{pattern: "run not found", msg: UserMessage{
		Message: "Parse run not found",
		Action:  "Check the run id from the parse response",
		Code:    "RUN001",
	}},
	{pattern: "invalid run id", msg: UserMessage{
		Message: "Run id is not a valid UUID",
		Action:  "Copy the run id from the parse response",
		Code:    "RUN003",
	}},
	{pattern: "context canceled", msg: UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN004",
	}},
	{pattern: "context deadline exceeded", msg: UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller workbook or try again later",
		Code:    "RUN005",
	}},

	// Database
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{pattern: "timeout", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB002",
	}},

	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
//
//	msg := MapError(&BatchFormatError{Segment: "F3-C5"})
//	// msg.Code == "PARSE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, r := range errorRules {
		if r.matches(err, lower) {
			return r.msg
		}
	}
	return defaultMessage
}
