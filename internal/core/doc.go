// Package core turns timetable grids into schedule events.
//
// Timetable cells use a dense, hand-typed micro-syntax such as
// "L(F2-F6)CS201/CR5,GM": a type letter, the batches attending, the course
// code in parentheses, then a classroom and the lecturers. This package holds
// the grammars for each part and the walker that finds cells in a grid. It
// performs no I/O; the sheet, lookup and store packages feed it.
//
// # Components
//
//   - [ParseSpan] reads period headers such as "9.00-9.55".
//   - [ParseBatches] expands "C1-C3,5" and "F2F3F6F7" into batch codes.
//   - [ResolveCourse] finds a course name for a possibly malformed code.
//   - [Classifier] splits the text after the code into classroom and lecturers.
//   - [Parser] runs the above over one cell.
//   - [Walker] locates periods and day bands in a [Grid] and parses every cell.
//
// # Profiles
//
// Documents from different sources differ in small ways: PM thresholds,
// known typos, filler cells. Each variant is a [Profile] registered at init
// time by the tables package:
//
//	p, _ := core.GetProfile("jiit")
//	w := core.NewWalker(p, lookups)
//	res, err := w.Walk(ctx, grid)
//
// # Error Handling
//
// A bad cell never stops a walk. It is recorded as a [*ParseError] in
// [ParseResult.Failures] and the walk moves on. Grammar errors can be tested
// with errors.Is against [ErrFormat], [ErrBatchFormat], [ErrRejected],
// [ErrMalformed] and [ErrInvalidEvent]. [MapError] turns any of them into a
// coded [UserMessage].
package core
