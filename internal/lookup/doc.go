// Package lookup builds the course, faculty and elective tables the parser
// consults, and reads and writes them as flat JSON snapshots.
//
// Builders work on any core.Grid, so the same code serves xlsx sheets and
// in-memory fixtures. Each builder recognizes one sheet layout seen in the
// auxiliary timetable workbooks; MergeMaps combines their results.
package lookup
