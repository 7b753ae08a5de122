package core

// grid.go walks a timetable grid and drives the Parser over every cell.
//
// Layout assumed:
//
//	        col 1     col 2       col 3       ...
//	row h   (any)     9.00-9.55   10.00-10.50       <- period header
//	row d   MONDAY    <cell>      <cell>
//	        (blank)   <cell>      <cell>            <- same day band
//	row d'  TUESDAY   ...
//
// Each weekday is an independent band of rows, so bands can be parsed in
// parallel and joined back in day order.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Region is a merged block of cells, 1-based and inclusive.
type Region struct {
	MinRow int `json:"minRow"`
	MaxRow int `json:"maxRow"`
	MinCol int `json:"minCol"`
	MaxCol int `json:"maxCol"`
}

// Contains reports whether (row, col) lies inside r.
func (r Region) Contains(row, col int) bool {
	return row >= r.MinRow && row <= r.MaxRow && col >= r.MinCol && col <= r.MaxCol
}

// IsAnchor reports whether (row, col) is r's top-left cell.
func (r Region) IsAnchor(row, col int) bool {
	return row == r.MinRow && col == r.MinCol
}

// Grid is read-only access to one sheet. Rows and columns are 1-based.
// Cell reports false for empty cells and for the non-anchor cells of a
// merged region.
type Grid interface {
	Cell(row, col int) (string, bool)
	MergedRegions() []Region
	MaxRow() int
	MaxCol() int
}

// FillInspector is implemented by grids that can report cell fills. The
// walker uses it to find the end of irregular day bands.
type FillInspector interface {
	IsSentinelFill(row, col int) bool
}

// Walker extracts every Event from a grid.
type Walker struct {
	Profile Profile
	Parser  *Parser
	// Workers bounds how many day bands are parsed at once. Values below 2
	// parse sequentially.
	Workers int
	Logger  *slog.Logger
}

// NewWalker returns a sequential walker for profile p over lookups.
func NewWalker(p Profile, lookups Lookups) *Walker {
	return &Walker{
		Profile: p,
		Parser:  NewParser(p.WithLookups(lookups), p),
		Workers: 1,
	}
}

// layout is everything about the grid the day walks share.
type layout struct {
	grid      Grid
	fills     FillInspector
	headerRow int
	lastCol   int
	maxRow    int
	periods   map[int]period
	regions   []Region
}

type period struct {
	span Span
	err  error
}

// dayBand is a weekday and the row its label sits on.
type dayBand struct {
	day       time.Weekday
	row       int
	irregular bool
}

// Walk parses every day band of g. Failed cells are collected in the result;
// the only error returned is ctx's.
func (w *Walker) Walk(ctx context.Context, g Grid) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lay := w.locate(g)
	bands := w.dayBands(g)

	results := make([]ParseResult, len(bands))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(w.Workers, 1))

	for i, band := range bands {
		eg.Go(func() error {
			res, err := w.walkDay(egCtx, lay, band)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := &ParseResult{Events: []Event{}, Failures: []*ParseError{}}
	rejected := 0
	for _, r := range results {
		out.Events = append(out.Events, r.Events...)
		out.Failures = append(out.Failures, r.Failures...)
		for _, f := range r.Failures {
			if IsRejected(f) {
				rejected++
			}
		}
	}

	w.logger().Info("grid parsed",
		"profile", w.Profile.Key,
		"header_row", lay.headerRow,
		"periods", lay.lastCol-1,
		"days", len(bands),
		"events", len(out.Events),
		"failures", len(out.Failures),
		"rejected", rejected,
	)
	return out, nil
}

// locate finds the period header row and the periods it declares.
func (w *Walker) locate(g Grid) *layout {
	lay := &layout{
		grid:      g,
		headerRow: 2,
		lastCol:   g.MaxCol(),
		maxRow:    g.MaxRow(),
		regions:   g.MergedRegions(),
		periods:   make(map[int]period),
	}
	lay.fills, _ = g.(FillInspector)

	for r := 1; r <= lay.maxRow; r++ {
		v, _ := g.Cell(r, 2)
		if !isHeaderStart(v) {
			continue
		}
		lay.headerRow = r
		for c := 2; c <= lay.lastCol; c++ {
			if _, ok := g.Cell(r, c); !ok {
				lay.lastCol = c - 1
				break
			}
		}
		break
	}

	for c := 2; c <= lay.lastCol; c++ {
		v, _ := g.Cell(lay.headerRow, c)
		span, err := ParseSpan(CleanCell(v), w.Profile.Thresholds)
		lay.periods[c] = period{span: span, err: err}
	}
	return lay
}

// isHeaderStart reports whether a column-2 value looks like a morning period.
func isHeaderStart(v string) bool {
	v = strings.TrimSpace(v)
	return strings.HasPrefix(v, "9") || strings.HasPrefix(v, "8")
}

// dayBands finds the label row of each weekday present in column 1.
func (w *Walker) dayBands(g Grid) []dayBand {
	var bands []dayBand
	for _, day := range Weekdays {
		name := strings.ToLower(day.String())
		for r := 1; r <= g.MaxRow(); r++ {
			v, ok := g.Cell(r, 1)
			if !ok {
				continue
			}
			label := strings.ToLower(CleanCell(v))
			if label != "" && strings.HasPrefix(name, label) {
				bands = append(bands, dayBand{day: day, row: r, irregular: w.Profile.isIrregular(day)})
				break
			}
		}
	}
	return bands
}

// walkDay parses one band column by column, top to bottom.
func (w *Walker) walkDay(ctx context.Context, lay *layout, band dayBand) (ParseResult, error) {
	var res ParseResult

	start := band.row
	if v, _ := lay.grid.Cell(start, 2); strings.HasPrefix(strings.TrimSpace(v), "9") {
		start++
	}

	for col := 2; col <= lay.lastCol; col++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for row := start; row <= lay.maxRow; row++ {
			end := w.isEndOfBand(lay, band, row)
			if stop := w.visit(lay, band.day, row, col, &res); stop || end {
				break
			}
		}
	}
	return res, nil
}

// visit parses the cell at (row, col) into res. It returns true when the
// cell is an elective category, which ends the column.
func (w *Walker) visit(lay *layout, day time.Weekday, row, col int, res *ParseResult) bool {
	raw, ok := lay.grid.Cell(row, col)
	if !ok {
		return false
	}
	text := strings.ToUpper(CleanCell(raw))
	switch {
	case text == "":
		return false
	case containsString(w.Profile.ElectiveCategories, text):
		return true
	case containsString(w.Profile.SpamEntries, text):
		return false
	case !HasLetter(text):
		return false
	}

	at := CellContext{Row: row, Col: col, Day: day}
	span, err := lay.spanAt(row, col)
	if err != nil {
		w.fail(res, newParseError(at, text, err))
		return false
	}
	at.Span = span

	ev, err := w.Parser.ParseCell(text, at)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			w.fail(res, pe)
		}
		return false
	}
	res.Events = append(res.Events, ev)
	return false
}

func (w *Walker) fail(res *ParseResult, pe *ParseError) {
	w.logger().Debug("cell skipped",
		"row", pe.Row,
		"col", pe.Col,
		"raw", pe.Raw,
		"reason", pe.Reason,
	)
	res.Failures = append(res.Failures, pe)
}

// spanAt is the column's period, widened to the last column of a single-row
// merge containing the cell.
func (lay *layout) spanAt(row, col int) (Span, error) {
	p, ok := lay.periods[col]
	if !ok {
		return Span{}, fmt.Errorf("%w: column %d has no period header", ErrFormat, col)
	}
	if p.err != nil {
		return Span{}, p.err
	}

	for _, r := range lay.regions {
		if r.MinRow != r.MaxRow || r.MinRow != row || col < r.MinCol || col > r.MaxCol {
			continue
		}
		if tail, ok := lay.periods[r.MaxCol]; ok && tail.err == nil {
			return p.span.Union(tail.span), nil
		}
		break
	}
	return p.span, nil
}

// isEndOfBand reports whether row is the last row of band.
func (w *Walker) isEndOfBand(lay *layout, band dayBand, row int) bool {
	if row >= lay.maxRow {
		return true
	}

	if !band.irregular {
		_, ok := lay.grid.Cell(row+1, 1)
		return ok
	}

	if lay.fills != nil && lay.fills.IsSentinelFill(row, 1) {
		return true
	}
	if r, ok := lay.regionAt(row, 1); ok && !r.IsAnchor(row, 1) {
		return !r.Contains(row+1, 1)
	}
	return lay.isEmptyRow(row)
}

func (lay *layout) regionAt(row, col int) (Region, bool) {
	for _, r := range lay.regions {
		if r.Contains(row, col) {
			return r, true
		}
	}
	return Region{}, false
}

func (lay *layout) isEmptyRow(row int) bool {
	for c := 1; c <= lay.lastCol; c++ {
		if _, ok := lay.grid.Cell(row, c); ok {
			return false
		}
	}
	return true
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
