// Package sheet reads xlsx workbooks into grids the core walker can parse.
//
// Cell values come from the sheet's stored rows, so the non-anchor cells of
// a merged region read as empty, just as the core expects. Fills are read
// once when a sheet is loaded; the workbook may be closed afterwards.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/ttparse/internal/core"
)

// DefaultSentinelFills are the fill colors that close an irregular day band.
var DefaultSentinelFills = []string{"000000"}

var (
	ErrNotWorkbook   = errors.New("not a workbook")
	ErrEmptyWorkbook = errors.New("empty workbook")
	ErrSheetNotFound = errors.New("sheet not found")
)

// Option configures how a workbook is read.
type Option func(*options)

type options struct {
	sentinelFills []string
}

// fillColumn is the day-label column whose fills close a band.
const fillColumn = 1

// WithSentinelFills replaces the fill colors treated as band terminators.
// Colors are hex RGB or ARGB, with or without a leading '#'.
func WithSentinelFills(colors ...string) Option {
	return func(o *options) { o.sentinelFills = colors }
}

// Workbook is an open xlsx file.
type Workbook struct {
	f    *excelize.File
	opts options
}

// Open reads a workbook from r.
func Open(r io.Reader, opts ...Option) (*Workbook, error) {
	o := options{
		sentinelFills: DefaultSentinelFills,
	}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWorkbook, err)
	}
	if len(f.GetSheetList()) == 0 {
		f.Close()
		return nil, ErrEmptyWorkbook
	}
	return &Workbook{f: f, opts: o}, nil
}

// OpenFile reads the workbook at path.
func OpenFile(path string, opts ...Option) (*Workbook, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer fh.Close()
	return Open(fh, opts...)
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// First loads the first sheet.
func (w *Workbook) First() (*Sheet, error) {
	return w.Sheet(w.f.GetSheetName(0))
}

// Sheet loads the named sheet. An empty name selects the first sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if name == "" {
		return w.First()
	}
	if idx, err := w.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	s := &Sheet{
		name:   name,
		rows:   rows,
		hidden: make(map[[2]int]bool),
		fills:  make(map[[2]int]bool),
	}
	s.maxRow = len(rows)
	for _, row := range rows {
		s.maxCol = max(s.maxCol, len(row))
	}

	if err := s.loadMerges(w.f); err != nil {
		return nil, err
	}
	if err := s.loadFills(w.f, w.opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Sheet is one worksheet held in memory. It implements core.Grid and
// core.FillInspector.
type Sheet struct {
	name   string
	rows   [][]string
	merged []core.Region
	hidden map[[2]int]bool
	fills  map[[2]int]bool
	maxRow int
	maxCol int
}

var (
	_ core.Grid          = (*Sheet)(nil)
	_ core.FillInspector = (*Sheet)(nil)
)

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// Cell implements core.Grid.
func (s *Sheet) Cell(row, col int) (string, bool) {
	if row < 1 || col < 1 || row > len(s.rows) || col > len(s.rows[row-1]) {
		return "", false
	}
	if s.hidden[[2]int{row, col}] {
		return "", false
	}
	v := s.rows[row-1][col-1]
	return v, v != ""
}

// MergedRegions implements core.Grid.
func (s *Sheet) MergedRegions() []core.Region { return s.merged }

// MaxRow implements core.Grid.
func (s *Sheet) MaxRow() int { return s.maxRow }

// MaxCol implements core.Grid.
func (s *Sheet) MaxCol() int { return s.maxCol }

// IsSentinelFill implements core.FillInspector.
func (s *Sheet) IsSentinelFill(row, col int) bool {
	return s.fills[[2]int{row, col}]
}

func (s *Sheet) loadMerges(f *excelize.File) error {
	merges, err := f.GetMergeCells(s.name)
	if err != nil {
		return fmt.Errorf("read merged cells of %q: %w", s.name, err)
	}
	for _, m := range merges {
		minCol, minRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return fmt.Errorf("merged cell %q: %w", m.GetStartAxis(), err)
		}
		maxCol, maxRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return fmt.Errorf("merged cell %q: %w", m.GetEndAxis(), err)
		}

		r := core.Region{MinRow: minRow, MaxRow: maxRow, MinCol: minCol, MaxCol: maxCol}
		s.merged = append(s.merged, r)
		s.maxRow = max(s.maxRow, maxRow)
		s.maxCol = max(s.maxCol, maxCol)

		for row := minRow; row <= maxRow; row++ {
			for col := minCol; col <= maxCol; col++ {
				if !r.IsAnchor(row, col) {
					s.hidden[[2]int{row, col}] = true
				}
			}
		}
	}
	return nil
}

func (s *Sheet) loadFills(f *excelize.File, o options) error {
	if len(o.sentinelFills) == 0 {
		return nil
	}
	sentinels := make(map[string]bool, len(o.sentinelFills))
	for _, c := range o.sentinelFills {
		sentinels[normalizeColor(c)] = true
	}

	for row := 1; row <= s.maxRow; row++ {
		cell, err := excelize.CoordinatesToCellName(fillColumn, row)
		if err != nil {
			return err
		}
		styleID, err := f.GetCellStyle(s.name, cell)
		if err != nil {
			return fmt.Errorf("read style of %s: %w", cell, err)
		}
		if styleID == 0 {
			continue
		}
		style, err := f.GetStyle(styleID)
		if err != nil {
			return fmt.Errorf("read style %d: %w", styleID, err)
		}
		if style == nil || style.Fill.Pattern == 0 {
			continue
		}
		for _, c := range style.Fill.Color {
			if sentinels[normalizeColor(c)] {
				s.fills[[2]int{row, fillColumn}] = true
				break
			}
		}
	}
	return nil
}

// normalizeColor upper-cases a hex color and drops '#' and any alpha byte.
func normalizeColor(c string) string {
	c = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
	if len(c) == 8 {
		c = c[2:]
	}
	return c
}
