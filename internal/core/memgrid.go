package core

// MemoryGrid is an in-memory Grid. It backs tests and the lookup builders'
// fixtures, and any caller that already holds cell values as strings.
type MemoryGrid struct {
	cells  map[[2]int]string
	fills  map[[2]int]bool
	merged []Region
	maxRow int
	maxCol int
}

// NewMemoryGrid builds a grid from rows of values. rows[0] is row 1 and
// rows[i][0] is column 1. Empty strings are empty cells.
func NewMemoryGrid(rows [][]string) *MemoryGrid {
	g := &MemoryGrid{
		cells: make(map[[2]int]string),
		fills: make(map[[2]int]bool),
	}
	for i, row := range rows {
		for j, v := range row {
			g.Set(i+1, j+1, v)
		}
	}
	return g
}

// Set stores v at (row, col). An empty v clears the cell.
func (g *MemoryGrid) Set(row, col int, v string) {
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
	if v == "" {
		delete(g.cells, [2]int{row, col})
		return
	}
	g.cells[[2]int{row, col}] = v
}

// Merge records a merged region. Values under non-anchor cells are hidden.
func (g *MemoryGrid) Merge(r Region) {
	g.merged = append(g.merged, r)
	if r.MaxRow > g.maxRow {
		g.maxRow = r.MaxRow
	}
	if r.MaxCol > g.maxCol {
		g.maxCol = r.MaxCol
	}
}

// SetSentinelFill marks (row, col) as carrying the band-ending fill.
func (g *MemoryGrid) SetSentinelFill(row, col int) {
	g.fills[[2]int{row, col}] = true
}

// Cell implements Grid.
func (g *MemoryGrid) Cell(row, col int) (string, bool) {
	for _, r := range g.merged {
		if r.Contains(row, col) && !r.IsAnchor(row, col) {
			return "", false
		}
	}
	v, ok := g.cells[[2]int{row, col}]
	return v, ok
}

// MergedRegions implements Grid.
func (g *MemoryGrid) MergedRegions() []Region { return g.merged }

// MaxRow implements Grid.
func (g *MemoryGrid) MaxRow() int { return g.maxRow }

// MaxCol implements Grid.
func (g *MemoryGrid) MaxCol() int { return g.maxCol }

// IsSentinelFill implements FillInspector.
func (g *MemoryGrid) IsSentinelFill(row, col int) bool {
	return g.fills[[2]int{row, col}]
}
