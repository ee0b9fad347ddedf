package grid

import "strings"

// Rows returns the number of visible lines.
func (g *Grid) Rows() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rows
}

// Columns returns the viewport width.
func (g *Grid) Columns() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cols
}

// ScrollbackLines returns the number of history lines above the viewport.
func (g *Grid) ScrollbackLines() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.scrollback)
}

// TotalLines returns scrollback plus visible lines.
func (g *Grid) TotalLines() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.scrollback) + g.rows
}

// CellAt returns the cell at a logical line (negative for scrollback) and
// column. Positions outside the grid read as empty cells.
func (g *Grid) CellAt(line, col int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rowCellLocked(line+len(g.scrollback), col)
}

// RowCell returns the cell at an absolute row, where row 0 is the oldest
// scrollback line and the last Rows() rows are the viewport.
func (g *Grid) RowCell(row, col int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rowCellLocked(row, col)
}

func (g *Grid) rowCellLocked(row, col int) Cell {
	if row < 0 || col < 0 {
		return NewCell()
	}
	if row < len(g.scrollback) {
		line := g.scrollback[row]
		if col < len(line) {
			return line[col]
		}
		return NewCell()
	}
	row -= len(g.scrollback)
	if row >= g.rows || col >= g.cols {
		return NewCell()
	}
	return g.cells[g.index(col, row)]
}

// Line returns a copy of a logical line, padded to the viewport width.
func (g *Grid) Line(line int) []Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Cell, g.cols)
	row := line + len(g.scrollback)
	for col := range out {
		out[col] = g.rowCellLocked(row, col)
	}
	return out
}

// LineText returns the text of a logical line with trailing blanks removed.
func (g *Grid) LineText(line int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lineTextLocked(line + len(g.scrollback))
}

func (g *Grid) lineTextLocked(row int) string {
	var b strings.Builder
	b.Grow(g.cols)
	for col := 0; col < g.cols; col++ {
		cell := g.rowCellLocked(row, col)
		if cell.IsSpacer() {
			continue
		}
		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// VisibleText returns the viewport as plain text without trailing blank lines.
func (g *Grid) VisibleText() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	lines := make([]string, g.rows)
	for r := range lines {
		lines[r] = g.lineTextLocked(len(g.scrollback) + r)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
