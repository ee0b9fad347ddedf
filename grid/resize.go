package grid

// Resize changes the viewport to cols x rows and reports whether anything
// changed. Dimensions below 1 leave the grid untouched.
//
// Shrinking drops blank space below the cursor first and then moves lines
// above the cursor into scrollback, so the cursor line stays on screen.
// Growing pulls lines back out of scrollback before adding blank rows.
// Columns are truncated or padded; a wide character cut at the new right
// edge is blanked.
func (g *Grid) Resize(cols, rows int) bool {
	if cols < 1 || rows < 1 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cols == g.cols && rows == g.rows {
		return false
	}
	g.wrapPending = false

	fullRegion := g.scrollTop == 1 && g.scrollBottom == g.rows

	lines := make([][]Cell, g.rows)
	for r := range lines {
		lines[r] = g.cells[r*g.cols : (r+1)*g.cols]
	}

	switch {
	case rows < g.rows:
		excess := g.rows - rows
		below := g.rows - 1 - g.cursorRow
		trim := min(excess, below)
		lines = lines[:len(lines)-trim]
		push := excess - trim
		for _, line := range lines[:push] {
			g.pushScrollback(line)
		}
		lines = lines[push:]
		g.cursorRow -= push
	case rows > g.rows:
		pull := min(rows-g.rows, len(g.scrollback))
		if pull > 0 {
			restored := g.scrollback[len(g.scrollback)-pull:]
			g.scrollback = g.scrollback[:len(g.scrollback)-pull]
			lines = append(append(make([][]Cell, 0, rows), restored...), lines...)
			g.cursorRow += pull
		}
	}

	cells := make([]Cell, cols*rows)
	for i := range cells {
		cells[i] = g.blank()
	}
	for r, line := range lines {
		if r >= rows {
			break
		}
		n := copy(cells[r*cols:(r+1)*cols], line)
		if n == 0 {
			continue
		}
		last := r*cols + n - 1
		if cells[last].Flags.Has(FlagWideChar) {
			cells[last] = g.blank()
		}
		if first := r * cols; cells[first].IsSpacer() {
			cells[first] = g.blank()
		}
	}

	g.cells = cells
	g.cols = cols
	g.rows = rows

	if fullRegion {
		g.scrollTop, g.scrollBottom = 1, rows
	} else {
		g.scrollBottom = min(g.scrollBottom, rows)
		if g.scrollTop >= g.scrollBottom {
			g.scrollTop, g.scrollBottom = 1, rows
		}
	}

	g.cursorCol = clampInt(g.cursorCol, 0, cols-1)
	g.cursorRow = clampInt(g.cursorRow, 0, rows-1)
	g.snapOffSpacer()
	return true
}
