package grid

// pushScrollback appends a copy of row to history, dropping the oldest line
// once the limit is reached. Grids without scrollback discard the row.
func (g *Grid) pushScrollback(row []Cell) {
	if g.maxScrollback == 0 {
		return
	}
	line := make([]Cell, len(row))
	copy(line, row)
	g.scrollback = append(g.scrollback, line)
	if len(g.scrollback) > g.maxScrollback {
		g.scrollback = g.scrollback[len(g.scrollback)-g.maxScrollback:]
	}
}

func (g *Grid) clearRows(from, to int) {
	for i := from * g.cols; i < to*g.cols; i++ {
		g.cells[i] = g.blank()
	}
}

// scrollRegionUpLocked shifts the scroll region up by n lines. Lines leaving
// the top of the screen go to scrollback when the region starts at row 1.
func (g *Grid) scrollRegionUpLocked(n int) {
	top := g.scrollTop - 1
	bottom := g.scrollBottom
	n = min(n, bottom-top)
	if n <= 0 {
		return
	}
	if top == 0 {
		for r := 0; r < n; r++ {
			g.pushScrollback(g.cells[r*g.cols : (r+1)*g.cols])
		}
	}
	copy(g.cells[top*g.cols:bottom*g.cols], g.cells[(top+n)*g.cols:bottom*g.cols])
	g.clearRows(bottom-n, bottom)
}

// scrollRegionDownLocked shifts the scroll region down by n lines.
func (g *Grid) scrollRegionDownLocked(n int) {
	top := g.scrollTop - 1
	bottom := g.scrollBottom
	n = min(n, bottom-top)
	if n <= 0 {
		return
	}
	copy(g.cells[(top+n)*g.cols:bottom*g.cols], g.cells[top*g.cols:(bottom-n)*g.cols])
	g.clearRows(top, top+n)
}

// ScrollUp scrolls the region up by n lines (SU).
func (g *Grid) ScrollUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollRegionUpLocked(n)
}

// ScrollDown scrolls the region down by n lines (SD).
func (g *Grid) ScrollDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollRegionDownLocked(n)
}

// ClearAll erases the viewport. Rows holding text are kept in scrollback.
func (g *Grid) ClearAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for row := 0; row < g.rows; row++ {
		line := g.cells[row*g.cols : (row+1)*g.cols]
		for _, cell := range line {
			if !cell.IsEmpty() {
				g.pushScrollback(line)
				break
			}
		}
	}
	g.clearRows(0, g.rows)
}

// ClearScrollback drops all history (ED 3).
func (g *Grid) ClearScrollback() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollback = nil
}

// ClearToEnd erases from the cursor to the end of the screen.
func (g *Grid) ClearToEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearWideAt(g.cursorCol, g.cursorRow)
	for col := g.cursorCol; col < g.cols; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.blank()
	}
	g.clearRows(g.cursorRow+1, g.rows)
}

// ClearToStart erases from the start of the screen through the cursor.
func (g *Grid) ClearToStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearRows(0, g.cursorRow)
	g.clearWideAt(g.cursorCol, g.cursorRow)
	for col := 0; col <= g.cursorCol; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.blank()
	}
}

// ClearLine erases the cursor line.
func (g *Grid) ClearLine() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearRows(g.cursorRow, g.cursorRow+1)
}

// ClearLineToEnd erases from the cursor to the end of its line.
func (g *Grid) ClearLineToEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearWideAt(g.cursorCol, g.cursorRow)
	for col := g.cursorCol; col < g.cols; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.blank()
	}
}

// ClearLineToStart erases from the start of the cursor line through the cursor.
func (g *Grid) ClearLineToStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearWideAt(g.cursorCol, g.cursorRow)
	for col := 0; col <= g.cursorCol; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.blank()
	}
}

// EraseChars blanks n cells from the cursor without moving it (ECH).
func (g *Grid) EraseChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	end := min(g.cursorCol+max(n, 1), g.cols)
	g.clearWideAt(g.cursorCol, g.cursorRow)
	g.clearWideAt(end-1, g.cursorRow)
	for col := g.cursorCol; col < end; col++ {
		g.cells[g.index(col, g.cursorRow)] = g.blank()
	}
}

// DeleteChars removes n cells at the cursor, shifting the rest of the line left (DCH).
func (g *Grid) DeleteChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n = min(max(n, 1), g.cols-g.cursorCol)
	row := g.cursorRow
	g.clearWideAt(g.cursorCol, row)
	g.clearWideAt(g.cursorCol+n-1, row)
	line := g.cells[row*g.cols : (row+1)*g.cols]
	copy(line[g.cursorCol:], line[g.cursorCol+n:])
	for col := g.cols - n; col < g.cols; col++ {
		line[col] = g.blank()
	}
}

// InsertChars inserts n blank cells at the cursor, shifting the rest of the line right (ICH).
func (g *Grid) InsertChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.insertBlanksLocked(max(n, 1))
}

func (g *Grid) insertBlanksLocked(n int) {
	n = min(n, g.cols-g.cursorCol)
	row := g.cursorRow
	g.clearWideAt(g.cursorCol, row)
	line := g.cells[row*g.cols : (row+1)*g.cols]
	// A wide char pushed onto the last column would lose its spacer.
	if edge := g.cols - n - 1; edge >= g.cursorCol && line[edge].Flags.Has(FlagWideChar) {
		line[edge] = g.blank()
		line[edge+1] = g.blank()
	}
	copy(line[g.cursorCol+n:], line[g.cursorCol:g.cols-n])
	for col := g.cursorCol; col < g.cursorCol+n; col++ {
		line[col] = g.blank()
	}
}

// InsertLines inserts n blank lines at the cursor inside the scroll region (IL).
func (g *Grid) InsertLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	top, bottom := g.scrollTop-1, g.scrollBottom
	if g.cursorRow < top || g.cursorRow >= bottom {
		return
	}
	n = min(max(n, 1), bottom-g.cursorRow)
	copy(g.cells[(g.cursorRow+n)*g.cols:bottom*g.cols], g.cells[g.cursorRow*g.cols:(bottom-n)*g.cols])
	g.clearRows(g.cursorRow, g.cursorRow+n)
	g.cursorCol = 0
}

// DeleteLines removes n lines at the cursor inside the scroll region (DL).
func (g *Grid) DeleteLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	top, bottom := g.scrollTop-1, g.scrollBottom
	if g.cursorRow < top || g.cursorRow >= bottom {
		return
	}
	n = min(max(n, 1), bottom-g.cursorRow)
	copy(g.cells[g.cursorRow*g.cols:bottom*g.cols], g.cells[(g.cursorRow+n)*g.cols:bottom*g.cols])
	g.clearRows(bottom-n, bottom)
	g.cursorCol = 0
}

// Fill writes c into every viewport cell (DECALN).
func (g *Grid) Fill(c rune) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.cells {
		g.cells[i] = Cell{Char: c, Fg: DefaultFg(), Bg: DefaultBg()}
	}
	g.scrollTop, g.scrollBottom = 1, g.rows
	g.cursorCol, g.cursorRow = 0, 0
}
