package grid

import (
	"sync"
)

// DefaultScrollback is the history depth used when none is configured.
const DefaultScrollback = 10000

// Position is a cursor location in logical line numbering: line 0 is the top
// of the viewport and negative lines reach into scrollback.
type Position struct {
	Line int
	Col  int
}

// Grid is the cell buffer of one screen: a rows x cols viewport plus the
// scrollback history above it. All methods are safe for concurrent use.
type Grid struct {
	mu sync.RWMutex

	cells []Cell
	cols  int
	rows  int

	cursorCol int
	cursorRow int

	scrollback    [][]Cell
	maxScrollback int

	// Scroll region, 1-based and inclusive.
	scrollTop    int
	scrollBottom int

	wrapPending bool
	autoWrap    bool
	insertMode  bool

	// Last printed character, replayed by REP.
	lastChar  rune
	lastFg    Color
	lastBg    Color
	lastFlags CellFlags

	// Background used by erase and scroll operations (BCE).
	eraseBg Color
}

// NewGrid creates a grid of cols x rows keeping at most maxScrollback lines of
// history. Dimensions below 1 are raised to 1.
func NewGrid(cols, rows, maxScrollback int) *Grid {
	cols = max(cols, 1)
	rows = max(rows, 1)
	g := &Grid{
		cells:         make([]Cell, cols*rows),
		cols:          cols,
		rows:          rows,
		maxScrollback: max(maxScrollback, 0),
		scrollTop:     1,
		scrollBottom:  rows,
		autoWrap:      true,
		lastChar:      ' ',
		lastFg:        DefaultFg(),
		lastBg:        DefaultBg(),
		eraseBg:       DefaultBg(),
	}
	for i := range g.cells {
		g.cells[i] = NewCell()
	}
	return g
}

func (g *Grid) index(col, row int) int {
	return row*g.cols + col
}

func (g *Grid) blank() Cell {
	return BlankCell(g.eraseBg)
}

// WriteChar prints c at the cursor with the given attributes and advances the
// cursor, wrapping and scrolling as DECAWM dictates. Zero-width runes are dropped.
func (g *Grid) WriteChar(c rune, fg, bg Color, flags CellFlags) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w := RuneWidth(c)
	if w == 0 {
		return
	}
	flags &= styleMask

	if g.wrapPending {
		if g.autoWrap {
			g.newlineLocked()
		}
		g.wrapPending = false
	}

	if w == 2 && g.cursorCol >= g.cols-1 {
		if g.autoWrap && g.cols > 1 {
			g.clearWideAt(g.cursorCol, g.cursorRow)
			g.cells[g.index(g.cursorCol, g.cursorRow)] = Cell{Char: ' ', Fg: fg, Bg: bg}
			g.newlineLocked()
		} else {
			w = 1
		}
	}

	if g.insertMode {
		g.insertBlanksLocked(w)
	}

	for i := 0; i < w; i++ {
		g.clearWideAt(g.cursorCol+i, g.cursorRow)
	}

	head := Cell{Char: c, Fg: fg, Bg: bg, Flags: flags}
	if w == 2 {
		head.Flags |= FlagWideChar
		g.cells[g.index(g.cursorCol+1, g.cursorRow)] = Cell{Char: ' ', Fg: fg, Bg: bg, Flags: flags | FlagWideCharSpacer}
	}
	g.cells[g.index(g.cursorCol, g.cursorRow)] = head
	g.cursorCol += w

	if g.cursorCol >= g.cols {
		g.cursorCol = g.cols - 1
		if g.autoWrap {
			g.wrapPending = true
		}
	}

	g.lastChar = c
	g.lastFg = fg
	g.lastBg = bg
	g.lastFlags = flags
}

// clearWideAt blanks the other half of a wide character covering (col, row)
// before that column is overwritten.
func (g *Grid) clearWideAt(col, row int) {
	if col < 0 || col >= g.cols {
		return
	}
	cell := g.cells[g.index(col, row)]
	switch {
	case cell.IsSpacer() && col > 0:
		g.cells[g.index(col-1, row)] = g.blank()
		g.cells[g.index(col, row)] = g.blank()
	case cell.Flags.Has(FlagWideChar) && col+1 < g.cols:
		g.cells[g.index(col+1, row)] = g.blank()
		g.cells[g.index(col, row)] = g.blank()
	}
}

// RepeatChar prints the last printed character n more times (REP).
func (g *Grid) RepeatChar(n int) {
	g.mu.RLock()
	c, fg, bg, flags := g.lastChar, g.lastFg, g.lastBg, g.lastFlags
	g.mu.RUnlock()
	for i := 0; i < n; i++ {
		g.WriteChar(c, fg, bg, flags)
	}
}

// newlineLocked is carriage return plus index.
func (g *Grid) newlineLocked() {
	g.cursorCol = 0
	g.indexLocked()
}

// indexLocked moves the cursor down one line, scrolling the region when the
// cursor sits on its bottom margin.
func (g *Grid) indexLocked() {
	g.wrapPending = false
	if g.cursorRow == g.scrollBottom-1 {
		g.scrollRegionUpLocked(1)
		return
	}
	if g.cursorRow < g.rows-1 {
		g.cursorRow++
	}
}

// Newline moves the cursor to column 0 of the next line.
func (g *Grid) Newline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.newlineLocked()
}

// LineFeed moves the cursor down one line keeping its column (IND).
func (g *Grid) LineFeed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indexLocked()
}

// ReverseIndex moves the cursor up one line, scrolling the region down when
// the cursor sits on its top margin (RI).
func (g *Grid) ReverseIndex() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	if g.cursorRow == g.scrollTop-1 {
		g.scrollRegionDownLocked(1)
		return
	}
	if g.cursorRow > 0 {
		g.cursorRow--
	}
}

// CarriageReturn moves the cursor to column 0.
func (g *Grid) CarriageReturn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	g.cursorCol = 0
}

// Backspace moves the cursor one glyph left.
func (g *Grid) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	if g.cursorCol > 0 {
		g.cursorCol--
		g.snapOffSpacer()
	}
}

// Tab advances the cursor to the next multiple-of-8 column.
func (g *Grid) Tab() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	g.cursorCol = min((g.cursorCol/8+1)*8, g.cols-1)
	g.snapOffSpacer()
}

// BackTab moves the cursor to the previous multiple-of-8 column (CBT).
func (g *Grid) BackTab(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	for i := 0; i < n && g.cursorCol > 0; i++ {
		g.cursorCol = (g.cursorCol - 1) / 8 * 8
	}
	g.snapOffSpacer()
}

// snapOffSpacer moves the cursor from a wide-char spacer to its head.
func (g *Grid) snapOffSpacer() {
	if g.cursorCol > 0 && g.cells[g.index(g.cursorCol, g.cursorRow)].IsSpacer() {
		g.cursorCol--
	}
}

// MoveCursor moves the cursor relatively, stepping over wide characters, and
// clamps it to the viewport.
func (g *Grid) MoveCursor(dCol, dRow int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false

	switch {
	case dCol < 0:
		for i := 0; i > dCol && g.cursorCol > 0; i-- {
			g.cursorCol--
			g.snapOffSpacer()
		}
	case dCol > 0:
		for i := 0; i < dCol && g.cursorCol < g.cols-1; i++ {
			if g.cells[g.index(g.cursorCol, g.cursorRow)].Flags.Has(FlagWideChar) {
				g.cursorCol += 2
			} else {
				g.cursorCol++
			}
		}
	}

	g.cursorCol = clampInt(g.cursorCol, 0, g.cols-1)
	g.cursorRow = clampInt(g.cursorRow+dRow, 0, g.rows-1)
}

// SetCursorPos places the cursor at a 1-based (col, row), clamped to the viewport.
func (g *Grid) SetCursorPos(col, row int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
	g.cursorCol = clampInt(col-1, 0, g.cols-1)
	g.cursorRow = clampInt(row-1, 0, g.rows-1)
	g.snapOffSpacer()
}

// Cursor returns the cursor position. Its line is always within the viewport.
func (g *Grid) Cursor() Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Position{Line: g.cursorRow, Col: g.cursorCol}
}

// ScrollRegion returns the 1-based inclusive scroll margins.
func (g *Grid) ScrollRegion() (top, bottom int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scrollTop, g.scrollBottom
}

// SetScrollRegion sets the scroll margins (DECSTBM) and homes the cursor.
// Invalid regions are ignored.
func (g *Grid) SetScrollRegion(top, bottom int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setRegionLocked(top, bottom)
	g.cursorCol = 0
	g.cursorRow = 0
	g.wrapPending = false
}

// RestoreScrollRegion sets the scroll margins without moving the cursor.
func (g *Grid) RestoreScrollRegion(top, bottom int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setRegionLocked(top, bottom)
}

func (g *Grid) setRegionLocked(top, bottom int) {
	top = max(top, 1)
	bottom = min(bottom, g.rows)
	if top < bottom {
		g.scrollTop = top
		g.scrollBottom = bottom
	}
}

// ResetWrapPending drops a deferred autowrap.
func (g *Grid) ResetWrapPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wrapPending = false
}

// SetAutoWrap toggles DECAWM.
func (g *Grid) SetAutoWrap(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.autoWrap = enabled
	if !enabled {
		g.wrapPending = false
	}
}

// AutoWrap reports DECAWM.
func (g *Grid) AutoWrap() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.autoWrap
}

// SetInsertMode toggles IRM.
func (g *Grid) SetInsertMode(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.insertMode = enabled
}

// SetEraseBackground sets the color erase and scroll operations paint with.
func (g *Grid) SetEraseBackground(bg Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eraseBg = bg
}

// EraseBackground returns the BCE color.
func (g *Grid) EraseBackground() Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.eraseBg
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
