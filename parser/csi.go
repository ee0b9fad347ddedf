package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/javanhut/ravencore/grid"
)

// private returns the leading private marker of the parameter string, if any.
func (t *Terminal) private() byte {
	if len(t.csiParams) > 0 {
		switch c := t.csiParams[0]; c {
		case '?', '>', '<', '=':
			return c
		}
	}
	return 0
}

// params splits the parameter string on ';', keeping only the first value of
// colon sub-parameters. Empty or malformed fields read as 0.
func (t *Terminal) params() []int {
	s := string(t.csiParams)
	if t.private() != 0 {
		s = s[1:]
	}
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, len(parts))
	for i, part := range parts {
		if idx := strings.IndexByte(part, ':'); idx >= 0 {
			part = part[:idx]
		}
		out[i] = atoi(part)
	}
	return out
}

// sgrParams expands colon sub-parameters of extended colors (38:2:r:g:b) so
// they parse the same way as their semicolon form.
func (t *Terminal) sgrParams() []int {
	s := string(t.csiParams)
	if s == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ";") {
		if !strings.Contains(part, ":") {
			out = append(out, atoi(part))
			continue
		}
		sub := strings.Split(part, ":")
		first := atoi(sub[0])
		if first != 38 && first != 48 && first != 58 {
			out = append(out, first)
			continue
		}
		out = append(out, first)
		rest := sub[1:]
		// 38:2::r:g:b carries an empty colorspace id.
		if len(rest) == 5 && atoi(rest[0]) == 2 {
			rest = append(rest[:1:1], rest[2:]...)
		}
		for _, v := range rest {
			out = append(out, atoi(v))
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return min(n, 65535)
}

// param returns params[i], or def when it is missing or zero.
func param(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

func (t *Terminal) executeCSI(final byte) {
	params := t.params()
	priv := t.private()
	var inter byte
	if len(t.csiInter) > 0 {
		inter = t.csiInter[0]
	}

	switch inter {
	case ' ':
		if final == 'q' {
			t.setCursorStyle(param(params, 0, 0))
		}
		return
	case '!':
		if final == 'p' {
			t.softReset()
		}
		return
	case 0:
	default:
		return
	}

	switch final {
	case 'A':
		t.moveCursor(0, -param(params, 0, 1))
	case 'B', 'e':
		t.moveCursor(0, param(params, 0, 1))
	case 'C', 'a':
		t.moveCursor(param(params, 0, 1), 0)
	case 'D':
		t.moveCursor(-param(params, 0, 1), 0)
	case 'E':
		t.grid.CarriageReturn()
		t.moveCursor(0, param(params, 0, 1))
	case 'F':
		t.grid.CarriageReturn()
		t.moveCursor(0, -param(params, 0, 1))
	case 'G', '`':
		row := t.grid.Cursor().Line
		t.grid.SetCursorPos(param(params, 0, 1), row+1)
	case 'H', 'f':
		t.setCursorPos(param(params, 1, 1), param(params, 0, 1))
	case 'd':
		col := t.grid.Cursor().Col
		t.setCursorPos(col+1, param(params, 0, 1))
	case 'I':
		for i := param(params, 0, 1); i > 0; i-- {
			t.grid.Tab()
		}
	case 'Z':
		t.grid.BackTab(param(params, 0, 1))
	case 'J':
		switch param(params, 0, 0) {
		case 0:
			t.grid.ClearToEnd()
		case 1:
			t.grid.ClearToStart()
		case 2:
			t.grid.ClearAll()
		case 3:
			t.grid.ClearScrollback()
		}
	case 'K':
		switch param(params, 0, 0) {
		case 0:
			t.grid.ClearLineToEnd()
		case 1:
			t.grid.ClearLineToStart()
		case 2:
			t.grid.ClearLine()
		}
	case 'L':
		t.grid.InsertLines(param(params, 0, 1))
	case 'M':
		t.grid.DeleteLines(param(params, 0, 1))
	case 'P':
		t.grid.DeleteChars(param(params, 0, 1))
	case '@':
		t.grid.InsertChars(param(params, 0, 1))
	case 'X':
		t.grid.EraseChars(param(params, 0, 1))
	case 'S':
		t.grid.ScrollUp(param(params, 0, 1))
	case 'T':
		if priv == 0 {
			t.grid.ScrollDown(param(params, 0, 1))
		}
	case 'b':
		t.grid.RepeatChar(param(params, 0, 1))
	case 'm':
		if priv == 0 {
			t.executeSGR(t.sgrParams())
		}
	case 'h':
		t.setMode(priv, params, true)
	case 'l':
		t.setMode(priv, params, false)
	case 'r':
		if priv != 0 {
			return
		}
		t.grid.SetScrollRegion(param(params, 0, 1), param(params, 1, t.grid.Rows()))
		t.setCursorPos(1, 1)
	case 's':
		if priv == 0 {
			t.saveCursor()
		}
	case 'u':
		if priv == 0 {
			t.restoreCursor()
		}
	case 'n':
		if priv == 0 {
			t.deviceStatus(param(params, 0, 0))
		}
	case 'c':
		t.deviceAttributes(priv)
	}
}

// setCursorPos places the cursor at a 1-based position, relative to the
// scroll region in origin mode.
func (t *Terminal) setCursorPos(col, row int) {
	if t.modes.Origin {
		top, bottom := t.grid.ScrollRegion()
		row = clamp(top+row-1, top, bottom)
	}
	t.grid.SetCursorPos(col, row)
}

// moveCursor moves relatively, confined to the scroll region in origin mode.
func (t *Terminal) moveCursor(dCol, dRow int) {
	if !t.modes.Origin {
		t.grid.MoveCursor(dCol, dRow)
		return
	}
	pos := t.grid.Cursor()
	top, bottom := t.grid.ScrollRegion()
	row := clamp(pos.Line+dRow, top-1, bottom-1)
	t.grid.SetCursorPos(pos.Col+dCol+1, row+1)
}

func (t *Terminal) setCursorStyle(p int) {
	switch p {
	case 0, 1:
		t.style, t.modes.CursorBlink = CursorStyleBlock, true
	case 2:
		t.style, t.modes.CursorBlink = CursorStyleBlock, false
	case 3:
		t.style, t.modes.CursorBlink = CursorStyleUnderline, true
	case 4:
		t.style, t.modes.CursorBlink = CursorStyleUnderline, false
	case 5:
		t.style, t.modes.CursorBlink = CursorStyleBar, true
	case 6:
		t.style, t.modes.CursorBlink = CursorStyleBar, false
	}
}

// softReset is DECSTR: modes and attributes go back to defaults, the screen
// content stays.
func (t *Terminal) softReset() {
	alt := t.modes.AltScreen
	t.modes = defaultModes()
	t.modes.AltScreen = alt
	t.grid.SetAutoWrap(true)
	t.grid.SetInsertMode(false)
	t.grid.RestoreScrollRegion(1, t.grid.Rows())
	t.fg, t.bg, t.flags = grid.DefaultFg(), grid.DefaultBg(), 0
	t.grid.SetEraseBackground(t.bg)
	t.style = CursorStyleBlock
}

func (t *Terminal) setMode(priv byte, params []int, set bool) {
	if priv == 0 {
		for _, p := range params {
			switch p {
			case 4:
				t.modes.Insert = set
				t.grid.SetInsertMode(set)
			case 20:
				t.modes.LineFeedNewLine = set
			}
		}
		return
	}
	if priv != '?' {
		return
	}

	for _, p := range params {
		switch p {
		case 1:
			t.modes.AppCursorKeys = set
		case 6:
			t.modes.Origin = set
			t.setCursorPos(1, 1)
		case 7:
			t.modes.AutoWrap = set
			t.grid.SetAutoWrap(set)
		case 12:
			t.modes.CursorBlink = set
		case 25:
			t.modes.CursorVisible = set
		case 47, 1047:
			if set {
				t.enterAltScreen()
			} else {
				t.exitAltScreen()
			}
		case 1048:
			if set {
				t.saveCursor()
			} else {
				t.restoreCursor()
			}
		case 1049:
			if set {
				t.saveCursor()
				t.enterAltScreen()
			} else {
				t.exitAltScreen()
				t.restoreCursor()
			}
		case 1000, 1002, 1003:
			if set {
				t.modes.Mouse = MouseMode(p)
			} else if t.modes.Mouse == MouseMode(p) {
				t.modes.Mouse = MouseOff
			}
		case 1004:
			t.modes.FocusInOut = set
		case 1006:
			t.modes.MouseSGR = set
		case 2004:
			t.modes.BracketedPaste = set
		}
	}
}

// enterAltScreen swaps in a blank screen without scrollback. Input-related
// modes are remembered so a full-screen program cannot leak them.
func (t *Terminal) enterAltScreen() {
	if t.modes.AltScreen {
		return
	}
	t.savedMainTop, t.savedMainBottom = t.grid.ScrollRegion()
	t.savedModes = t.modes
	t.savedMain = t.grid

	t.grid = grid.NewGrid(t.savedMain.Columns(), t.savedMain.Rows(), 0)
	t.grid.SetAutoWrap(t.modes.AutoWrap)
	t.grid.SetInsertMode(t.modes.Insert)
	t.grid.SetEraseBackground(t.bg)
	t.modes.AltScreen = true
}

// exitAltScreen restores the main screen and resets attributes that the
// full-screen program may have left behind.
func (t *Terminal) exitAltScreen() {
	if !t.modes.AltScreen || t.savedMain == nil {
		return
	}
	t.grid = t.savedMain
	t.savedMain = nil
	t.grid.RestoreScrollRegion(t.savedMainTop, t.savedMainBottom)

	t.fg, t.bg, t.flags = grid.DefaultFg(), grid.DefaultBg(), 0
	t.grid.SetEraseBackground(t.bg)
	t.g0, t.g1, t.activeG1 = charsetASCII, charsetASCII, false
	t.charsetPending = charsetTargetNone
	t.style = CursorStyleBlock

	saved := t.savedModes
	t.modes = defaultModes()
	t.modes.AppCursorKeys = saved.AppCursorKeys
	t.modes.BracketedPaste = saved.BracketedPaste
	t.modes.FocusInOut = saved.FocusInOut
	t.modes.Mouse = saved.Mouse
	t.modes.MouseSGR = saved.MouseSGR
	t.modes.AutoWrap = saved.AutoWrap
	t.modes.Insert = saved.Insert
	t.modes.LineFeedNewLine = saved.LineFeedNewLine
	t.grid.SetAutoWrap(t.modes.AutoWrap)
	t.grid.SetInsertMode(t.modes.Insert)
	t.grid.ResetWrapPending()
}

func (t *Terminal) saveCursor() {
	pos := t.grid.Cursor()
	c := savedCursor{col: pos.Col, row: pos.Line, fg: t.fg, bg: t.bg, flags: t.flags, origin: t.modes.Origin}
	if t.modes.AltScreen {
		t.altCursor = c
	} else {
		t.mainCursor = c
	}
}

func (t *Terminal) restoreCursor() {
	c := t.mainCursor
	if t.modes.AltScreen {
		c = t.altCursor
	}
	t.grid.SetCursorPos(c.col+1, c.row+1)
	t.fg, t.bg, t.flags = c.fg, c.bg, c.flags
	t.modes.Origin = c.origin
	t.grid.SetEraseBackground(t.bg)
}

func (t *Terminal) deviceStatus(code int) {
	switch code {
	case 5:
		t.reply([]byte("\x1b[0n"))
	case 6:
		pos := t.grid.Cursor()
		row := pos.Line
		if t.modes.Origin {
			top, _ := t.grid.ScrollRegion()
			row = max(row-(top-1), 0)
		}
		t.reply([]byte(fmt.Sprintf("\x1b[%d;%dR", row+1, pos.Col+1)))
	}
}

func (t *Terminal) deviceAttributes(priv byte) {
	switch priv {
	case 0:
		// VT220 with ANSI color.
		t.reply([]byte("\x1b[?62;22c"))
	case '>':
		t.reply([]byte("\x1b[>0;136;0c"))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
