package parser

import (
	"sync"
	"unicode/utf8"

	"github.com/javanhut/ravencore/grid"
)

// state is the position of the decoder in the escape-sequence grammar.
type state int

const (
	stateGround state = iota
	stateEscape
	stateCSI
	stateOSC
	stateOSCEscape
	stateDCS
	stateDCSEscape
	stateCharset
	stateHash
)

// maxStringLen bounds OSC and DCS payloads; longer strings are truncated.
const maxStringLen = 4096

// maxCSIParams bounds the parameter bytes kept for one control sequence.
const maxCSIParams = 256

type charset int

const (
	charsetASCII charset = iota
	charsetLineDrawing
)

type charsetTarget int

const (
	charsetTargetNone charsetTarget = iota
	charsetTargetG0
	charsetTargetG1
)

// DEC Special Graphics, selected with ESC ( 0 and SO/SI.
var decLineDrawing = map[rune]rune{
	'`': '◆', 'a': '▒', 'f': '°', 'g': '±', 'j': '┘', 'k': '┐', 'l': '┌',
	'm': '└', 'n': '┼', 'o': '⎺', 'p': '⎻', 'q': '─', 'r': '⎼', 's': '⎽',
	't': '├', 'u': '┤', 'v': '┴', 'w': '┬', 'x': '│', 'y': '≤', 'z': '≥',
	'{': 'π', '|': '≠', '}': '£', '~': '·',
}

// savedCursor is the DECSC snapshot.
type savedCursor struct {
	col, row int
	fg, bg   grid.Color
	flags    grid.CellFlags
	origin   bool
}

// Terminal decodes a VT/xterm byte stream into a grid. Decoder state is
// carried between Process calls, so a stream may be split anywhere.
type Terminal struct {
	mu sync.Mutex

	grid      *grid.Grid
	savedMain *grid.Grid
	scrollback int

	state     state
	csiParams []byte
	csiInter  []byte
	oscBuf    []byte
	dcsBuf    []byte

	utf8Buf  [utf8.UTFMax]byte
	utf8Len  int
	utf8Need int

	fg    grid.Color
	bg    grid.Color
	flags grid.CellFlags

	modes      Modes
	savedModes Modes
	style      CursorStyle

	mainCursor savedCursor
	altCursor  savedCursor

	savedMainTop, savedMainBottom int

	g0, g1         charset
	activeG1       bool
	charsetPending charsetTarget

	title    string
	iconName string

	respond func([]byte)
}

// NewTerminal creates a decoder over a fresh cols x rows grid with the given
// scrollback depth. The alternate screen never keeps scrollback.
func NewTerminal(cols, rows, scrollback int) *Terminal {
	t := &Terminal{
		grid:       grid.NewGrid(cols, rows, scrollback),
		scrollback: scrollback,
		fg:         grid.DefaultFg(),
		bg:         grid.DefaultBg(),
		modes:      defaultModes(),
	}
	t.savedMainTop, t.savedMainBottom = t.grid.ScrollRegion()
	t.mainCursor = t.blankCursor()
	t.altCursor = t.blankCursor()
	return t
}

func (t *Terminal) blankCursor() savedCursor {
	return savedCursor{fg: grid.DefaultFg(), bg: grid.DefaultBg()}
}

// Process feeds a chunk of PTY output through the decoder.
func (t *Terminal) Process(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range data {
		t.processByte(b)
	}
}

func (t *Terminal) processByte(b byte) {
	switch t.state {
	case stateGround:
		t.processGround(b)
	case stateEscape:
		t.processEscape(b)
	case stateCSI:
		t.processCSI(b)
	case stateOSC:
		t.processOSC(b)
	case stateOSCEscape:
		t.processOSCEscape(b)
	case stateDCS:
		t.processDCS(b)
	case stateDCSEscape:
		t.processDCSEscape(b)
	case stateCharset:
		t.setCharset(b)
		t.state = stateGround
	case stateHash:
		if b == '8' {
			t.grid.Fill('E')
		}
		t.state = stateGround
	}
}

func (t *Terminal) processGround(b byte) {
	if t.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			t.utf8Buf[t.utf8Len] = b
			t.utf8Len++
			t.utf8Need--
			if t.utf8Need == 0 {
				r, _ := utf8.DecodeRune(t.utf8Buf[:t.utf8Len])
				t.utf8Len = 0
				t.print(r)
			}
			return
		}
		// Truncated sequence: emit a replacement and reprocess this byte.
		t.utf8Len, t.utf8Need = 0, 0
		t.print(utf8.RuneError)
	}

	switch {
	case b == 0x1b:
		t.state = stateEscape
	case b < 0x20 || b == 0x7f:
		t.execute(b)
	case b < 0x7f:
		t.print(t.mapCharset(rune(b)))
	case b == 0x9b:
		t.beginCSI()
	case b == 0x9d:
		t.beginOSC()
	case b == 0x90:
		t.beginDCS()
	case b >= 0xC2 && b < 0xE0:
		t.beginUTF8(b, 1)
	case b >= 0xE0 && b < 0xF0:
		t.beginUTF8(b, 2)
	case b >= 0xF0 && b < 0xF5:
		t.beginUTF8(b, 3)
	case b >= 0xA0:
		t.print(utf8.RuneError)
	}
}

func (t *Terminal) beginUTF8(b byte, need int) {
	t.utf8Buf[0] = b
	t.utf8Len = 1
	t.utf8Need = need
}

func (t *Terminal) print(r rune) {
	t.grid.WriteChar(r, t.fg, t.bg, t.flags)
}

// execute runs a C0 control.
func (t *Terminal) execute(b byte) {
	switch b {
	case 0x08:
		t.grid.Backspace()
	case 0x09:
		t.grid.Tab()
	case 0x0a, 0x0b, 0x0c:
		if t.modes.LineFeedNewLine {
			t.grid.Newline()
		} else {
			t.grid.LineFeed()
		}
	case 0x0d:
		t.grid.CarriageReturn()
	case 0x0e:
		t.activeG1 = true
	case 0x0f:
		t.activeG1 = false
	}
}

func (t *Terminal) mapCharset(r rune) rune {
	cs := t.g0
	if t.activeG1 {
		cs = t.g1
	}
	if cs == charsetLineDrawing {
		if mapped, ok := decLineDrawing[r]; ok {
			return mapped
		}
	}
	return r
}

func (t *Terminal) setCharset(designator byte) {
	cs := charsetASCII
	if designator == '0' {
		cs = charsetLineDrawing
	}
	switch t.charsetPending {
	case charsetTargetG0:
		t.g0 = cs
	case charsetTargetG1:
		t.g1 = cs
	}
	t.charsetPending = charsetTargetNone
}

func (t *Terminal) processEscape(b byte) {
	t.state = stateGround
	switch b {
	case '[':
		t.beginCSI()
	case ']':
		t.beginOSC()
	case 'P':
		t.beginDCS()
	case '7':
		t.saveCursor()
	case '8':
		t.restoreCursor()
	case 'c':
		t.reset()
	case 'D':
		t.grid.LineFeed()
	case 'M':
		t.grid.ReverseIndex()
	case 'E':
		t.grid.Newline()
	case '=':
		t.modes.AppKeypad = true
	case '>':
		t.modes.AppKeypad = false
	case '(', ')', '*', '+':
		switch b {
		case '(':
			t.charsetPending = charsetTargetG0
		case ')':
			t.charsetPending = charsetTargetG1
		default:
			t.charsetPending = charsetTargetNone
		}
		t.state = stateCharset
	case '#':
		t.state = stateHash
	case 0x1b:
		t.state = stateEscape
	}
}

func (t *Terminal) beginCSI() {
	t.state = stateCSI
	t.csiParams = t.csiParams[:0]
	t.csiInter = t.csiInter[:0]
}

func (t *Terminal) processCSI(b byte) {
	switch {
	case b >= 0x30 && b <= 0x3f:
		if len(t.csiParams) < maxCSIParams {
			t.csiParams = append(t.csiParams, b)
		}
	case b >= 0x20 && b <= 0x2f:
		if len(t.csiInter) < 2 {
			t.csiInter = append(t.csiInter, b)
		}
	case b >= 0x40 && b <= 0x7e:
		t.state = stateGround
		t.executeCSI(b)
	case b == 0x1b:
		t.state = stateEscape
	case b == 0x18 || b == 0x1a:
		t.state = stateGround
	case b < 0x20:
		t.execute(b)
	}
}

// Resize changes both screens to cols x rows. Non-positive sizes are ignored.
func (t *Terminal) Resize(cols, rows int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := t.grid.Resize(cols, rows)
	if t.savedMain != nil {
		if t.savedMain.Resize(cols, rows) {
			changed = true
		}
		if changed {
			t.savedMainTop, t.savedMainBottom = t.savedMain.ScrollRegion()
		}
	}
	return changed
}

func (t *Terminal) reset() {
	if t.savedMain != nil {
		t.grid = t.savedMain
		t.savedMain = nil
	}
	cols, rows := t.grid.Columns(), t.grid.Rows()
	t.grid = grid.NewGrid(cols, rows, t.scrollback)
	t.savedMainTop, t.savedMainBottom = t.grid.ScrollRegion()
	t.fg, t.bg, t.flags = grid.DefaultFg(), grid.DefaultBg(), 0
	t.modes = defaultModes()
	t.style = CursorStyleBlock
	t.g0, t.g1, t.activeG1 = charsetASCII, charsetASCII, false
	t.charsetPending = charsetTargetNone
	t.mainCursor, t.altCursor = t.blankCursor(), t.blankCursor()
	t.title, t.iconName = "", ""
}

// Grid returns the active screen. Callers must treat it as read-only.
func (t *Terminal) Grid() *grid.Grid {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grid
}

// Modes returns a snapshot of the terminal modes.
func (t *Terminal) Modes() Modes {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modes
}

// Cursor returns the cursor position and presentation.
func (t *Terminal) Cursor() CursorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CursorState{
		Position: t.grid.Cursor(),
		Visible:  t.modes.CursorVisible,
		Blinking: t.modes.CursorBlink,
		Style:    t.style,
	}
}

// Title returns the window title set with OSC 0 or 2.
func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// IconName returns the icon name set with OSC 0 or 1.
func (t *Terminal) IconName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.iconName
}

// SetResponseWriter installs the callback used for replies such as cursor
// position reports. It is called while the decoder is busy, so it must not
// call back into the Terminal.
func (t *Terminal) SetResponseWriter(w func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.respond = w
}

func (t *Terminal) reply(b []byte) {
	if t.respond != nil {
		t.respond(b)
	}
}
