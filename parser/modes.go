package parser

import (
	"time"

	"github.com/javanhut/ravencore/grid"
)

// MouseMode is the active xterm mouse tracking mode.
type MouseMode int

const (
	MouseOff    MouseMode = 0
	MouseClick  MouseMode = 1000
	MouseDrag   MouseMode = 1002
	MouseMotion MouseMode = 1003
)

// Modes is the set of toggles a program can flip with escape sequences.
// Callers receive copies; only the decoder mutates the live set.
type Modes struct {
	BracketedPaste  bool      // ?2004
	FocusInOut      bool      // ?1004
	AppCursorKeys   bool      // ?1
	AppKeypad       bool      // ESC = / ESC >
	AutoWrap        bool      // ?7
	CursorVisible   bool      // ?25
	CursorBlink     bool      // ?12
	Origin          bool      // ?6
	Insert          bool      // 4
	LineFeedNewLine bool      // 20
	AltScreen       bool      // ?47, ?1047, ?1049
	Mouse           MouseMode // ?1000, ?1002, ?1003
	MouseSGR        bool      // ?1006
}

func defaultModes() Modes {
	return Modes{AutoWrap: true, CursorVisible: true, CursorBlink: true}
}

// CursorStyle is the cursor shape requested with DECSCUSR.
type CursorStyle int

const (
	CursorStyleBlock CursorStyle = iota
	CursorStyleUnderline
	CursorStyleBar
)

func (s CursorStyle) String() string {
	switch s {
	case CursorStyleUnderline:
		return "underline"
	case CursorStyleBar:
		return "bar"
	default:
		return "block"
	}
}

// blinkHalfPeriod is how long the cursor stays in each blink phase.
const blinkHalfPeriod = 500 * time.Millisecond

// CursorState is what a renderer needs to draw the cursor.
type CursorState struct {
	grid.Position
	Visible  bool
	Blinking bool
	Style    CursorStyle
}

// BlinkOn reports whether a blinking cursor is in its visible phase at now.
// The phase is derived from the wall clock and never stored.
func (c CursorState) BlinkOn(now time.Time) bool {
	if !c.Blinking {
		return true
	}
	return (now.UnixMilli()/blinkHalfPeriod.Milliseconds())%2 == 0
}
