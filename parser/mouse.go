package parser

import "fmt"

// Mouse buttons as encoded in xterm reports.
const (
	MouseLeft       = 0
	MouseMiddle     = 1
	MouseRight      = 2
	MouseRelease    = 3
	MouseWheelUp    = 64
	MouseWheelDown  = 65
	mouseMotionFlag = 32
)

// EncodeMouseEvent returns the report for a mouse event at 1-based (x, y), or
// nil when the program has not asked for it. motion marks drag and hover events.
func (t *Terminal) EncodeMouseEvent(button, x, y int, pressed, motion bool) []byte {
	t.mu.Lock()
	mode, sgr := t.modes.Mouse, t.modes.MouseSGR
	t.mu.Unlock()

	switch mode {
	case MouseOff:
		return nil
	case MouseClick:
		if motion {
			return nil
		}
	case MouseDrag:
		if motion && button == MouseRelease {
			return nil
		}
	}
	if motion {
		button += mouseMotionFlag
	}

	if sgr {
		final := 'M'
		if !pressed {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", button, x, y, final))
	}

	// X10 encoding cannot say which button was released.
	if !pressed {
		button = MouseRelease
	}
	return []byte{0x1b, '[', 'M', byte(32 + button), byte(32 + min(x, 223)), byte(32 + min(y, 223))}
}
