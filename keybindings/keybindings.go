// Package keybindings encodes key presses as the byte sequences an xterm
// compatible application expects on its input.
package keybindings

import (
	"strconv"
	"unicode/utf8"
)

// Key names a non-printing key.
type Key int

const (
	KeyUnknown Key = iota
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyEnter
	KeyTab
	KeyEscape
	KeySpace
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// ModifierKey is a set of held modifiers.
type ModifierKey uint8

const (
	ModShift ModifierKey = 1 << iota
	ModAlt
	ModControl
)

// xtermParam is the modifier parameter xterm appends to CSI key sequences:
// 1 + shift + 2*alt + 4*ctrl.
func (m ModifierKey) xtermParam() int {
	p := 1
	if m&ModShift != 0 {
		p++
	}
	if m&ModAlt != 0 {
		p += 2
	}
	if m&ModControl != 0 {
		p += 4
	}
	return p
}

// cursorFinals covers keys sent as SS3/CSI plus a final letter.
var cursorFinals = map[Key]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
	KeyF1:    'P',
	KeyF2:    'Q',
	KeyF3:    'R',
	KeyF4:    'S',
}

// tildeCodes covers keys sent as CSI <code> ~.
var tildeCodes = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

// TranslateKey returns the bytes for a special key, or nil when the key has
// no terminal encoding. appCursor selects the SS3 form of the arrow keys.
func TranslateKey(key Key, mods ModifierKey, appCursor bool) []byte {
	if final, ok := cursorFinals[key]; ok {
		if mods != 0 {
			return []byte("\x1b[1;" + strconv.Itoa(mods.xtermParam()) + string(final))
		}
		isArrow := key >= KeyUp && key <= KeyLeft
		if key >= KeyF1 && key <= KeyF4 || isArrow && appCursor {
			return []byte{0x1b, 'O', final}
		}
		return []byte{0x1b, '[', final}
	}

	if code, ok := tildeCodes[key]; ok {
		seq := "\x1b[" + strconv.Itoa(code)
		if mods != 0 {
			seq += ";" + strconv.Itoa(mods.xtermParam())
		}
		return []byte(seq + "~")
	}

	var out []byte
	switch key {
	case KeyBackspace:
		out = []byte{0x7f}
		if mods&ModControl != 0 {
			out = []byte{0x08}
		}
	case KeyEnter:
		out = []byte{'\r'}
	case KeyTab:
		if mods&ModShift != 0 {
			return []byte("\x1b[Z")
		}
		out = []byte{'\t'}
	case KeyEscape:
		out = []byte{0x1b}
	case KeySpace:
		if mods&ModControl != 0 {
			out = []byte{0}
		} else {
			out = []byte{' '}
		}
	default:
		return nil
	}
	if mods&ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

// TranslateChar encodes a typed character. Ctrl with a letter or one of
// @[\]^_ produces the matching C0 control; Alt prefixes ESC.
func TranslateChar(char rune, mods ModifierKey) []byte {
	var out []byte
	if mods&ModControl != 0 {
		if c, ok := controlCode(char); ok {
			out = []byte{c}
		}
	}
	if out == nil {
		out = utf8.AppendRune(nil, char)
	}
	if mods&ModAlt != 0 {
		// Alt sends ESC prefix
		out = append([]byte{0x1b}, out...)
	}
	return out
}

func controlCode(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}
