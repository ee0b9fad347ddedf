package parser

import "github.com/javanhut/ravencore/grid"

func (t *Terminal) executeSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			t.fg, t.bg, t.flags = grid.DefaultFg(), grid.DefaultBg(), 0
		case p == 1:
			t.flags |= grid.FlagBold
		case p == 2:
			t.flags |= grid.FlagDim
		case p == 3:
			t.flags |= grid.FlagItalic
		case p == 4 || p == 21:
			t.flags |= grid.FlagUnderline
		case p == 7:
			t.flags |= grid.FlagInverse
		case p == 8:
			t.flags |= grid.FlagHidden
		case p == 9:
			t.flags |= grid.FlagStrikethrough
		case p == 22:
			t.flags &^= grid.FlagBold | grid.FlagDim
		case p == 23:
			t.flags &^= grid.FlagItalic
		case p == 24:
			t.flags &^= grid.FlagUnderline
		case p == 27:
			t.flags &^= grid.FlagInverse
		case p == 28:
			t.flags &^= grid.FlagHidden
		case p == 29:
			t.flags &^= grid.FlagStrikethrough
		case p >= 30 && p <= 37:
			t.fg = grid.Named(grid.Black + grid.NamedColor(p-30))
		case p == 38:
			c, n, ok := extendedColor(params[i+1:])
			if ok {
				t.fg = c
			}
			i += n
		case p == 39:
			t.fg = grid.DefaultFg()
		case p >= 40 && p <= 47:
			t.bg = grid.Named(grid.Black + grid.NamedColor(p-40))
		case p == 48:
			c, n, ok := extendedColor(params[i+1:])
			if ok {
				t.bg = c
			}
			i += n
		case p == 49:
			t.bg = grid.DefaultBg()
		case p == 58:
			// Underline color is not tracked; skip its arguments.
			_, n, _ := extendedColor(params[i+1:])
			i += n
		case p >= 90 && p <= 97:
			t.fg = grid.Named(grid.BrightBlack + grid.NamedColor(p-90))
		case p >= 100 && p <= 107:
			t.bg = grid.Named(grid.BrightBlack + grid.NamedColor(p-100))
		}
	}
	t.grid.SetEraseBackground(t.bg)
}

// extendedColor parses the arguments following 38/48/58 and returns the
// color plus how many arguments it consumed.
func extendedColor(args []int) (grid.Color, int, bool) {
	if len(args) == 0 {
		return grid.Color{}, 0, false
	}
	switch args[0] {
	case 5:
		if len(args) < 2 {
			return grid.Color{}, len(args), false
		}
		return grid.Indexed(toByte(args[1])), 2, true
	case 2:
		if len(args) < 4 {
			return grid.Color{}, len(args), false
		}
		return grid.RGB(toByte(args[1]), toByte(args[2]), toByte(args[3])), 4, true
	}
	return grid.Color{}, 0, false
}

func toByte(v int) uint8 {
	return uint8(clamp(v, 0, 255))
}
