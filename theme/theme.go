// Package theme resolves terminal colors to concrete RGBA values.
package theme

import (
	"image/color"
	"strings"

	"github.com/javanhut/ravencore/grid"
)

// Theme colors
type Theme struct {
	Name       string
	Label      string
	Background color.RGBA
	Foreground color.RGBA
	Cursor     color.RGBA
	Selection  color.RGBA
	Palette    [16]color.RGBA
}

// DefaultName is used when a configured name is unknown.
const DefaultName = "raven-blue"

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

// Standard 16 colors
var ravenPalette = [16]color.RGBA{
	rgb(11, 15, 20),    // Black
	rgb(209, 105, 105), // Red
	rgb(127, 188, 140), // Green
	rgb(215, 186, 125), // Yellow
	rgb(136, 164, 212), // Blue
	rgb(197, 134, 192), // Magenta
	rgb(127, 197, 200), // Cyan
	rgb(212, 216, 222), // White
	rgb(75, 82, 99),    // Bright Black
	rgb(224, 122, 122), // Bright Red
	rgb(154, 215, 168), // Bright Green
	rgb(231, 201, 139), // Bright Yellow
	rgb(165, 191, 240), // Bright Blue
	rgb(216, 160, 212), // Bright Magenta
	rgb(154, 215, 220), // Bright Cyan
	rgb(241, 243, 245), // Bright White
}

var themes = []Theme{
	{
		Name:       "raven-blue",
		Label:      "Raven Blue",
		Background: rgb(0x0d, 0x10, 0x1a),
		Foreground: rgb(0xe8, 0xed, 0xf7),
		Cursor:     rgb(0xa2, 0xe0, 0xc7),
		Selection:  color.RGBA{R: 0x74, G: 0xb6, B: 0xff, A: 0x59},
		Palette:    ravenPalette,
	},
	{
		Name:       "crow-black",
		Label:      "Crow Black",
		Background: rgb(0x05, 0x05, 0x05),
		Foreground: rgb(0xe6, 0xe6, 0xe6),
		Cursor:     rgb(0xf6, 0xf6, 0xf6),
		Selection:  color.RGBA{R: 0xb3, G: 0xb3, B: 0xb3, A: 0x59},
		Palette:    ravenPalette,
	},
	{
		Name:       "magpie-black-white-grey",
		Label:      "Magpie Black/White/Grey",
		Background: rgb(0x11, 0x11, 0x11),
		Foreground: rgb(0xf5, 0xf5, 0xf5),
		Cursor:     rgb(0xff, 0xff, 0xff),
		Selection:  color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0x59},
		Palette:    ravenPalette,
	},
	{
		Name:       "catppuccin-mocha",
		Label:      "Catppuccin Mocha",
		Background: rgb(0x1e, 0x1e, 0x2e),
		Foreground: rgb(0xcd, 0xd6, 0xf4),
		Cursor:     rgb(0xf5, 0xc2, 0xe7),
		Selection:  color.RGBA{R: 0x89, G: 0xb4, B: 0xfa, A: 0x59},
		Palette: [16]color.RGBA{
			rgb(0x45, 0x47, 0x5a), rgb(0xf3, 0x8b, 0xa8), rgb(0xa6, 0xe3, 0xa1), rgb(0xf9, 0xe2, 0xaf),
			rgb(0x89, 0xb4, 0xfa), rgb(0xf5, 0xc2, 0xe7), rgb(0x94, 0xe2, 0xd5), rgb(0xba, 0xc2, 0xde),
			rgb(0x58, 0x5b, 0x70), rgb(0xf3, 0x8b, 0xa8), rgb(0xa6, 0xe3, 0xa1), rgb(0xf9, 0xe2, 0xaf),
			rgb(0x89, 0xb4, 0xfa), rgb(0xf5, 0xc2, 0xe7), rgb(0x94, 0xe2, 0xd5), rgb(0xa6, 0xad, 0xc8),
		},
	},
}

var aliases = map[string]string{
	"magpie":                      "magpie-black-white-grey",
	"magpie-black-and-white-grey": "magpie-black-white-grey",
	"catppuccin":                  "catppuccin-mocha",
	"catpuccin":                   "catppuccin-mocha",
}

// ByName returns a theme for a known theme name, or the default theme.
func ByName(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, t := range themes {
		if t.Name == key {
			return t
		}
	}
	return themes[0]
}

// Names lists the canonical theme names.
func Names() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// Resolve maps a terminal color to RGBA. fg picks the fallback slot when c
// is the zero value of an unknown kind.
func (t Theme) Resolve(c grid.Color, fg bool) color.RGBA {
	switch c.Kind {
	case grid.ColorNamed:
		switch {
		case c.Name < 16:
			return t.Palette[c.Name]
		case c.Name == grid.Foreground:
			return t.Foreground
		case c.Name == grid.Background:
			return t.Background
		case c.Name == grid.CursorColor:
			return t.Cursor
		}
	case grid.ColorIndexed:
		return t.indexed(c.Index)
	case grid.ColorRGB:
		return rgb(c.R, c.G, c.B)
	}
	if fg {
		return t.Foreground
	}
	return t.Background
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func (t Theme) indexed(index uint8) color.RGBA {
	if index < 16 {
		return t.Palette[index]
	}
	// 216 color cube (indices 16-231)
	if index < 232 {
		idx := index - 16
		return rgb(cubeLevels[idx/36], cubeLevels[(idx/6)%6], cubeLevels[idx%6])
	}
	// Grayscale (indices 232-255)
	gray := 8 + (index-232)*10
	return rgb(gray, gray, gray)
}

// CellColors returns the colors a cell is drawn with after applying bold,
// inverse, dim and hidden.
func (t Theme) CellColors(cell grid.Cell) (fg, bg color.RGBA) {
	fgColor := cell.Fg
	if cell.Flags.Has(grid.FlagBold) && fgColor.Kind == grid.ColorNamed && fgColor.Name < grid.BrightBlack {
		fgColor.Name += grid.BrightBlack
	}
	fg = t.Resolve(fgColor, true)
	bg = t.Resolve(cell.Bg, false)

	// Handle SGR 7 (reverse video): swap fg and bg
	if cell.Flags.Has(grid.FlagInverse) {
		fg, bg = bg, fg
	}
	if cell.Flags.Has(grid.FlagDim) {
		fg = blend(fg, bg)
	}
	if cell.Flags.Has(grid.FlagHidden) {
		fg = bg
	}
	return fg, bg
}

// blend mixes a and b half and half.
func blend(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(a.R) + uint16(b.R)) / 2),
		G: uint8((uint16(a.G) + uint16(b.G)) / 2),
		B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		A: a.A,
	}
}
