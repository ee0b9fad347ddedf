package grid

// CellFlags is the style attribute set of a cell.
type CellFlags uint16

const (
	FlagBold CellFlags = 1 << iota
	FlagDim
	FlagItalic
	FlagUnderline
	FlagInverse
	FlagHidden
	FlagStrikethrough
	// FlagWideChar marks the first column of a double-width character.
	FlagWideChar
	// FlagWideCharSpacer marks the second column of a double-width character.
	// A spacer is never rendered or selected on its own.
	FlagWideCharSpacer
)

// Has reports whether every bit of f is set.
func (c CellFlags) Has(f CellFlags) bool {
	return c&f == f
}

// styleMask strips the layout bits so SGR state can be copied onto new cells.
const styleMask = FlagBold | FlagDim | FlagItalic | FlagUnderline | FlagInverse | FlagHidden | FlagStrikethrough

// ColorKind selects which field of a Color is meaningful.
type ColorKind uint8

const (
	ColorNamed ColorKind = iota
	ColorIndexed
	ColorRGB
)

// NamedColor is one of the 16 ANSI colors or a themed slot.
type NamedColor uint8

const (
	Black NamedColor = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
	Foreground
	Background
	CursorColor
)

// Color is a terminal color: a named slot, a 256-palette index or a 24-bit value.
type Color struct {
	Kind    ColorKind
	Name    NamedColor
	Index   uint8
	R, G, B uint8
}

// Named returns a named color.
func Named(n NamedColor) Color {
	return Color{Kind: ColorNamed, Name: n}
}

// Indexed returns a 256-palette color.
func Indexed(index uint8) Color {
	return Color{Kind: ColorIndexed, Index: index}
}

// RGB returns a true color.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// DefaultFg returns the themed foreground slot.
func DefaultFg() Color {
	return Named(Foreground)
}

// DefaultBg returns the themed background slot.
func DefaultBg() Color {
	return Named(Background)
}

// Cell is a single grid position.
type Cell struct {
	Char  rune
	Fg    Color
	Bg    Color
	Flags CellFlags
}

// NewCell returns an empty cell with default colors.
func NewCell() Cell {
	return BlankCell(DefaultBg())
}

// BlankCell returns an empty cell painted with bg (background color erase).
func BlankCell(bg Color) Cell {
	return Cell{Char: ' ', Fg: DefaultFg(), Bg: bg}
}

// Width returns how many columns the cell's glyph covers: 2 for the head of
// a wide character, 0 for its spacer, 1 otherwise.
func (c Cell) Width() int {
	switch {
	case c.Flags.Has(FlagWideCharSpacer):
		return 0
	case c.Flags.Has(FlagWideChar):
		return 2
	default:
		return 1
	}
}

// IsSpacer reports whether the cell is the continuation of a wide character.
func (c Cell) IsSpacer() bool {
	return c.Flags.Has(FlagWideCharSpacer)
}

// IsEmpty reports whether the cell holds no visible glyph.
func (c Cell) IsEmpty() bool {
	return c.Char == ' ' || c.Char == 0
}
