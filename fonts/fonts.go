// Package fonts finds a usable system font file. The result is meant to be
// computed once at startup and cached by the caller.
package fonts

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// ErrNoFont is returned when no candidate could be read and parsed.
var ErrNoFont = errors.New("no usable font found")

// SystemCandidates returns the common font locations for goos, most
// preferred first. Unknown systems get the Linux paths.
func SystemCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Windows\Fonts\arial.ttf`,
			`C:\Windows\Fonts\arialbd.ttf`,
			`C:\Windows\Fonts\consola.ttf`,
			`C:\Windows\Fonts\segoeui.ttf`,
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/SFNS.ttf",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
			"/System/Library/Fonts/Supplemental/Courier New.ttf",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/truetype/ubuntu/Ubuntu-R.ttf",
		}
	}
}

// Font is a located and parsed font file.
type Font struct {
	Path string
	Font *opentype.Font
}

// Locate returns the first candidate that can be read and parsed.
func Locate(candidates []string) (*Font, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates tried", ErrNoFont)
	}
	var errs []error
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", path, err))
			continue
		}
		return &Font{Path: path, Font: parsed}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoFont, errors.Join(errs...))
}

// CellSize returns the pixel size of one terminal cell at the given point
// size and DPI, measured from the advance of 'M'.
func (f *Font) CellSize(size, dpi float64) (width, height int, err error) {
	face, err := opentype.NewFace(f.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	height = (metrics.Ascent + metrics.Descent).Ceil()
	advance, _ := face.GlyphAdvance('M')
	return advance.Ceil(), height, nil
}

// GridSize returns how many columns and rows of cells fit in a pixel area.
// Both are at least 1.
func GridSize(cellWidth, cellHeight, pixelWidth, pixelHeight int) (cols, rows int) {
	cols, rows = 1, 1
	if cellWidth > 0 {
		cols = max(pixelWidth/cellWidth, 1)
	}
	if cellHeight > 0 {
		rows = max(pixelHeight/cellHeight, 1)
	}
	return cols, rows
}
