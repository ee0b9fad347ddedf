package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestSystemCandidates(t *testing.T) {
	assert.Contains(t, SystemCandidates("windows"), `C:\Windows\Fonts\consola.ttf`)
	assert.Contains(t, SystemCandidates("darwin"), "/System/Library/Fonts/SFNS.ttf")
	assert.Contains(t, SystemCandidates("linux"), "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf")
	assert.Equal(t, SystemCandidates("linux"), SystemCandidates("freebsd"))
}

func TestLocateSkipsMissingAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.ttf")
	good := filepath.Join(dir, "goregular.ttf")
	require.NoError(t, os.WriteFile(broken, []byte("not a font"), 0o644))
	require.NoError(t, os.WriteFile(good, goregular.TTF, 0o644))

	f, err := Locate([]string{filepath.Join(dir, "missing.ttf"), broken, good})
	require.NoError(t, err)
	assert.Equal(t, good, f.Path)

	w, h, err := f.CellSize(12, 96)
	require.NoError(t, err)
	assert.Positive(t, w)
	assert.Positive(t, h)
}

func TestLocateReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := Locate([]string{filepath.Join(dir, "a.ttf"), filepath.Join(dir, "b.ttf")})

	require.ErrorIs(t, err, ErrNoFont)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "a.ttf")
	assert.Contains(t, err.Error(), "b.ttf")

	_, err = Locate(nil)
	assert.ErrorIs(t, err, ErrNoFont)
}

func TestGridSize(t *testing.T) {
	cols, rows := GridSize(8, 16, 800, 600)
	assert.Equal(t, 100, cols)
	assert.Equal(t, 37, rows)

	cols, rows = GridSize(8, 16, 3, 3)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)

	cols, rows = GridSize(0, 0, 100, 100)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
}
