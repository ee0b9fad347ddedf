package session

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpawner struct {
	mu   sync.Mutex
	ptys []*fakePTY
	dirs []string
}

func (f *fakeSpawner) spawn(rows, cols uint16, dir string) (io.Reader, Transport, error) {
	pr, pw := io.Pipe()
	p := &fakePTY{pw: pw}
	f.mu.Lock()
	f.ptys = append(f.ptys, p)
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()
	return pr, p, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeSpawner) {
	t.Helper()
	sp := &fakeSpawner{}
	m := NewManager(Options{Rows: 24, Cols: 80, Spawn: sp.spawn})
	t.Cleanup(m.CloseAll)
	return m, sp
}

func TestManagerOpenMakesActive(t *testing.T) {
	m, sp := newTestManager(t)
	assert.Nil(t, m.Active())

	first, err := m.Open("/a")
	require.NoError(t, err)
	second, err := m.Open("/b")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Same(t, second, m.Active())
	assert.Equal(t, 1, m.ActiveIndex())
	assert.Equal(t, "/a", first.CurrentDir())
	assert.Equal(t, []string{"/a", "/b"}, sp.dirs)
}

func TestManagerCycleWraps(t *testing.T) {
	m, _ := newTestManager(t)
	var opened []*Session
	for _, dir := range []string{"/a", "/b", "/c"} {
		s, err := m.Open(dir)
		require.NoError(t, err)
		opened = append(opened, s)
	}

	m.Next()
	assert.Same(t, opened[0], m.Active())
	m.Prev()
	assert.Same(t, opened[2], m.Active())
	m.Prev()
	assert.Same(t, opened[1], m.Active())
}

func TestManagerLimit(t *testing.T) {
	m, _ := newTestManager(t)
	for range MaxSessions {
		_, err := m.Open("")
		require.NoError(t, err)
	}

	_, err := m.Open("")
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, MaxSessions, m.Len())
}

func TestManagerRemove(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.Open("/a")
	b, _ := m.Open("/b")
	c, _ := m.Open("/c")

	m.Next() // a
	m.Next() // b
	require.Same(t, b, m.Active())

	assert.True(t, m.Remove(a.ID()))
	assert.Same(t, b, m.Active())
	assert.Equal(t, StateClosed, a.State())

	assert.True(t, m.Remove(c.ID()))
	assert.Same(t, b, m.Active())

	assert.False(t, m.Remove("missing"))
	assert.True(t, m.Remove(b.ID()))
	assert.Nil(t, m.Active())
}

func TestManagerProcessAllAndResize(t *testing.T) {
	m, sp := newTestManager(t)
	a, _ := m.Open("/a")
	b, _ := m.Open("/b")

	_, err := sp.ptys[1].pw.Write([]byte("hi"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		m.ProcessAll()
		return b.Grid().VisibleText() == "hi"
	}, waitFor, tick)
	assert.False(t, m.ProcessAll())
	assert.Empty(t, a.Grid().VisibleText())

	m.ResizeAll(30, 100)
	for _, s := range m.Sessions() {
		assert.Equal(t, 30, s.Rows())
		assert.Equal(t, 100, s.Cols())
	}
}

func TestManagerCleanupExited(t *testing.T) {
	m, sp := newTestManager(t)
	_, _ = m.Open("/a")
	b, _ := m.Open("/b")
	c, _ := m.Open("/c")

	require.NoError(t, sp.ptys[0].pw.Close())
	sp.ptys[2].set(func(f *fakePTY) { f.dead = true })
	require.Eventually(t, func() bool {
		return m.Sessions()[0].ProcessPendingInput().PTYClosed
	}, waitFor, tick)

	assert.Equal(t, 2, m.CleanupExited())
	assert.Equal(t, []*Session{b}, m.Sessions())
	assert.Same(t, b, m.Active())
	assert.Equal(t, StateClosed, c.State())
}
