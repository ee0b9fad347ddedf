package session

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/javanhut/ravencore/keybindings"
	"github.com/javanhut/ravencore/metrics"
	"github.com/javanhut/ravencore/selection"
	"github.com/javanhut/ravencore/vtlog"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakePTY stands in for a PTY: the test writes child output into pw and
// inspects what the session wrote back.
type fakePTY struct {
	pw *io.PipeWriter

	mu        sync.Mutex
	written   bytes.Buffer
	resizes   [][2]uint16
	dead      bool
	writeErr  error
	resizeErr error
	closed    bool
}

func (f *fakePTY) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.written.Write(p)
}

func (f *fakePTY) Resize(rows, cols uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resizeErr != nil {
		return f.resizeErr
	}
	f.resizes = append(f.resizes, [2]uint16{rows, cols})
	return nil
}

func (f *fakePTY) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead
}

func (f *fakePTY) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return f.pw.Close()
}

func (f *fakePTY) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.String()
}

func (f *fakePTY) set(fn func(f *fakePTY)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type harness struct {
	s       *Session
	pty     *fakePTY
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, dir string) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New(prometheus.NewRegistry())
	pr, pw := io.Pipe()
	fake := &fakePTY{pw: pw}

	s, err := New(Options{
		Rows:    24,
		Cols:    80,
		Dir:     dir,
		Logger:  zap.New(core),
		Metrics: m,
		Spawn: func(rows, cols uint16, d string) (io.Reader, Transport, error) {
			return pr, fake, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &harness{s: s, pty: fake, metrics: m, logs: logs}
}

// feed sends child output and processes it until done reports true.
func (h *harness) feed(t *testing.T, data string, done func() bool) {
	t.Helper()
	_, err := h.pty.pw.Write([]byte(data))
	require.NoError(t, err)
	h.pump(t, done)
}

func (h *harness) pump(t *testing.T, done func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.s.ProcessPendingInput()
		return done()
	}, waitFor, tick)
}

func TestNewRejectsZeroSize(t *testing.T) {
	_, err := New(Options{Rows: 0, Cols: 80})
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(Options{Rows: 24, Cols: 0})
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewWrapsSpawnError(t *testing.T) {
	boom := errors.New("no pty available")
	_, err := New(Options{
		Rows: 24,
		Cols: 80,
		Spawn: func(rows, cols uint16, dir string) (io.Reader, Transport, error) {
			return nil, nil, boom
		},
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "spawn pty")
}

func TestNewSessionIsOpen(t *testing.T) {
	h := newHarness(t, "/home/raven")

	assert.Equal(t, StateOpen, h.s.State())
	assert.NotEmpty(t, h.s.ID())
	assert.Equal(t, 24, h.s.Rows())
	assert.Equal(t, 80, h.s.Cols())
	assert.Equal(t, "/home/raven", h.s.CurrentDir())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionsOpen))

	opened := h.logs.FilterMessage("session state changed").All()
	require.Len(t, opened, 1)
	assert.Equal(t, "open", opened[0].ContextMap()["to"])
	assert.Equal(t, h.s.ID(), opened[0].ContextMap()["session"])
}

func TestOutputReachesScreenDirectoryAndLog(t *testing.T) {
	h := newHarness(t, "/home/raven")

	out := "hello\r\n\x1b]633;CWD=/tmp/work\x07$ "
	h.feed(t, out, func() bool {
		return h.s.CurrentDir() == "/tmp/work" && h.s.LogLen() == 2
	})

	assert.Equal(t, "hello\n$", h.s.Grid().VisibleText())
	assert.Equal(t, 2, h.s.Cursor().Col)

	first, ok := h.s.LogEntry(0)
	require.True(t, ok)
	assert.Equal(t, vtlog.Entry{Kind: vtlog.Output, Text: `hello\r\n`}, first)
	pending, ok := h.s.LogEntry(1)
	require.True(t, ok)
	assert.Equal(t, `\x1b]633;CWD=/tmp/work\u{0007}$ `, pending.Text)
	assert.Equal(t, float64(len(out)), testutil.ToFloat64(h.metrics.BytesRead))
}

func TestIdleProcessingReportsNothing(t *testing.T) {
	h := newHarness(t, "")

	assert.Equal(t, Result{}, h.s.ProcessPendingInput())
	assert.Equal(t, StateOpen, h.s.State())
}

func TestProcessReportsInput(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.pty.pw.Write([]byte("x"))
	require.NoError(t, err)

	var got Result
	require.Eventually(t, func() bool {
		got = h.s.ProcessPendingInput()
		return got.HadInput
	}, waitFor, tick)
	assert.False(t, got.PTYClosed)
	assert.Equal(t, "x", h.s.Grid().VisibleText())
}

func TestEndOfFileClosesSession(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.pty.pw.Write([]byte("bye\r\n"))
	require.NoError(t, err)
	require.NoError(t, h.pty.pw.Close())

	h.pump(t, func() bool { return h.s.State() == StateClosed })

	assert.Equal(t, "bye", h.s.Grid().VisibleText())
	for range 3 {
		res := h.s.ProcessPendingInput()
		assert.True(t, res.PTYClosed)
		assert.False(t, res.HadInput)
	}
	<-h.s.Done()

	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.SessionsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionsClosed.WithLabelValues("closed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(h.metrics.BytesRead))
}

func TestReadErrorFailsSession(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.pty.pw.CloseWithError(errors.New("input/output failure on master")))
	h.pump(t, func() bool { return h.s.State() == StateFailed })

	assert.True(t, h.s.ProcessPendingInput().PTYClosed)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SessionsClosed.WithLabelValues("failed")))

	failed := h.logs.FilterMessage("session state changed").FilterField(zap.Stringer("to", StateFailed)).All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ContextMap()["error"], "input/output failure")

	// Close must not revive or re-label a failed session.
	require.NoError(t, h.s.Close())
	assert.Equal(t, StateFailed, h.s.State())
}

func TestNormalClose(t *testing.T) {
	assert.True(t, normalClose(nil))
	assert.True(t, normalClose(io.EOF))
	assert.True(t, normalClose(io.ErrClosedPipe))
	assert.False(t, normalClose(errors.New("boom")))
}

func TestDeadTransportClosesSession(t *testing.T) {
	h := newHarness(t, "")

	assert.True(t, h.s.IsAlive())
	h.pty.set(func(f *fakePTY) { f.dead = true })

	assert.False(t, h.s.IsAlive())
	assert.Equal(t, StateClosed, h.s.State())
	assert.True(t, h.s.ProcessPendingInput().PTYClosed)
}

func TestWriteToPTYLogsInput(t *testing.T) {
	h := newHarness(t, "")

	h.s.WriteToPTY([]byte("ls\r"))
	h.s.WriteToPTY(nil)

	assert.Equal(t, "ls\r", h.pty.output())
	assert.Equal(t, 1, h.s.LogLen())
	entry, ok := h.s.LogEntry(0)
	require.True(t, ok)
	assert.Equal(t, vtlog.Entry{Kind: vtlog.Input, Text: `ls\r`}, entry)
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.BytesWritten))
}

func TestWriteFailureIsLoggedAndIgnored(t *testing.T) {
	h := newHarness(t, "")
	h.pty.set(func(f *fakePTY) { f.writeErr = errors.New("broken pipe") })

	h.s.WriteToPTY([]byte("echo hi\r"))

	assert.Equal(t, StateOpen, h.s.State())
	assert.Equal(t, 1, h.logs.FilterMessage("pty write failed").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.WriteErrors))
	assert.Equal(t, 1, h.s.LogLen())
}

func TestResize(t *testing.T) {
	h := newHarness(t, "")

	h.s.Resize(0, 100)
	h.s.Resize(30, 0)
	assert.Equal(t, 24, h.s.Rows())
	assert.Equal(t, 80, h.s.Cols())

	h.s.Resize(30, 100)
	assert.Equal(t, 30, h.s.Rows())
	assert.Equal(t, 100, h.s.Cols())

	// Same size again does not reach the PTY.
	h.s.Resize(30, 100)

	h.pty.set(func(f *fakePTY) { f.resizeErr = errors.New("bad ioctl") })
	h.s.Resize(10, 40)
	assert.Equal(t, 10, h.s.Rows())
	assert.Equal(t, 40, h.s.Cols())

	h.pty.mu.Lock()
	assert.Equal(t, [][2]uint16{{30, 100}}, h.pty.resizes)
	h.pty.mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResizeErrors))
	assert.Equal(t, 1, h.logs.FilterMessage("pty resize failed").Len())
}

func TestDeviceStatusReplyIsNotLogged(t *testing.T) {
	h := newHarness(t, "")

	h.feed(t, "ab\x1b[6n", func() bool {
		return h.pty.output() == "\x1b[1;3R"
	})

	for _, e := range collectLog(h.s) {
		assert.Equal(t, vtlog.Output, e.Kind)
	}
}

func collectLog(s *Session) []vtlog.Entry {
	var out []vtlog.Entry
	for i := 0; i < s.LogLen(); i++ {
		e, _ := s.LogEntry(i)
		out = append(out, e)
	}
	return out
}

func TestPasteHonorsBracketedMode(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.s.Paste("plain"))
	require.NoError(t, h.s.Paste(""))
	assert.Equal(t, "plain", h.pty.output())

	h.feed(t, "\x1b[?2004h", func() bool { return h.s.Modes().BracketedPaste })

	require.NoError(t, h.s.Paste("a\nb"))
	assert.Equal(t, "plain\x1b[200~a\nb\x1b[201~", h.pty.output())
}

func TestFocusReportsOnlyWhenEnabled(t *testing.T) {
	h := newHarness(t, "")

	h.s.Focus(true)
	assert.Empty(t, h.pty.output())

	h.feed(t, "\x1b[?1004h", func() bool { return h.s.Modes().FocusInOut })
	h.s.Focus(true)
	h.s.Focus(false)
	assert.Equal(t, "\x1b[I\x1b[O", h.pty.output())
}

func TestMouseEvent(t *testing.T) {
	h := newHarness(t, "")

	assert.False(t, h.s.MouseEvent(0, 1, 1, true, false))

	h.feed(t, "\x1b[?1000h\x1b[?1006h", func() bool { return h.s.Modes().MouseSGR })
	before := h.s.LogLen()
	assert.True(t, h.s.MouseEvent(0, 3, 4, true, false))
	assert.Equal(t, "\x1b[<0;3;4M", h.pty.output())

	assert.Equal(t, before, h.s.LogLen())
	for _, e := range collectLog(h.s) {
		assert.Equal(t, vtlog.Output, e.Kind)
	}
}

func TestSendCommand(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.s.SendCommand("ls", true))
	require.NoError(t, h.s.SendCommand("pwd", false))
	assert.Equal(t, "ls\rpwd", h.pty.output())

	require.NoError(t, h.s.Close())
	assert.ErrorIs(t, h.s.SendCommand("ls", true), ErrSessionClosed)
	assert.ErrorIs(t, h.s.Paste("x"), ErrSessionClosed)
	assert.Equal(t, "ls\rpwd", h.pty.output())
}

func TestSelectedText(t *testing.T) {
	h := newHarness(t, "")
	h.feed(t, "hello world", func() bool { return h.s.Grid().VisibleText() == "hello world" })

	var sel selection.State
	_, ok := h.s.SelectedText(&sel)
	assert.False(t, ok)

	sel.Start(selection.Point{Row: 0, Col: 0})
	sel.Update(selection.Point{Row: 0, Col: 4})
	text, ok := h.s.SelectedText(&sel)
	require.True(t, ok)
	assert.Equal(t, "hello", text)

	_, ok = h.s.SelectedText(nil)
	assert.False(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.s.Close())
	require.NoError(t, h.s.Close())

	assert.Equal(t, StateClosed, h.s.State())
	assert.True(t, h.s.ProcessPendingInput().PTYClosed)
	h.pty.mu.Lock()
	assert.True(t, h.pty.closed)
	h.pty.mu.Unlock()

	select {
	case <-h.s.Done():
	default:
		t.Fatal("reader goroutine still running after Close")
	}

	closed := h.logs.FilterMessage("session state changed").FilterField(zap.Stringer("to", StateClosed))
	assert.Equal(t, 1, closed.Len())
}

func TestNotifyFiresOnOutput(t *testing.T) {
	h := newHarness(t, "")

	go func() { _, _ = h.pty.pw.Write([]byte("ping")) }()

	select {
	case <-h.s.Notify():
	case <-time.After(waitFor):
		t.Fatal("no notification for queued output")
	}
	h.pump(t, func() bool { return h.s.Grid().VisibleText() == "ping" })
}

func TestOnOutputSeesChunks(t *testing.T) {
	pr, pw := io.Pipe()
	fake := &fakePTY{pw: pw}
	var mu sync.Mutex
	var seen bytes.Buffer

	s, err := New(Options{
		Rows: 24,
		Cols: 80,
		Spawn: func(rows, cols uint16, dir string) (io.Reader, Transport, error) {
			return pr, fake, nil
		},
		OnOutput: func(b []byte) {
			mu.Lock()
			seen.Write(b)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = pw.Write([]byte("\x1b[1mraw\x1b[0m"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		s.ProcessPendingInput()
		mu.Lock()
		defer mu.Unlock()
		return seen.String() == "\x1b[1mraw\x1b[0m"
	}, waitFor, tick)
	assert.Equal(t, "raw", s.Grid().VisibleText())
}

func TestSendKeyFollowsCursorKeyMode(t *testing.T) {
	h := newHarness(t, "")

	h.s.SendKey(keybindings.KeyUp, 0)
	assert.Equal(t, "\x1b[A", h.pty.output())

	h.feed(t, "\x1b[?1h", func() bool { return h.s.Modes().AppCursorKeys })
	h.s.SendKey(keybindings.KeyUp, 0)
	assert.Equal(t, "\x1b[A\x1bOA", h.pty.output())

	h.feed(t, "\x1b[?1l", func() bool { return !h.s.Modes().AppCursorKeys })
	h.s.SendKey(keybindings.KeyLeft, keybindings.ModControl)
	assert.Equal(t, "\x1b[A\x1bOA\x1b[1;5D", h.pty.output())

	entry, ok := h.s.LogEntry(0)
	require.True(t, ok)
	assert.Equal(t, vtlog.Entry{Kind: vtlog.Input, Text: `\x1b[A`}, entry)
}

func TestSendKeyDropsUnknownKeys(t *testing.T) {
	h := newHarness(t, "")

	h.s.SendKey(keybindings.KeyUnknown, 0)
	assert.Empty(t, h.pty.output())
	assert.Equal(t, 0, h.s.LogLen())
}

func TestSendChar(t *testing.T) {
	h := newHarness(t, "")

	h.s.SendChar('c', keybindings.ModControl)
	h.s.SendChar('x', keybindings.ModAlt)
	h.s.SendChar('é', 0)
	assert.Equal(t, "\x03\x1bxé", h.pty.output())
}

// procPTY also reports on the child process.
type procPTY struct {
	*fakePTY
	dir string
}

func (p *procPTY) Pid() int           { return 4242 }
func (p *procPTY) ProcessDir() string { return p.dir }

func TestCurrentDirFallsBackToProcessDir(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pr, pw := io.Pipe()
	fake := &procPTY{fakePTY: &fakePTY{pw: pw}, dir: "/srv/app"}

	s, err := New(Options{
		Rows:   24,
		Cols:   80,
		Logger: zap.New(core),
		Spawn: func(rows, cols uint16, dir string) (io.Reader, Transport, error) {
			return pr, fake, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "/srv/app", s.CurrentDir())
	spawned := logs.FilterMessage("pty spawned").All()
	require.Len(t, spawned, 1)
	assert.Equal(t, int64(4242), spawned[0].ContextMap()["pid"])

	_, err = pw.Write([]byte("\x1b]633;CWD=/tmp/announced\x07"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		s.ProcessPendingInput()
		return s.CurrentDir() == "/tmp/announced"
	}, waitFor, tick)
}
