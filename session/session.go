// Package session ties a PTY, its reader goroutine and the output consumers
// together behind the operations a terminal front end needs.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javanhut/ravencore/config"
	"github.com/javanhut/ravencore/grid"
	"github.com/javanhut/ravencore/keybindings"
	"github.com/javanhut/ravencore/logging"
	"github.com/javanhut/ravencore/metrics"
	"github.com/javanhut/ravencore/parser"
	"github.com/javanhut/ravencore/selection"
	"github.com/javanhut/ravencore/stream"
	"github.com/javanhut/ravencore/vtlog"
	"github.com/javanhut/ravencore/workdir"
)

var (
	// ErrSessionClosed is returned by operations that need a connected PTY.
	ErrSessionClosed = errors.New("session closed")
	// ErrInvalidSize is returned when a session is created with zero rows or columns.
	ErrInvalidSize = errors.New("invalid terminal size")
)

// State is the lifecycle position of a session.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result summarizes one ProcessPendingInput call.
type Result struct {
	HadInput  bool
	PTYClosed bool
}

// Options configures New. Zero values pick the defaults.
type Options struct {
	Rows     uint16
	Cols     uint16
	Dir      string
	Terminal config.TerminalConfig
	Spawn    Spawner
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	// OnOutput, when set, sees every chunk after it has been applied.
	OnOutput func([]byte)
}

// Session is one PTY-backed terminal.
type Session struct {
	id      string
	logger  *zap.Logger
	metrics *metrics.Metrics

	writer   Transport
	box      *mailbox
	done     chan struct{}
	onOutput func([]byte)

	mu           sync.Mutex
	state        State
	term         *parser.Terminal
	proc         *stream.Processor
	log          *vtlog.Log
	logDropped   uint64
	replies      [][]byte
	selectionMax int

	closeOnce sync.Once
	closeErr  error
}

func withDefaults(t config.TerminalConfig) config.TerminalConfig {
	def := config.DefaultConfig().Terminal
	if t.Scrollback == 0 {
		t.Scrollback = def.Scrollback
	}
	if t.ReadBuffer <= 0 {
		t.ReadBuffer = def.ReadBuffer
	}
	if t.LogMaxEntries <= 0 {
		t.LogMaxEntries = def.LogMaxEntries
	}
	if t.SelectionMaxBytes <= 0 {
		t.SelectionMaxBytes = def.SelectionMaxBytes
	}
	return t
}

// New spawns a PTY of rows x cols in dir and starts its reader goroutine.
// A spawn failure is returned and no session exists.
func New(opts Options) (*Session, error) {
	if opts.Rows == 0 || opts.Cols == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Cols, opts.Rows)
	}
	logger := logging.OrNop(opts.Logger)
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	spawn := opts.Spawn
	if spawn == nil {
		spawn = ShellSpawner(config.DefaultConfig().Shell, logger)
	}
	tc := withDefaults(opts.Terminal)

	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))
	logger.Debug("spawning pty",
		zap.Uint16("rows", opts.Rows),
		zap.Uint16("cols", opts.Cols),
		zap.String("dir", opts.Dir))

	r, w, err := spawn(opts.Rows, opts.Cols, opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("spawn pty: %w", err)
	}

	if info, ok := w.(processInfo); ok {
		logger.Debug("pty spawned", zap.Int("pid", info.Pid()))
	}

	term := parser.NewTerminal(int(opts.Cols), int(opts.Rows), tc.Scrollback)
	log := vtlog.New(tc.LogMaxEntries)
	s := &Session{
		id:           id,
		logger:       logger,
		metrics:      m,
		writer:       w,
		box:          newMailbox(),
		done:         make(chan struct{}),
		onOutput:     opts.OnOutput,
		state:        StateConnecting,
		term:         term,
		proc:         stream.New(term, workdir.NewTracker(opts.Dir), log),
		log:          log,
		selectionMax: tc.SelectionMaxBytes,
	}
	term.SetResponseWriter(func(b []byte) {
		s.replies = append(s.replies, append([]byte(nil), b...))
	})

	go readLoop(r, tc.ReadBuffer, s.box, m, s.done)

	s.mu.Lock()
	s.setStateLocked(StateOpen, nil)
	s.mu.Unlock()
	return s, nil
}

// setStateLocked moves the state machine forward. Nothing leaves Closed or
// Failed.
func (s *Session) setStateLocked(next State, cause error) {
	if s.state == next || s.state == StateClosed || s.state == StateFailed {
		return
	}
	prev := s.state
	s.state = next

	switch {
	case next == StateOpen:
		s.metrics.SessionsOpen.Inc()
	case prev == StateOpen:
		s.metrics.SessionsOpen.Dec()
		s.metrics.SessionsClosed.WithLabelValues(next.String()).Inc()
	}

	fields := []zap.Field{zap.Stringer("from", prev), zap.Stringer("to", next)}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	s.logger.Info("session state changed", fields...)
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Notify receives a value whenever the reader goroutine has queued output
// or disconnected. It lets callers wait instead of polling
// ProcessPendingInput.
func (s *Session) Notify() <-chan struct{} {
	return s.box.notify
}

// ProcessPendingInput applies every chunk the reader goroutine has queued.
// It never blocks on the PTY. PTYClosed stays true on every call once the
// disconnect has been seen.
func (s *Session) ProcessPendingInput() Result {
	chunks, disconnected, readErr := s.box.drain()

	s.mu.Lock()
	var res Result
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		res.HadInput = true
		if s.proc.Advance(chunk) {
			s.logger.Debug("working directory changed", zap.String("dir", s.proc.Tracker().Current()))
		}
	}
	if dropped := s.log.Dropped(); dropped > s.logDropped {
		s.metrics.LogDropped.Add(float64(dropped - s.logDropped))
		s.logDropped = dropped
	}

	if disconnected && s.state == StateOpen {
		if normalClose(readErr) {
			s.logger.Debug("pty reader finished", zap.Error(readErr))
			s.setStateLocked(StateClosed, nil)
		} else {
			s.setStateLocked(StateFailed, readErr)
		}
	}
	res.PTYClosed = s.state == StateClosed || s.state == StateFailed
	replies := s.replies
	s.replies = nil
	s.mu.Unlock()

	for _, reply := range replies {
		s.write(reply)
	}
	if s.onOutput != nil {
		for _, chunk := range chunks {
			s.onOutput(chunk)
		}
	}
	return res
}

// write sends bytes to the PTY, logging and counting failures.
func (s *Session) write(data []byte) {
	n, err := s.writer.Write(data)
	s.metrics.BytesWritten.Add(float64(n))
	if err != nil {
		s.metrics.WriteErrors.Inc()
		s.logger.Warn("pty write failed", zap.Int("bytes", len(data)), zap.Error(err))
	}
}

// WriteToPTY records data in the session log and sends it to the child.
// Failures are logged and otherwise ignored.
func (s *Session) WriteToPTY(data []byte) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	s.log.AppendInput(data)
	s.mu.Unlock()
	s.write(data)
}

// Resize changes the grid and the PTY window size. A zero dimension is
// ignored. PTY failures are logged and otherwise ignored.
func (s *Session) Resize(rows, cols uint16) {
	if rows == 0 || cols == 0 {
		s.logger.Debug("ignoring empty resize", zap.Uint16("rows", rows), zap.Uint16("cols", cols))
		return
	}
	s.mu.Lock()
	changed := s.term.Resize(int(cols), int(rows))
	s.mu.Unlock()
	if !changed {
		return
	}
	if err := s.writer.Resize(rows, cols); err != nil {
		s.metrics.ResizeErrors.Inc()
		s.logger.Warn("pty resize failed", zap.Uint16("rows", rows), zap.Uint16("cols", cols), zap.Error(err))
	}
}

// IsAlive asks the transport whether the child is still running. A dead
// child moves an open session to Closed.
func (s *Session) IsAlive() bool {
	alive := s.writer.IsAlive()
	if !alive {
		s.mu.Lock()
		if s.state == StateOpen {
			s.setStateLocked(StateClosed, nil)
		}
		s.mu.Unlock()
	}
	return alive
}

func (s *Session) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateOpen
}

// Paste sends text, wrapped in bracketed-paste markers when the
// application asked for them.
func (s *Session) Paste(text string) error {
	if !s.open() {
		return ErrSessionClosed
	}
	if text == "" {
		return nil
	}
	if s.Modes().BracketedPaste {
		text = "\x1b[200~" + text + "\x1b[201~"
	}
	s.WriteToPTY([]byte(text))
	return nil
}

// Focus reports a focus change when focus reporting is enabled.
func (s *Session) Focus(focused bool) {
	if !s.Modes().FocusInOut {
		return
	}
	if focused {
		s.WriteToPTY([]byte("\x1b[I"))
	} else {
		s.WriteToPTY([]byte("\x1b[O"))
	}
}

// SendCommand types text into the shell and, when execute is set, presses
// Enter.
func (s *Session) SendCommand(text string, execute bool) error {
	if !s.open() {
		return ErrSessionClosed
	}
	if execute {
		text += "\r"
	}
	s.WriteToPTY([]byte(text))
	return nil
}

// SendKey encodes a special key for the current cursor-key mode and writes
// it. Keys with no encoding are dropped.
func (s *Session) SendKey(key keybindings.Key, mods keybindings.ModifierKey) {
	s.WriteToPTY(keybindings.TranslateKey(key, mods, s.Modes().AppCursorKeys))
}

// SendChar writes a typed character with Ctrl and Alt applied.
func (s *Session) SendChar(r rune, mods keybindings.ModifierKey) {
	s.WriteToPTY(keybindings.TranslateChar(r, mods))
}

// MouseEvent forwards a mouse report when the application tracks the mouse.
// It reports whether anything was sent.
func (s *Session) MouseEvent(button, x, y int, pressed, motion bool) bool {
	seq := s.term.EncodeMouseEvent(button, x, y, pressed, motion)
	if seq == nil {
		return false
	}
	s.write(seq)
	return true
}

// Rows returns the number of visible lines.
func (s *Session) Rows() int { return s.term.Grid().Rows() }

// Cols returns the number of columns.
func (s *Session) Cols() int { return s.term.Grid().Columns() }

// Grid returns the active screen. Callers must only read from it.
func (s *Session) Grid() *grid.Grid { return s.term.Grid() }

// Modes returns the terminal modes.
func (s *Session) Modes() parser.Modes { return s.term.Modes() }

// Cursor returns the cursor position and shape.
func (s *Session) Cursor() parser.CursorState { return s.term.Cursor() }

// Title returns the window title set by the application.
func (s *Session) Title() string { return s.term.Title() }

// CurrentDir returns the last directory the shell announced. Until the shell
// has announced one and when no start directory was given, it asks the
// transport for the child's directory.
func (s *Session) CurrentDir() string {
	s.mu.Lock()
	dir := s.proc.Tracker().Current()
	s.mu.Unlock()
	if dir != "" {
		return dir
	}
	if info, ok := s.writer.(processInfo); ok {
		return info.ProcessDir()
	}
	return ""
}

// LogLen returns the number of session log entries.
func (s *Session) LogLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

// LogEntry returns a session log entry, oldest first.
func (s *Session) LogEntry(index int) (vtlog.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entry(index)
}

// SelectedText extracts the text under sel from the active screen.
func (s *Session) SelectedText(sel *selection.State) (string, bool) {
	if sel == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sel.Text(s.term.Grid(), s.selectionMax)
}

// Close tears down the PTY and waits for the reader goroutine to finish.
// Later calls return the first call's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.writer.Close()
		<-s.done
		s.mu.Lock()
		s.setStateLocked(StateClosed, nil)
		s.mu.Unlock()
	})
	return s.closeErr
}

// Done is closed once the reader goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
