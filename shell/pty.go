// Package shell spawns the user's shell on a pseudo-terminal and splits the
// PTY into a single-owner read half and a shared, locked write half.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/javanhut/ravencore/config"
	"github.com/javanhut/ravencore/logging"
)

// Options describes the shell to start.
type Options struct {
	Rows   uint16
	Cols   uint16
	Dir    string
	Shell  config.ShellConfig
	Logger *zap.Logger
}

// Reader is the read half of a PTY. It must be owned by exactly one goroutine.
type Reader struct {
	f *os.File
}

// Read reads from the PTY. The EIO Linux reports once the child side has
// gone away is returned as io.EOF.
func (r *Reader) Read(buf []byte) (int, error) {
	n, err := r.f.Read(buf)
	if err != nil && errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}

// Writer is the write and resize half of a PTY. All methods are safe for
// concurrent use.
type Writer struct {
	mu     sync.Mutex
	pty    *os.File
	cmd    *exec.Cmd
	exited chan struct{}
	closed bool
}

// Spawn starts a shell attached to a new PTY of the requested size.
func Spawn(opts Options) (*Reader, *Writer, error) {
	log := logging.OrNop(opts.Logger)

	shellPath, err := FindShell(opts.Shell)
	if err != nil {
		return nil, nil, err
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, nil, fmt.Errorf("look up current user: %w", err)
	}

	hook, err := newIntegration(shellPath, opts.Shell)
	if err != nil {
		// Non-fatal, the shell just won't report its directory
		log.Warn("shell integration unavailable", zap.String("shell", shellPath), zap.Error(err))
		hook = plainIntegration(opts.Shell)
	}

	cmd := exec.Command(shellPath, hook.args...)
	// Create new session
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	cmd.Dir = startDir(opts.Dir, currentUser.HomeDir)
	cmd.Env = replaceEnv(buildEnv(os.Environ(), shellPath, currentUser, opts, hook.env), "PWD", cmd.Dir)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: opts.Cols,
		Rows: opts.Rows,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", shellPath, err)
	}

	w := &Writer{
		pty:    ptmx,
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	// Monitor for process exit
	go func() {
		err := cmd.Wait()
		log.Debug("shell exited", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		close(w.exited)
	}()

	log.Debug("shell started",
		zap.String("shell", shellPath),
		zap.Strings("args", hook.args),
		zap.String("dir", cmd.Dir),
		zap.Int("pid", cmd.Process.Pid))

	return &Reader{f: ptmx}, w, nil
}

func buildEnv(base []string, shellPath string, u *user.User, opts Options, extra map[string]string) []string {
	// XDG runtime directory
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		xdgRuntimeDir = "/run/user/" + u.Uid
	}

	env := append([]string(nil), base...)
	env = replaceEnv(env, "TERM", "xterm-256color")
	env = replaceEnv(env, "COLORTERM", "truecolor")
	env = replaceEnv(env, "TERM_PROGRAM", "ravencore")
	env = replaceEnv(env, "HOME", u.HomeDir)
	env = replaceEnv(env, "USER", u.Username)
	env = replaceEnv(env, "SHELL", shellPath)
	env = replaceEnv(env, "COLUMNS", strconv.Itoa(int(opts.Cols)))
	env = replaceEnv(env, "LINES", strconv.Itoa(int(opts.Rows)))
	env = replaceEnv(env, "XDG_RUNTIME_DIR", xdgRuntimeDir)
	if os.Getenv("LANG") == "" {
		env = replaceEnv(env, "LANG", "en_US.UTF-8")
	}
	for k, v := range extra {
		env = replaceEnv(env, k, v)
	}
	for k, v := range opts.Shell.AdditionalEnv {
		env = replaceEnv(env, k, v)
	}
	return env
}

func replaceEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			env = append(env[:i], env[i+1:]...)
		}
	}
	return append(env, prefix+value)
}

func startDir(dir, home string) string {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return home
}

// Write writes all of data to the PTY.
func (w *Writer) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.pty.Write(data)
}

// Resize resizes the PTY
func (w *Writer) Resize(rows, cols uint16) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return os.ErrClosed
	}
	return pty.Setsize(w.pty, &pty.Winsize{
		Cols: cols,
		Rows: rows,
	})
}

// IsAlive reports whether the shell process is still running. It never
// blocks.
func (w *Writer) IsAlive() bool {
	select {
	case <-w.exited:
		return false
	default:
		return true
	}
}

// Exited is closed once the shell process has been reaped.
func (w *Writer) Exited() <-chan struct{} {
	return w.exited
}

// Pid returns the shell's process id.
func (w *Writer) Pid() int {
	return w.cmd.Process.Pid
}

// ProcessDir returns the shell's working directory as the kernel sees it,
// or "" where /proc is unavailable.
func (w *Writer) ProcessDir() string {
	path, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", w.cmd.Process.Pid))
	if err != nil {
		return ""
	}
	return path
}

// Close kills the shell and closes the PTY, which ends any blocked Read on
// the matching Reader. Calling Close again is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.cmd.Process != nil && w.IsAlive() {
		_ = w.cmd.Process.Kill()
	}
	return w.pty.Close()
}
