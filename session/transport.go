package session

import (
	"io"

	"go.uber.org/zap"

	"github.com/javanhut/ravencore/config"
	"github.com/javanhut/ravencore/shell"
)

// Transport is the shared write half of a PTY.
type Transport interface {
	io.Writer
	Resize(rows, cols uint16) error
	// IsAlive must not block.
	IsAlive() bool
	// Close must make any pending Read on the matching reader return.
	Close() error
}

// processInfo is implemented by transports that can report on the child
// process itself.
type processInfo interface {
	Pid() int
	ProcessDir() string
}

// Spawner starts a child on a PTY and hands back its read half, which the
// session gives to its reader goroutine, and its write half.
type Spawner func(rows, cols uint16, dir string) (io.Reader, Transport, error)

// ShellSpawner spawns the configured shell.
func ShellSpawner(cfg config.ShellConfig, logger *zap.Logger) Spawner {
	return func(rows, cols uint16, dir string) (io.Reader, Transport, error) {
		r, w, err := shell.Spawn(shell.Options{
			Rows:   rows,
			Cols:   cols,
			Dir:    dir,
			Shell:  cfg,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, w, nil
	}
}
