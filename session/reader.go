package session

import (
	"errors"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/javanhut/ravencore/metrics"
)

// mailbox carries chunks from the reader goroutine to the session owner.
// It never blocks the producer and never grows a bound.
type mailbox struct {
	mu     sync.Mutex
	chunks [][]byte
	closed bool
	err    error
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) push(chunk []byte) {
	m.mu.Lock()
	m.chunks = append(m.chunks, chunk)
	m.mu.Unlock()
	m.wake()
}

func (m *mailbox) close(err error) {
	m.mu.Lock()
	m.closed = true
	m.err = err
	m.mu.Unlock()
	m.wake()
}

// drain takes everything queued so far along with the disconnect state.
func (m *mailbox) drain() (chunks [][]byte, closed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks, m.chunks = m.chunks, nil
	return chunks, m.closed, m.err
}

// readLoop is the only code that touches r. It exits on the first error or
// empty read and reports why through box.
func readLoop(r io.Reader, bufSize int, box *mailbox, m *metrics.Metrics, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, bufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.BytesRead.Add(float64(n))
			m.ChunksRead.Inc()
			box.push(chunk)
		}
		if err != nil {
			box.close(err)
			return
		}
		if n == 0 {
			box.close(io.EOF)
			return
		}
	}
}

// normalClose reports whether a reader error means the child went away
// rather than the transport failing.
func normalClose(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EIO)
}
