// Package workdir extracts working-directory notifications that the shell
// integration script embeds in the PTY output stream.
package workdir

import (
	"bytes"
	"strings"
)

// Marker opens a notification: ESC ] 633 ; CWD = <path> followed by BEL or ESC \.
const Marker = "\x1b]633;CWD="

// maxPayload bounds how long a notification may stay unterminated before the
// marker is given up on.
const maxPayload = 4096

var (
	marker   = []byte(Marker)
	bel      = []byte{0x07}
	stringST = []byte{0x1b, '\\'}
)

// Tracker remembers the most recent directory announced in the stream. It
// keeps just enough unconsumed bytes between calls to finish a notification
// that was split across reads.
type Tracker struct {
	pending []byte
	current string
}

// NewTracker returns a tracker whose value starts as initial.
func NewTracker(initial string) *Tracker {
	return &Tracker{current: initial}
}

// Current returns the last directory seen.
func (t *Tracker) Current() string {
	return t.current
}

// Scan consumes a chunk of output and reports whether the directory changed.
func (t *Tracker) Scan(chunk []byte) bool {
	t.pending = append(t.pending, chunk...)
	changed := false

	for {
		start := bytes.Index(t.pending, marker)
		if start < 0 {
			t.keepMarkerPrefix()
			return changed
		}

		body := t.pending[start+len(marker):]
		end, termLen := findTerminator(body)
		if end < 0 {
			if len(body) > maxPayload {
				t.pending = append(t.pending[:0], t.pending[start+1:]...)
				continue
			}
			t.pending = append(t.pending[:0], t.pending[start:]...)
			return changed
		}

		if end > 0 {
			dir := strings.ToValidUTF8(string(body[:end]), "�")
			if dir != t.current {
				changed = true
			}
			t.current = dir
		}
		t.pending = append(t.pending[:0], body[end+termLen:]...)
	}
}

// keepMarkerPrefix drops everything except the longest suffix of pending
// that could still grow into the marker.
func (t *Tracker) keepMarkerPrefix() {
	keep := 0
	for n := min(len(t.pending), len(marker)-1); n > 0; n-- {
		if bytes.HasPrefix(marker, t.pending[len(t.pending)-n:]) {
			keep = n
			break
		}
	}
	t.pending = append(t.pending[:0], t.pending[len(t.pending)-keep:]...)
}

// findTerminator returns the offset of the first BEL or ESC \ in b and the
// terminator's length, or -1 when neither is present yet.
func findTerminator(b []byte) (int, int) {
	belAt := bytes.Index(b, bel)
	stAt := bytes.Index(b, stringST)
	switch {
	case belAt < 0 && stAt < 0:
		return -1, 0
	case stAt < 0 || (belAt >= 0 && belAt < stAt):
		return belAt, len(bel)
	default:
		return stAt, len(stringST)
	}
}
