// Package vtlog keeps a bounded, human-readable transcript of the bytes that
// crossed a PTY in both directions.
package vtlog

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxEntries is the transcript length used when none is configured.
const DefaultMaxEntries = 2000

// Kind tells which direction an entry travelled.
type Kind int

const (
	Output Kind = iota
	Input
)

func (k Kind) String() string {
	if k == Input {
		return "input"
	}
	return "output"
}

// Entry is one transcript line with control bytes already escaped.
type Entry struct {
	Kind Kind
	Text string
}

// Log is a FIFO of at most max entries plus the output line still being
// received. It is not safe for concurrent use.
type Log struct {
	entries []Entry
	head    int
	size    int
	dropped uint64

	pending strings.Builder
}

// New returns a log holding at most maxEntries completed entries.
func New(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{entries: make([]Entry, maxEntries)}
}

// Len counts completed entries plus the pending output line, if any.
func (l *Log) Len() int {
	if l.pending.Len() > 0 {
		return l.size + 1
	}
	return l.size
}

// Entry returns the entry at index, oldest first. Index Len()-1 is the
// pending output line when one exists.
func (l *Log) Entry(index int) (Entry, bool) {
	if index < 0 {
		return Entry{}, false
	}
	if index < l.size {
		return l.entries[(l.head+index)%len(l.entries)], true
	}
	if index == l.size && l.pending.Len() > 0 {
		return Entry{Kind: Output, Text: l.pending.String()}, true
	}
	return Entry{}, false
}

// Entries returns a copy of everything Entry can reach.
func (l *Log) Entries() []Entry {
	out := make([]Entry, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		e, _ := l.Entry(i)
		out = append(out, e)
	}
	return out
}

// Dropped returns how many entries have been evicted so far.
func (l *Log) Dropped() uint64 {
	return l.dropped
}

func (l *Log) push(e Entry) {
	if l.size == len(l.entries) {
		l.entries[l.head] = e
		l.head = (l.head + 1) % len(l.entries)
		l.dropped++
		return
	}
	l.entries[(l.head+l.size)%len(l.entries)] = e
	l.size++
}

func (l *Log) flush() {
	l.push(Entry{Kind: Output, Text: l.pending.String()})
	l.pending.Reset()
}

// AppendOutput adds a chunk of PTY output. Each line feed completes the
// pending line. A chunk that is valid UTF-8 is escaped per character;
// otherwise it is escaped per byte.
func (l *Log) AppendOutput(chunk []byte) {
	if utf8.Valid(chunk) {
		for _, r := range string(chunk) {
			l.appendRune(r)
		}
		return
	}
	for _, b := range chunk {
		if b == '\n' {
			l.pending.WriteString(`\n`)
			l.flush()
			continue
		}
		writeEscapedByte(&l.pending, b)
	}
}

func (l *Log) appendRune(r rune) {
	switch r {
	case '\n':
		l.pending.WriteString(`\n`)
		l.flush()
	case '\r':
		l.pending.WriteString(`\r`)
	case '\t':
		l.pending.WriteString(`\t`)
	case 0x1b:
		l.pending.WriteString(`\x1b`)
	default:
		if unicode.IsControl(r) {
			fmt.Fprintf(&l.pending, `\u{%04X}`, r)
			return
		}
		l.pending.WriteRune(r)
	}
}

// AppendInput records one write to the PTY as a single entry.
func (l *Log) AppendInput(data []byte) {
	l.push(Entry{Kind: Input, Text: EscapeBytes(data)})
}

// EscapeBytes renders data with printable ASCII kept and every other byte
// spelled as an escape.
func EscapeBytes(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c == '\n' {
			b.WriteString(`\n`)
			continue
		}
		writeEscapedByte(&b, c)
	}
	return b.String()
}

func writeEscapedByte(b *strings.Builder, c byte) {
	switch {
	case c == '\r':
		b.WriteString(`\r`)
	case c == '\t':
		b.WriteString(`\t`)
	case c == 0x1b:
		b.WriteString(`\x1b`)
	case c >= 0x20 && c <= 0x7e:
		b.WriteByte(c)
	default:
		fmt.Fprintf(b, `\x%02X`, c)
	}
}
