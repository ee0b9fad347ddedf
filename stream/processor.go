// Package stream routes PTY output chunks to the decoder, the directory
// tracker and the session log.
package stream

import (
	"github.com/javanhut/ravencore/parser"
	"github.com/javanhut/ravencore/vtlog"
	"github.com/javanhut/ravencore/workdir"
)

// Processor owns the three consumers of a session's output. It is not safe
// for concurrent use.
type Processor struct {
	term *parser.Terminal
	dir  *workdir.Tracker
	log  *vtlog.Log
}

// New wires a processor around existing consumers.
func New(term *parser.Terminal, dir *workdir.Tracker, log *vtlog.Log) *Processor {
	return &Processor{term: term, dir: dir, log: log}
}

// Advance feeds one chunk to every consumer. Chunks may split escape
// sequences, UTF-8 runes and directory notifications anywhere. It reports
// whether the tracked directory changed.
func (p *Processor) Advance(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	changed := p.dir.Scan(chunk)
	p.log.AppendOutput(chunk)
	p.term.Process(chunk)
	return changed
}

// Terminal returns the decoder.
func (p *Processor) Terminal() *parser.Terminal { return p.term }

// Tracker returns the directory tracker.
func (p *Processor) Tracker() *workdir.Tracker { return p.dir }

// Log returns the session log.
func (p *Processor) Log() *vtlog.Log { return p.log }
