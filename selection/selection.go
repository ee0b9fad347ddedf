// Package selection tracks a mouse selection over absolute grid rows and
// turns it into copyable text.
package selection

import (
	"strings"
	"unicode/utf8"

	"github.com/javanhut/ravencore/grid"
)

// DefaultMaxBytes caps the text a single copy may produce.
const DefaultMaxBytes = 2 * 1024 * 1024

// Point is an absolute grid position: row 0 is the oldest scrollback line.
type Point struct {
	Row int
	Col int
}

// Less orders points row-major.
func (p Point) Less(o Point) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

// State is an anchor/focus selection. The zero value is an empty selection.
type State struct {
	anchor   Point
	focus    Point
	set      bool
	dragging bool
}

// Start anchors a new selection at p and begins dragging.
func (s *State) Start(p Point) {
	s.anchor = p
	s.focus = p
	s.set = true
	s.dragging = true
}

// Update moves the focus. It does nothing until Start has been called.
func (s *State) Update(p Point) {
	if !s.set {
		return
	}
	s.focus = p
}

// StopDragging ends the drag but keeps the range.
func (s *State) StopDragging() {
	s.dragging = false
}

// Clear empties the selection.
func (s *State) Clear() {
	*s = State{}
}

// Dragging reports whether a drag is in progress.
func (s *State) Dragging() bool {
	return s.dragging
}

// Normalized returns the range with start <= end.
func (s *State) Normalized() (start, end Point, ok bool) {
	if !s.set {
		return Point{}, Point{}, false
	}
	if s.focus.Less(s.anchor) {
		return s.focus, s.anchor, true
	}
	return s.anchor, s.focus, true
}

// HasSelection reports whether the range covers more than a single point.
func (s *State) HasSelection() bool {
	start, end, ok := s.Normalized()
	return ok && start != end
}

// Contains reports whether p falls inside the selected range. Interior rows
// are selected across their full width.
func (s *State) Contains(p Point) bool {
	start, end, ok := s.Normalized()
	if !ok || p.Row < start.Row || p.Row > end.Row {
		return false
	}
	if start.Row == end.Row {
		return p.Col >= start.Col && p.Col <= end.Col
	}
	if p.Row == start.Row {
		return p.Col >= start.Col
	}
	if p.Row == end.Row {
		return p.Col <= end.Col
	}
	return true
}

// Source is the read-only grid surface text extraction needs. *grid.Grid
// satisfies it.
type Source interface {
	TotalLines() int
	Columns() int
	RowCell(row, col int) grid.Cell
}

// Text extracts the selected text from src. Each row is right-trimmed, rows
// are joined with '\n' and the output never exceeds maxBytes; when it would,
// the text stops at the last complete trimmed content that fits. The result
// is false when nothing is selected or nothing non-empty was extracted.
func (s *State) Text(src Source, maxBytes int) (string, bool) {
	if !s.HasSelection() {
		return "", false
	}
	start, end, _ := s.Normalized()
	return Extract(src, start, end, maxBytes)
}

// Extract copies the text between start and end inclusive.
func Extract(src Source, start, end Point, maxBytes int) (string, bool) {
	if start == end {
		return "", false
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	total := src.TotalLines()
	cols := src.Columns()
	if total == 0 || cols == 0 || start.Row < 0 || start.Row >= total {
		return "", false
	}

	lastRow := min(end.Row, total-1)
	var out strings.Builder
	out.Grow(min((lastRow-start.Row+1)*(cols+1), maxBytes))

rows:
	for row := start.Row; row <= lastRow; row++ {
		if out.Len() >= maxBytes {
			break
		}
		from := 0
		if row == start.Row {
			from = max(start.Col, 0)
		}
		to := cols - 1
		if row == lastRow {
			to = min(end.Col, cols-1)
		}
		if from > to {
			continue
		}

		var line []byte
		nonSpace := 0
		for col := from; col <= to; col++ {
			cell := src.RowCell(row, col)
			if cell.IsSpacer() {
				continue
			}
			ch := cell.Char
			if ch == 0 {
				ch = ' '
			}
			if out.Len()+len(line)+utf8.RuneLen(ch) > maxBytes {
				out.Write(line[:nonSpace])
				break rows
			}
			line = utf8.AppendRune(line, ch)
			if ch != ' ' {
				nonSpace = len(line)
			}
		}
		out.Write(line[:nonSpace])

		if row != lastRow {
			if out.Len()+1 > maxBytes {
				break
			}
			out.WriteByte('\n')
		}
	}

	if out.Len() == 0 {
		return "", false
	}
	return out.String(), true
}
