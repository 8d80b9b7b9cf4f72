// Package position provides source position and span tracking shared by
// every phase of the AegisCC pipeline, from lexing through diagnostics.
package position

import (
	"fmt"
	"path/filepath"
)

// Position is a single point in a source file.
type Position struct {
	Filename string // source file name
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Offset   int    // 0-based byte offset
}

// IsValid reports whether p refers to a real location.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before other in the same file.
func (p Position) Before(other Position) bool { return p.Offset < other.Offset }

// Span is a half-open byte range [Start, End) in one source file.
type Span struct {
	Start Position
	End   Position
}

// IsValid reports whether s is a well-formed, non-negative-length span.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() &&
		s.Start.Filename == s.End.Filename &&
		s.Start.Offset <= s.End.Offset
}

func (s Span) String() string {
	filename := ""
	if s.Start.Filename != "" {
		filename = filepath.Base(s.Start.Filename) + ":"
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s%d:%d-%d", filename, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s%d:%d-%d:%d", filename, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	start := s.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := s.End
	if end.Before(other.End) {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// File holds source text plus byte-offset<->line/column conversion.
type File struct {
	Name    string
	Content string
	// lineStarts[i] is the byte offset of the first byte of line i+1.
	lineStarts []int
}

// NewFile indexes content's line starts for fast offset<->position lookup.
func NewFile(name, content string) *File {
	f := &File{Name: name, Content: content, lineStarts: []int{0}}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// PositionAt converts a byte offset into a Position within f.
func (f *File) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	// binary search for the line containing offset
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo + 1
	col := offset - f.lineStarts[lo] + 1
	return Position{Filename: f.Name, Line: line, Column: col, Offset: offset}
}

// Text returns the substring of f covered by span.
func (f *File) Text(span Span) string {
	if !span.IsValid() || span.Start.Offset > len(f.Content) || span.End.Offset > len(f.Content) {
		return ""
	}
	return f.Content[span.Start.Offset:span.End.Offset]
}

// Line returns the 1-based source line, without its trailing newline.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := len(f.Content)
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	if end > len(f.Content) {
		end = len(f.Content)
	}
	if start > end {
		return ""
	}
	return f.Content[start:end]
}
