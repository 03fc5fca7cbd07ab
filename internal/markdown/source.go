package markdown

import (
	"sort"

	"github.com/yuin/goldmark/ast"
)

// Position is a 1-based line and byte column in the source text.
type Position struct {
	Line   int
	Column int
}

// Range spans Start up to, not including, End.
type Range struct {
	Start Position
	End   Position
}

// lineStarts returns the byte offset of each line start.
func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// NodeRange reports the source range covered by a block node's lines,
// descending into children for container blocks. Trailing whitespace is
// not part of the range.
func NodeRange(n ast.Node, src []byte) (Range, bool) {
	start, stop, ok := byteSpan(n)
	if !ok {
		return Range{}, false
	}
	for stop > start && isSpace(src[stop-1]) {
		stop--
	}
	starts := lineStarts(src)
	return Range{Start: position(starts, start), End: position(starts, stop)}, true
}

func byteSpan(n ast.Node) (start, stop int, ok bool) {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, lines.At(lines.Len() - 1).Stop, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s, e, found := byteSpan(c)
		if !found {
			continue
		}
		if !ok || s < start {
			start = s
		}
		if !ok || e > stop {
			stop = e
		}
		ok = true
	}
	return start, stop, ok
}

func position(starts []int, off int) Position {
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > off })
	return Position{Line: line, Column: off - starts[line-1] + 1}
}

// Slice maps r back onto src. Positions outside the text are clamped to the
// nearest valid offset; an inverted range yields "".
func Slice(src string, r Range) string {
	starts := lineStarts([]byte(src))
	start := offset(src, starts, r.Start)
	end := offset(src, starts, r.End)
	if start >= end {
		return ""
	}
	return src[start:end]
}

func offset(src string, starts []int, p Position) int {
	if p.Line < 1 {
		return 0
	}
	if p.Line > len(starts) {
		return len(src)
	}
	lineStart := starts[p.Line-1]
	lineEnd := len(src)
	if p.Line < len(starts) {
		lineEnd = starts[p.Line] - 1
	}
	col := p.Column - 1
	if col < 0 {
		col = 0
	}
	if col > lineEnd-lineStart {
		col = lineEnd - lineStart
	}
	return lineStart + col
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
