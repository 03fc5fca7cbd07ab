package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"
)

// StripToPlainText returns the text content of a markdown document without
// markup. Paragraphs and headings after the first block are separated by a
// blank line, code blocks end with a newline, soft breaks become spaces and
// hard breaks newlines.
func StripToPlainText(src string) string {
	doc := Parse(src)
	w := &plainWriter{src: doc.Source}
	w.visit(doc.Root)
	return strings.TrimSpace(w.sb.String())
}

type plainWriter struct {
	src []byte
	sb  strings.Builder
}

func (w *plainWriter) separate(sep string) {
	if w.sb.Len() > 0 {
		w.sb.WriteString(sep)
	}
}

func (w *plainWriter) visit(n ast.Node) {
	switch x := n.(type) {
	case *ast.Text:
		w.sb.WriteString(Unescape(string(x.Segment.Value(w.src))))
		switch {
		case x.HardLineBreak():
			w.sb.WriteByte('\n')
		case x.SoftLineBreak():
			w.sb.WriteByte(' ')
		}
		return
	case *ast.String:
		w.sb.Write(x.Value)
		return
	case *ast.CodeSpan:
		for c := x.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				w.sb.Write(t.Segment.Value(w.src))
			}
		}
		return
	case *ast.AutoLink:
		w.sb.Write(x.Label(w.src))
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.separate("\n")
		w.sb.WriteString(BlockText(n, w.src))
		w.sb.WriteByte('\n')
		return
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		w.separate("\n\n")
	case *east.Table:
		w.separate("\n\n")
		w.table(x)
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.visit(c)
	}
}

// table writes one line per row with cells separated by " | ".
func (w *plainWriter) table(t *east.Table) {
	first := true
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		if !first {
			w.sb.WriteByte('\n')
		}
		first = false
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if cell != row.FirstChild() {
				w.sb.WriteString(" | ")
			}
			for c := cell.FirstChild(); c != nil; c = c.NextSibling() {
				w.visit(c)
			}
		}
	}
}

// FirstParagraph returns the exact source text of the first top-level
// paragraph, or "" if the document has none.
func FirstParagraph(src string) string {
	doc := Parse(src)
	for n := doc.Root.FirstChild(); n != nil; n = n.NextSibling() {
		if _, ok := n.(*ast.Paragraph); !ok {
			continue
		}
		r, ok := NodeRange(n, doc.Source)
		if !ok {
			return ""
		}
		return Slice(src, r)
	}
	return ""
}

// BlockText concatenates the raw lines of a block node.
func BlockText(n ast.Node, src []byte) string {
	lines := n.Lines()
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

// Unescape resolves backslash escapes and character references in text
// taken from the AST.
func Unescape(s string) string {
	if !strings.ContainsAny(s, `\&`) {
		return s
	}
	v := []byte(s)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	v = util.UnescapePunctuations(v)
	return string(v)
}
