package render

import (
	"strings"

	"github.com/samsaffron/mdstream/internal/latex"
	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// InlineBuilder converts inline AST nodes into styled fragments. Adjacent
// text and line breaks are buffered into one run and split into formula and
// plain fragments before anything else is emitted.
type InlineBuilder struct {
	src []byte
	out []Fragment
}

// NewInlineBuilder returns a builder reading node text from src.
func NewInlineBuilder(src []byte) *InlineBuilder {
	return &InlineBuilder{src: src}
}

// Build converts all inline children of parent.
func (b *InlineBuilder) Build(parent ast.Node) []Fragment {
	return b.BuildRange(parent.FirstChild(), nil)
}

// BuildRange converts the siblings from first up to, not including, stop.
// A nil stop runs to the last sibling.
func (b *InlineBuilder) BuildRange(first, stop ast.Node) []Fragment {
	b.out = nil
	b.walk(first, stop, Style{})
	out := b.out
	b.out = nil
	return out
}

func (b *InlineBuilder) walk(first, stop ast.Node, style Style) {
	var buf []byte
	flush := func() {
		if len(buf) > 0 {
			b.emitText(buf, style)
			buf = nil
		}
	}

	for n := first; n != nil && n != stop; n = n.NextSibling() {
		switch x := n.(type) {
		case *ast.Text:
			buf = append(buf, x.Segment.Value(b.src)...)
			switch {
			case x.HardLineBreak():
				buf = append(buf, '\n')
			case x.SoftLineBreak():
				buf = append(buf, ' ')
			}
		case *ast.String:
			buf = append(buf, x.Value...)
		case *ast.RawHTML:
			for i := 0; i < x.Segments.Len(); i++ {
				seg := x.Segments.At(i)
				buf = append(buf, seg.Value(b.src)...)
			}
		case *ast.Emphasis:
			flush()
			o := Style{Italic: true}
			if x.Level >= 2 {
				o = Style{Bold: true}
			}
			b.walk(x.FirstChild(), nil, style.With(o))
		case *east.Strikethrough:
			flush()
			b.walk(x.FirstChild(), nil, style.With(Style{Strikethrough: true}))
		case *ast.CodeSpan:
			flush()
			b.out = append(b.out, Fragment{
				Text:  b.codeSpan(x),
				Style: style.With(Style{Code: true}),
			})
		case *ast.Link:
			flush()
			b.walk(x.FirstChild(), nil, style.With(Style{Link: string(x.Destination)}))
		case *ast.AutoLink:
			flush()
			b.out = append(b.out, Fragment{
				Text:  string(x.Label(b.src)),
				Style: style.With(Style{Link: string(x.URL(b.src))}),
			})
		case *ast.Image:
			// Images below paragraph level (inside links, emphasis) keep
			// their alt text in the flow.
			flush()
			b.walk(x.FirstChild(), nil, style)
		default:
			flush()
			b.walk(n.FirstChild(), nil, style)
		}
	}
	flush()
}

func (b *InlineBuilder) emitText(raw []byte, style Style) {
	for _, seg := range latex.ExtractAll(string(raw)) {
		if seg.Math {
			b.out = append(b.out, Fragment{
				Kind:  FragmentMath,
				Text:  seg.Span.Content,
				Raw:   seg.Text,
				Math:  seg.Span.Kind,
				Style: style,
			})
			continue
		}
		b.out = append(b.out, Fragment{Text: markdown.Unescape(seg.Text), Style: style})
	}
}

func (b *InlineBuilder) codeSpan(n *ast.CodeSpan) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.src))
		case *ast.String:
			sb.Write(t.Value)
		}
	}
	return strings.ReplaceAll(sb.String(), "\n", " ")
}

func hasContent(runs []Fragment) bool {
	for _, f := range runs {
		if f.IsMath() || strings.TrimSpace(f.Text) != "" {
			return true
		}
	}
	return false
}
