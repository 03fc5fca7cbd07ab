package render

import (
	"strings"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// Options controls presentation policy applied at layout time.
type Options struct {
	H1Scale      float64 // text scale for level 1 headings
	HeadingScale float64 // text scale for levels 2 and below
}

// DefaultOptions returns the recommended heading scales.
func DefaultOptions() Options {
	return Options{H1Scale: 2.0, HeadingScale: 1.5}
}

// Engine lays out a parsed document into render nodes. An Engine holds no
// per-document state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine. Zero scales fall back to the defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.H1Scale <= 0 {
		opts.H1Scale = def.H1Scale
	}
	if opts.HeadingScale <= 0 {
		opts.HeadingScale = def.HeadingScale
	}
	return &Engine{opts: opts}
}

var defaultEngine = NewEngine(DefaultOptions())

// Build parses src and lays it out with the default engine.
func Build(src string) []Node {
	return defaultEngine.Layout(markdown.Parse(src))
}

// Layout emits one node per qualifying block in document order. The result
// depends only on the document text.
func (e *Engine) Layout(doc *markdown.Document) []Node {
	l := &layout{
		opts: e.opts,
		src:  doc.Source,
		ib:   NewInlineBuilder(doc.Source),
	}
	l.children(doc.Root)
	return l.out
}

type layout struct {
	opts Options
	src  []byte
	ib   *InlineBuilder
	out  []Node
}

func (l *layout) emit(n Node) {
	l.out = append(l.out, n)
}

func (l *layout) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		l.block(c)
	}
}

func (l *layout) block(n ast.Node) {
	switch x := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		l.paragraph(x)
	case *ast.Heading:
		runs := l.ib.Build(x)
		if !hasContent(runs) {
			return
		}
		l.emit(Text{Runs: restyle(runs, l.headingStyle(x.Level)), Level: x.Level})
	case *ast.FencedCodeBlock:
		code := strings.TrimSuffix(markdown.BlockText(x, l.src), "\n")
		lang := strings.ToLower(string(x.Language(l.src)))
		if lang == "math" || lang == "latex" {
			l.emit(MathBlock{Latex: strings.TrimSpace(code)})
			return
		}
		l.emit(CodeBlock{Code: code, Language: lang})
	case *ast.CodeBlock:
		l.emit(CodeBlock{Code: strings.TrimSuffix(markdown.BlockText(x, l.src), "\n")})
	case *ast.HTMLBlock:
		code := markdown.BlockText(x, l.src)
		if x.HasClosure() {
			code += string(x.ClosureLine.Value(l.src))
		}
		l.emit(CodeBlock{Code: strings.TrimSuffix(code, "\n"), Language: "html"})
	case *ast.List:
		list := List{Ordered: x.IsOrdered()}
		if list.Ordered {
			list.Start = x.Start
		}
		list.Items = l.listItems(x, 0, nil)
		if len(list.Items) > 0 {
			l.emit(list)
		}
	case *east.Table:
		l.emit(l.table(x))
	case *ast.Blockquote:
		if runs := l.flatRuns(x); hasContent(runs) {
			l.emit(Quote{Runs: runs})
		}
	case *ast.ThematicBreak:
		l.emit(Divider{})
	default:
		l.children(n)
	}
}

// paragraph splits inline content around direct image children so that an
// image never sits inside a text run.
func (l *layout) paragraph(p ast.Node) {
	first := p.FirstChild()
	for c := first; c != nil; c = c.NextSibling() {
		img, ok := c.(*ast.Image)
		if !ok {
			continue
		}
		l.text(l.ib.BuildRange(first, c))
		l.emit(Image{
			Source:  string(img.Destination),
			AltText: runsText(l.ib.Build(img)),
			Title:   string(img.Title),
		})
		first = c.NextSibling()
	}
	l.text(l.ib.BuildRange(first, nil))
}

func (l *layout) text(runs []Fragment) {
	if hasContent(runs) {
		l.emit(Text{Runs: runs})
	}
}

// listItems flattens list into items. Text accumulated for an item is
// flushed before a nested list so that document order is kept.
func (l *layout) listItems(list *ast.List, level int, items []ListItem) []ListItem {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var runs []Fragment
		flush := func() {
			if hasContent(runs) {
				items = append(items, ListItem{Runs: runs, Level: level})
			}
			runs = nil
		}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				flush()
				items = l.listItems(nested, level+1, items)
				continue
			}
			runs = joinRuns(runs, l.blockRuns(c))
		}
		flush()
	}
	return items
}

// flatRuns concatenates the text of every block below n, one newline
// between blocks.
func (l *layout) flatRuns(n ast.Node) []Fragment {
	var runs []Fragment
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		runs = joinRuns(runs, l.blockRuns(c))
	}
	return runs
}

// headingStyle is the bold, scaled font of a heading at level.
func (l *layout) headingStyle(level int) Style {
	if level == 1 {
		return Style{Bold: true, Scale: l.opts.H1Scale}
	}
	return Style{Bold: true, Scale: l.opts.HeadingScale}
}

func (l *layout) blockRuns(n ast.Node) []Fragment {
	switch x := n.(type) {
	case *ast.Heading:
		return restyle(l.ib.Build(x), l.headingStyle(x.Level))
	case *ast.Paragraph, *ast.TextBlock:
		return l.ib.Build(x)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		code := strings.TrimSuffix(markdown.BlockText(x, l.src), "\n")
		if code == "" {
			return nil
		}
		return []Fragment{{Text: code, Style: Style{Code: true}}}
	case *ast.ThematicBreak:
		return nil
	}
	return l.flatRuns(n)
}

func joinRuns(runs, more []Fragment) []Fragment {
	if !hasContent(more) {
		return runs
	}
	if len(runs) > 0 {
		runs = append(runs, Fragment{Text: "\n"})
	}
	return append(runs, more...)
}

func (l *layout) table(x *east.Table) Table {
	var t Table
	for _, a := range x.Alignments {
		t.Align = append(t.Align, alignment(a))
	}
	for row := x.FirstChild(); row != nil; row = row.NextSibling() {
		var cells [][]Fragment
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, l.ib.Build(cell))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Headers = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func alignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	}
	return AlignNone
}
