// Package render turns a markdown AST into a flat, ordered sequence of typed
// render nodes. Each node is an immutable value; a changed block is a new
// node, never an edited one.
package render

import (
	"slices"
	"strings"
)

// Kind tags a Node variant.
type Kind int

const (
	KindText Kind = iota
	KindQuote
	KindCodeBlock
	KindMathBlock
	KindList
	KindTable
	KindImage
	KindDivider
)

var kindNames = [...]string{
	KindText:      "text",
	KindQuote:     "quote",
	KindCodeBlock: "code",
	KindMathBlock: "math",
	KindList:      "list",
	KindTable:     "table",
	KindImage:     "image",
	KindDivider:   "divider",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one block of visual content. The set of implementations is closed;
// switch on Kind() or on the concrete type.
type Node interface {
	Kind() Kind
	node()
}

// Text is a paragraph or heading. Level is 0 for paragraphs, 1-6 for headings.
type Text struct {
	Runs  []Fragment
	Level int
}

// Quote is block-quote content with paragraphs joined by newlines.
type Quote struct {
	Runs []Fragment
}

// CodeBlock holds verbatim code. Language may be empty.
type CodeBlock struct {
	Code     string
	Language string
}

// MathBlock is a display formula from a math/latex fenced block.
type MathBlock struct {
	Latex string
}

// ListItem is one flattened list entry. Level is the nesting depth, 0 at the
// outermost list.
type ListItem struct {
	Runs  []Fragment
	Level int
}

// List is an entire (possibly nested) list flattened in document order.
type List struct {
	Items   []ListItem
	Ordered bool
	Start   int
}

// Alignment of a table column.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Table holds one fragment run per cell. Rows may be ragged.
type Table struct {
	Headers [][]Fragment
	Rows    [][][]Fragment
	Align   []Alignment
}

// Image is a standalone picture split out of its paragraph.
type Image struct {
	Source  string
	AltText string
	Title   string
}

// Divider is a thematic break.
type Divider struct{}

func (Text) Kind() Kind      { return KindText }
func (Quote) Kind() Kind     { return KindQuote }
func (CodeBlock) Kind() Kind { return KindCodeBlock }
func (MathBlock) Kind() Kind { return KindMathBlock }
func (List) Kind() Kind      { return KindList }
func (Table) Kind() Kind     { return KindTable }
func (Image) Kind() Kind     { return KindImage }
func (Divider) Kind() Kind   { return KindDivider }

func (Text) node()      {}
func (Quote) node()     {}
func (CodeBlock) node() {}
func (MathBlock) node() {}
func (List) node()      {}
func (Table) node()     {}
func (Image) node()     {}
func (Divider) node()   {}

// Equal reports whether two nodes have the same kind and content.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Text:
		y := b.(Text)
		return x.Level == y.Level && slices.Equal(x.Runs, y.Runs)
	case Quote:
		return slices.Equal(x.Runs, b.(Quote).Runs)
	case CodeBlock:
		return x == b.(CodeBlock)
	case MathBlock:
		return x == b.(MathBlock)
	case List:
		y := b.(List)
		return x.Ordered == y.Ordered && x.Start == y.Start &&
			slices.EqualFunc(x.Items, y.Items, func(p, q ListItem) bool {
				return p.Level == q.Level && slices.Equal(p.Runs, q.Runs)
			})
	case Table:
		y := b.(Table)
		return slices.Equal(x.Align, y.Align) &&
			slices.EqualFunc(x.Headers, y.Headers, slices.Equal[[]Fragment, Fragment]) &&
			slices.EqualFunc(x.Rows, y.Rows, func(p, q [][]Fragment) bool {
				return slices.EqualFunc(p, q, slices.Equal[[]Fragment, Fragment])
			})
	case Image:
		return x == b.(Image)
	case Divider:
		return true
	}
	return false
}

// PlainText returns the concatenated text of a node's runs, with formulas
// in their raw delimited form. Useful for tests and previews.
func PlainText(n Node) string {
	switch x := n.(type) {
	case Text:
		return runsText(x.Runs)
	case Quote:
		return runsText(x.Runs)
	case CodeBlock:
		return x.Code
	case MathBlock:
		return x.Latex
	case Image:
		return x.AltText
	}
	return ""
}

func runsText(runs []Fragment) string {
	var b strings.Builder
	for _, f := range runs {
		b.WriteString(f.Display())
	}
	return b.String()
}
