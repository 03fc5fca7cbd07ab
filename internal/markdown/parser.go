// Package markdown wraps goldmark: it parses documents into an AST and
// offers plain-text extraction used for previews.
package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Document is a parsed AST together with the source it points into.
type Document struct {
	Root   ast.Node
	Source []byte
}

// Parser parses GitHub-flavoured markdown. It is safe for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a parser with table and strikethrough support.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

var defaultParser = NewParser()

// Parse parses text with the default parser.
func Parse(src string) *Document {
	return defaultParser.Parse(src)
}

// Parse never fails: malformed input is parsed the way goldmark recovers
// from it, typically as literal text.
func (p *Parser) Parse(src string) *Document {
	b := []byte(src)
	root := p.md.Parser().Parse(text.NewReader(b))
	return &Document{Root: root, Source: b}
}
