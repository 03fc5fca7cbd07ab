package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
)

// Category is the coarse class of a code token.
type Category int

const (
	CatText Category = iota
	CatKeyword
	CatName
	CatString
	CatNumber
	CatOperator
	CatPunctuation
	CatComment
)

var categoryNames = [...]string{"text", "keyword", "name", "string", "number", "operator", "punctuation", "comment"}

func (c Category) String() string { return categoryNames[c] }

// Token is one classified span of source code.
type Token struct {
	Text     string
	Category Category
}

// Highlighter tokenizes and colors code for one language
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter creates a highlighter for a fence language name (or file
// name) and a chroma style. Unknown languages fall back to plain text;
// unknown styles to monokai.
func NewHighlighter(language, theme string) *Highlighter {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style, ok := styles.Registry[theme]
	if !ok {
		style = styles.Get("monokai")
	}
	return &Highlighter{lexer: lexer, style: style}
}

// Tokens splits code into classified tokens. Concatenating their text
// gives code back, apart from a trailing newline some lexers add.
func (h *Highlighter) Tokens(code string) []Token {
	iterator, err := h.lexer.Tokenise(nil, code)
	if err != nil {
		return []Token{{Text: code}}
	}
	var out []Token
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		cat := categorize(tok.Type)
		if n := len(out); n > 0 && out[n-1].Category == cat {
			out[n-1].Text += tok.Value
			continue
		}
		out = append(out, Token{Text: tok.Value, Category: cat})
	}
	if n := len(out); n > 0 && !strings.HasSuffix(code, "\n") {
		out[n-1].Text = strings.TrimSuffix(out[n-1].Text, "\n")
		if out[n-1].Text == "" {
			out = out[:n-1]
		}
	}
	return out
}

func categorize(t chroma.TokenType) Category {
	switch {
	case t.InCategory(chroma.Comment):
		return CatComment
	case t.InCategory(chroma.Keyword):
		return CatKeyword
	case t.InSubCategory(chroma.LiteralString):
		return CatString
	case t.InSubCategory(chroma.LiteralNumber):
		return CatNumber
	case t.InCategory(chroma.Operator):
		return CatOperator
	case t.InCategory(chroma.Punctuation):
		return CatPunctuation
	case t.InCategory(chroma.Name):
		return CatName
	}
	return CatText
}

// Highlight colors code with 24-bit foreground escapes and no background.
// Lines keep their breaks; each line is reset at its end so the output
// can be indented or wrapped line by line.
func (h *Highlighter) Highlight(code string) string {
	if h == nil {
		return code
	}
	iterator, err := h.lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	formatter := &noBgFormatter{style: h.style}
	if err := formatter.Format(&buf, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// noBgFormatter is a Chroma formatter that applies only foreground colors
type noBgFormatter struct {
	style *chroma.Style
}

func (f *noBgFormatter) Format(w io.Writer, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := f.style.Get(token.Type)

		var codes []string
		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if entry.Italic == chroma.Yes {
			codes = append(codes, "3")
		}
		if entry.Underline == chroma.Yes {
			codes = append(codes, "4")
		}

		// Styled tokens may span lines; style each line on its own.
		for i, line := range strings.Split(token.Value, "\n") {
			if i > 0 {
				fmt.Fprint(w, "\n")
			}
			if line == "" {
				continue
			}
			if len(codes) > 0 {
				fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), line)
			} else {
				fmt.Fprint(w, line)
			}
		}
	}
	return nil
}

// StripANSI removes all ANSI escape codes from a string
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// ANSILen returns the display width of a string, ignoring ANSI codes
func ANSILen(s string) int {
	return ansi.StringWidth(s)
}
