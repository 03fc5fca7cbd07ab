package ui

import (
	"strings"
	"testing"
)

func TestHighlighterTokens(t *testing.T) {
	h := NewHighlighter("go", "monokai")
	code := "func main() {\n\t// hi\n\treturn 42\n}"
	toks := h.Tokens(code)

	var b strings.Builder
	cats := map[Category]bool{}
	for _, tok := range toks {
		b.WriteString(tok.Text)
		cats[tok.Category] = true
	}
	if b.String() != code {
		t.Errorf("tokens reassemble to %q, want %q", b.String(), code)
	}
	for _, want := range []Category{CatKeyword, CatComment, CatNumber, CatPunctuation} {
		if !cats[want] {
			t.Errorf("no %v token in %v", want, toks)
		}
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Category == toks[i-1].Category {
			t.Errorf("adjacent tokens %d and %d share category %v", i-1, i, toks[i].Category)
		}
	}
}

func TestHighlighterUnknownLanguage(t *testing.T) {
	h := NewHighlighter("no-such-language", "no-such-style")
	toks := h.Tokens("plain words")
	if len(toks) != 1 || toks[0].Text != "plain words" || toks[0].Category != CatText {
		t.Errorf("Tokens = %v, want one text token", toks)
	}
}

func TestHighlightKeepsText(t *testing.T) {
	tests := []struct {
		lang string
		code string
	}{
		{"go", "x := \"a\nb\"\nfmt.Println(x)"},
		{"python", "def f():\n    return 1"},
		{"", "just text"},
	}
	for _, tt := range tests {
		got := NewHighlighter(tt.lang, "monokai").Highlight(tt.code)
		if StripANSI(got) != tt.code {
			t.Errorf("Highlight(%q) stripped = %q", tt.code, StripANSI(got))
		}
		if strings.Count(got, "\n") != strings.Count(tt.code, "\n") {
			t.Errorf("Highlight(%q) changed the line count", tt.code)
		}
	}
}

func TestANSILen(t *testing.T) {
	if n := ANSILen("\x1b[1mbold\x1b[0m 日本"); n != 9 {
		t.Errorf("ANSILen = %d, want 9", n)
	}
}
