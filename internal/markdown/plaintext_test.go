package markdown

import "testing"

func TestStripToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bold", "**bold** text", "bold text"},
		{"italic and code", "*some* `code` here", "some code here"},
		{"heading then paragraph", "# Title\n\nBody text", "Title\n\nBody text"},
		{"two paragraphs", "one\n\ntwo", "one\n\ntwo"},
		{"soft break", "line one\nline two", "line one line two"},
		{"hard break", "line one\\\nline two", "line one\nline two"},
		{"link keeps label", "see [docs](https://example.com)", "see docs"},
		{"code block", "intro\n\n```go\nx := 1\n```\n", "intro\nx := 1"},
		{"escaped punctuation", `a \*literal\* star`, "a *literal* star"},
		{"list items", "- a\n- b", "a\n\nb"},
		{"table", "| h1 | h2 |\n|---|---|\n| a | b |", "h1 | h2\na | b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripToPlainText(tt.in); got != tt.want {
				t.Errorf("StripToPlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstParagraph(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"source exact", "Intro line.\n\nSecond paragraph with `code`.\n", "Intro line."},
		{"keeps markup", "Some **bold** and [a link](x).\n\nMore.", "Some **bold** and [a link](x)."},
		{"multi line", "first\nsecond line\n\nthird", "first\nsecond line"},
		{"skips heading", "# Title\n\nBody *here*.", "Body *here*."},
		{"indented", "   spaced out\n", "spaced out"},
		{"no paragraph", "# Only a heading\n", ""},
		{"nested paragraph ignored", "> quoted\n", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstParagraph(tt.in); got != tt.want {
				t.Errorf("FirstParagraph(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSliceClamps(t *testing.T) {
	src := "abc\ndefg\nhi"
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"in bounds", Range{Position{2, 1}, Position{2, 5}}, "defg"},
		{"across lines", Range{Position{1, 2}, Position{2, 3}}, "bc\nde"},
		{"column past line end", Range{Position{1, 1}, Position{1, 40}}, "abc"},
		{"line past end", Range{Position{3, 1}, Position{9, 1}}, "hi"},
		{"line before start", Range{Position{0, 5}, Position{1, 3}}, "ab"},
		{"inverted", Range{Position{2, 3}, Position{1, 1}}, ""},
		{"empty range", Range{Position{2, 2}, Position{2, 2}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slice(src, tt.r); got != tt.want {
				t.Errorf("Slice(%+v) = %q, want %q", tt.r, got, tt.want)
			}
		})
	}
}

func TestNodeRangePositions(t *testing.T) {
	doc := Parse("# T\n\nhello\nworld\n")
	para := doc.Root.FirstChild().NextSibling()
	r, ok := NodeRange(para, doc.Source)
	if !ok {
		t.Fatal("expected a range for the paragraph")
	}
	want := Range{Start: Position{Line: 3, Column: 1}, End: Position{Line: 4, Column: 6}}
	if r != want {
		t.Errorf("NodeRange = %+v, want %+v", r, want)
	}
}

func TestParserConcurrentUse(t *testing.T) {
	p := NewParser()
	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			doc := p.Parse("para **one**\n\n- item")
			done <- doc.Root.FirstChild().Kind().String()
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != "Paragraph" {
			t.Errorf("first block kind = %q, want Paragraph", got)
		}
	}
}
