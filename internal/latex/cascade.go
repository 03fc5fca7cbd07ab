// Package latex finds formula notation embedded in prose and renders it for
// display. Detection is a fixed cascade of delimiter patterns; the earliest
// match in a text run wins.
package latex

import (
	"regexp"
	"strings"
)

// Kind distinguishes display formulas from formulas that flow with text.
type Kind int

const (
	Inline Kind = iota
	Block
)

func (k Kind) String() string {
	if k == Block {
		return "block"
	}
	return "inline"
}

// Span is one detected formula. Start and End are byte offsets of the whole
// delimited match; Content is the text between the delimiters.
type Span struct {
	Start   int
	End     int
	Kind    Kind
	Content string
}

// Segment is one piece of a text run: either plain text or a formula.
type Segment struct {
	Text string // plain text, or the full delimited source for formulas
	Math bool
	Span Span // set when Math is true
}

type pattern struct {
	kind  Kind
	match func(text string) (start, end, cStart, cEnd int, ok bool)
}

// Order is priority order, used only to break ties on equal start offsets.
// Bracket-only delimiters ([ ... ]) are intentionally absent: they collide
// with link syntax.
var cascade = []pattern{
	{kind: Block, match: regexpMatcher(regexp.MustCompile(`\$\$([\s\S]+?)\$\$`))},
	{kind: Block, match: regexpMatcher(regexp.MustCompile(`\\\[([\s\S]+?)\\\]`))},
	{kind: Inline, match: regexpMatcher(regexp.MustCompile(`\\\(([\s\S]+?)\\\)`))},
	{kind: Inline, match: matchDollar},
}

func regexpMatcher(re *regexp.Regexp) func(string) (int, int, int, int, bool) {
	return func(text string) (int, int, int, int, bool) {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			return 0, 0, 0, 0, false
		}
		return loc[0], loc[1], loc[2], loc[3], true
	}
}

// matchDollar finds $...$ where neither delimiter is doubled or escaped and
// the content holds no dollar sign.
func matchDollar(text string) (int, int, int, int, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		if i > 0 && (text[i-1] == '$' || text[i-1] == '\\') {
			continue
		}
		if i+1 < len(text) && text[i+1] == '$' {
			continue
		}
		j := strings.IndexByte(text[i+1:], '$')
		if j <= 0 {
			continue
		}
		j += i + 1
		if text[j-1] == '\\' {
			continue
		}
		if j+1 < len(text) && text[j+1] == '$' {
			continue
		}
		return i, j + 1, i + 1, j, true
	}
	return 0, 0, 0, 0, false
}

// DetectFirst returns the formula with the earliest start offset across all
// patterns. Ties go to the higher priority pattern.
func DetectFirst(text string) (Span, bool) {
	var best Span
	found := false
	for _, p := range cascade {
		start, end, cStart, cEnd, ok := p.match(text)
		if !ok {
			continue
		}
		if found && start >= best.Start {
			continue
		}
		best = Span{Start: start, End: end, Kind: p.kind, Content: text[cStart:cEnd]}
		found = true
	}
	return best, found
}

// ExtractAll splits text into plain and formula segments, left to right.
// Text without formulas comes back as a single plain segment; empty text
// yields nothing.
func ExtractAll(text string) []Segment {
	if text == "" {
		return nil
	}
	var out []Segment
	offset := 0
	rest := text
	for rest != "" {
		span, ok := DetectFirst(rest)
		if !ok {
			break
		}
		if span.Start > 0 {
			out = append(out, Segment{Text: rest[:span.Start]})
		}
		abs := Span{
			Start:   offset + span.Start,
			End:     offset + span.End,
			Kind:    span.Kind,
			Content: span.Content,
		}
		out = append(out, Segment{Text: rest[span.Start:span.End], Math: true, Span: abs})
		offset += span.End
		rest = rest[span.End:]
	}
	if rest != "" {
		out = append(out, Segment{Text: rest})
	}
	return out
}
