package render

import "github.com/samsaffron/mdstream/internal/latex"

// Style is the composed inline style of a fragment. Values are combined with
// With as the walk descends, so a leaf's style is the composition of all of
// its ancestors.
type Style struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Code          bool
	Link          string  // destination URL, empty when not a link
	Scale         float64 // relative text size, 0 means body size
}

// With overlays o on s. Flags accumulate; the innermost link and scale win.
func (s Style) With(o Style) Style {
	s.Bold = s.Bold || o.Bold
	s.Italic = s.Italic || o.Italic
	s.Strikethrough = s.Strikethrough || o.Strikethrough
	s.Code = s.Code || o.Code
	if o.Link != "" {
		s.Link = o.Link
	}
	if o.Scale != 0 {
		s.Scale = o.Scale
	}
	return s
}

// FragmentKind separates literal text from embedded formula placeholders.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentMath
)

// Fragment is one inline run. For FragmentMath, Text is the formula source,
// Raw the original delimited text and Math the detected kind.
type Fragment struct {
	Kind  FragmentKind
	Text  string
	Raw   string
	Math  latex.Kind
	Style Style
}

// Display returns what a fragment shows when rendered as plain text.
func (f Fragment) Display() string {
	if f.Kind == FragmentMath {
		return f.Raw
	}
	return f.Text
}

// IsMath reports whether f is a formula placeholder.
func (f Fragment) IsMath() bool { return f.Kind == FragmentMath }

func restyle(runs []Fragment, o Style) []Fragment {
	out := make([]Fragment, len(runs))
	for i, f := range runs {
		f.Style = f.Style.With(o)
		out[i] = f
	}
	return out
}
