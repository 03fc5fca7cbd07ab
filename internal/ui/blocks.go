package ui

import (
	"fmt"
	goimage "image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	mdimage "github.com/samsaffron/mdstream/internal/image"
	"github.com/samsaffron/mdstream/internal/latex"
	"github.com/samsaffron/mdstream/internal/render"
)

const (
	minWidth   = 20
	codeIndent = 2
)

var bullets = []string{"•", "◦", "▪"}

// blockRenderer turns one render node into terminal text at a given width.
type blockRenderer struct {
	styles       *Styles
	math         latex.Rasterizer
	codeTheme    string
	capability   mdimage.Capability
	highlighters map[string]*Highlighter
}

func newBlockRenderer(s *Styles) *blockRenderer {
	return &blockRenderer{
		styles:       s,
		math:         latex.UnicodeRasterizer{},
		codeTheme:    "monokai",
		highlighters: make(map[string]*Highlighter),
	}
}

// imageState is what a block knows about the picture behind an image node.
type imageState struct {
	img     goimage.Image
	loading bool
	failed  bool
}

func (r *blockRenderer) render(n render.Node, img imageState, width int) string {
	width = max(width, minWidth)
	switch x := n.(type) {
	case render.Text:
		return r.text(x, width)
	case render.Quote:
		body := r.wrap(r.runs(x.Runs, r.styles.Body), width-2)
		return r.styles.Quote.Render(body)
	case render.CodeBlock:
		return r.code(x, width)
	case render.MathBlock:
		return r.mathBlock(x, width)
	case render.List:
		return r.list(x, width)
	case render.Table:
		return r.table(x, width)
	case render.Image:
		return r.image(x, img, width)
	case render.Divider:
		return r.styles.Muted.Render(strings.Repeat("─", width))
	}
	return ""
}

// runs styles each fragment on top of base. Formula fragments show their
// Unicode rendering, or the raw delimited source when that fails.
func (r *blockRenderer) runs(runs []render.Fragment, base lipgloss.Style) string {
	var b strings.Builder
	for _, f := range runs {
		text := f.Text
		st := r.fragmentStyle(f.Style, base)
		if f.IsMath() {
			if out, ok := r.math.Render(f.Text); ok {
				text = out
				st = st.Italic(true)
			} else {
				text = f.Raw
			}
		}
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(st.Render(line))
			}
		}
	}
	return b.String()
}

func (r *blockRenderer) fragmentStyle(fs render.Style, base lipgloss.Style) lipgloss.Style {
	st := base
	theme := r.styles.Theme()
	if fs.Bold || fs.Scale > 1 {
		st = st.Bold(true)
	}
	if fs.Italic {
		st = st.Italic(true)
	}
	if fs.Strikethrough {
		st = st.Strikethrough(true)
	}
	if fs.Code {
		st = st.Foreground(theme.Primary).Background(theme.CodeBg)
	}
	if fs.Link != "" {
		st = st.Underline(true).Foreground(theme.Link)
	}
	return st
}

// wrap word-wraps s to width and hard-wraps words that are still too long.
func (r *blockRenderer) wrap(s string, width int) string {
	width = max(width, 1)
	return wrap.String(wordwrap.String(s, width), width)
}

func (r *blockRenderer) text(t render.Text, width int) string {
	switch {
	case t.Level == 0:
		return r.wrap(r.runs(t.Runs, r.styles.Body), width)
	case t.Level == 1:
		head := r.wrap(r.runs(t.Runs, r.styles.H1), width)
		if len(t.Runs) == 0 || t.Runs[0].Style.Scale < 2 {
			return head
		}
		rule := strings.Repeat("━", min(width, lipgloss.Width(head)))
		return head + "\n" + r.styles.Rule.Render(rule)
	default:
		return r.wrap(r.runs(t.Runs, r.styles.Heading), width)
	}
}

func (r *blockRenderer) highlighter(language string) *Highlighter {
	h, ok := r.highlighters[language]
	if !ok {
		h = NewHighlighter(language, r.codeTheme)
		r.highlighters[language] = h
	}
	return h
}

func (r *blockRenderer) code(c render.CodeBlock, width int) string {
	body := c.Code
	if !r.styles.Plain() {
		body = r.highlighter(c.Language).Highlight(body)
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width-codeIndent, "…")
	}
	body = indent.String(strings.Join(lines, "\n"), codeIndent)
	if c.Language == "" {
		return body
	}
	return r.styles.Label.Render(c.Language) + "\n" + body
}

func (r *blockRenderer) mathBlock(m render.MathBlock, width int) string {
	text, ok := r.math.Render(m.Latex)
	if !ok {
		text = m.Latex
	}
	return r.styles.Renderer().PlaceHorizontal(width, lipgloss.Center, r.styles.Math.Render(text))
}

func (r *blockRenderer) list(l render.List, width int) string {
	var out []string
	ordinal := l.Start
	for _, item := range l.Items {
		var marker string
		if l.Ordered && item.Level == 0 {
			marker = fmt.Sprintf("%d.", ordinal)
			ordinal++
		} else {
			marker = bullets[item.Level%len(bullets)]
		}
		pad := strings.Repeat("  ", item.Level)
		hang := runewidth.StringWidth(marker) + 1
		body := r.wrap(r.runs(item.Runs, r.styles.Body), width-len(pad)-hang)

		// Continuation lines hang under the item text.
		for i, line := range strings.Split(body, "\n") {
			if i == 0 {
				out = append(out, pad+r.styles.Marker.Render(marker)+" "+line)
				continue
			}
			out = append(out, pad+strings.Repeat(" ", hang)+line)
		}
	}
	return strings.Join(out, "\n")
}

func (r *blockRenderer) cell(runs []render.Fragment) string {
	return strings.ReplaceAll(r.runs(runs, r.styles.Body), "\n", " ")
}

func (r *blockRenderer) table(t render.Table, width int) string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}
	headers := make([]string, cols)
	for i, h := range t.Headers {
		headers[i] = r.cell(h)
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, cols)
		for j, c := range row {
			rows[i][j] = r.cell(c)
		}
	}

	s := r.styles
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.TableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			st := s.TableCell
			if row == table.HeaderRow {
				st = s.TableHeader
			}
			if col < len(t.Align) {
				switch t.Align[col] {
				case render.AlignCenter:
					st = st.Align(lipgloss.Center)
				case render.AlignRight:
					st = st.Align(lipgloss.Right)
				}
			}
			return st
		})
	out := tbl.Render()
	if lipgloss.Width(out) > width {
		out = tbl.Width(width).Render()
	}
	return out
}

func (r *blockRenderer) image(n render.Image, st imageState, width int) string {
	if st.img != nil && r.capability != mdimage.CapNone {
		if enc, err := mdimage.Encode(st.img, r.capability, width); err == nil && enc != "" {
			return enc
		}
	}
	label := n.AltText
	if label == "" {
		label = n.Source
	}
	text := "▣ " + label
	switch {
	case st.loading:
		text += " …"
	case st.failed:
		text += " (unavailable)"
	}
	return r.styles.Muted.Render(ansi.Truncate(text, width, "…"))
}
