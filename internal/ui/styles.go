package ui

import (
	"io"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the color palette for rendered documents
type Theme struct {
	Primary   lipgloss.Color // headings, list markers
	Secondary lipgloss.Color // subheadings, table borders
	Muted     lipgloss.Color // labels, placeholders, dividers
	Text      lipgloss.Color // body text
	Link      lipgloss.Color
	CodeBg    lipgloss.Color // inline code background
	Quote     lipgloss.Color // block quote bar
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#b8bb26"), // gruvbox green
		Secondary: lipgloss.Color("#83a598"), // gruvbox aqua
		Muted:     lipgloss.Color("#928374"), // gruvbox gray
		Text:      lipgloss.Color("#ebdbb2"), // gruvbox foreground
		Link:      lipgloss.Color("#d3869b"), // gruvbox purple
		CodeBg:    lipgloss.Color("#3c3836"), // gruvbox dark gray
		Quote:     lipgloss.Color("#fabd2f"), // gruvbox yellow
	}
}

// ThemeFromGlamour derives a theme from one of glamour's built-in style
// configs ("dark", "light", "dracula", ...). Colors the style leaves unset
// keep their default. Unknown names return the default theme.
func ThemeFromGlamour(name string) *Theme {
	theme := DefaultTheme()
	cfg, ok := styles.DefaultStyles[name]
	if !ok || cfg == nil {
		return theme
	}
	pick := func(dst *lipgloss.Color, candidates ...*string) {
		for _, c := range candidates {
			if c != nil && *c != "" {
				*dst = lipgloss.Color(*c)
				return
			}
		}
	}
	pick(&theme.Text, cfg.Document.Color, cfg.Text.Color)
	pick(&theme.Primary, cfg.H1.BackgroundColor, cfg.Heading.Color)
	pick(&theme.Secondary, cfg.Heading.Color, cfg.H2.Color)
	pick(&theme.Link, cfg.Link.Color, cfg.LinkText.Color)
	pick(&theme.CodeBg, cfg.Code.BackgroundColor)
	pick(&theme.Muted, cfg.HorizontalRule.Color, cfg.ImageText.Color)
	pick(&theme.Quote, cfg.BlockQuote.Color, cfg.Heading.Color)
	return theme
}

// ThemeConfig mirrors config.ThemeConfig for applying overrides
type ThemeConfig struct {
	Primary   string
	Secondary string
	Muted     string
	Text      string
	Link      string
	CodeBg    string
	Quote     string
}

// ApplyConfig returns a copy of t with the non-empty overrides of cfg
// applied.
func (t *Theme) ApplyConfig(cfg ThemeConfig) *Theme {
	out := *t
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&out.Primary, cfg.Primary)
	set(&out.Secondary, cfg.Secondary)
	set(&out.Muted, cfg.Muted)
	set(&out.Text, cfg.Text)
	set(&out.Link, cfg.Link)
	set(&out.CodeBg, cfg.CodeBg)
	set(&out.Quote, cfg.Quote)
	return &out
}

// Styles holds the lipgloss styles for every block kind, bound to one
// renderer so the color profile follows the output.
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Body        lipgloss.Style
	H1          lipgloss.Style
	Heading     lipgloss.Style
	Rule        lipgloss.Style
	Code        lipgloss.Style
	Link        lipgloss.Style
	Quote       lipgloss.Style
	Label       lipgloss.Style
	Muted       lipgloss.Style
	Math        lipgloss.Style
	Marker      lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style
}

// NewStyles creates styles for output w using theme. A nil theme uses the
// default one.
func NewStyles(w io.Writer, theme *Theme, opts ...termenv.OutputOption) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return NewStylesWithRenderer(lipgloss.NewRenderer(w, opts...), theme)
}

// NewStylesWithRenderer creates styles on an existing renderer.
func NewStylesWithRenderer(r *lipgloss.Renderer, theme *Theme) *Styles {
	return &Styles{
		renderer: r,
		theme:    theme,

		Body:    r.NewStyle().Foreground(theme.Text),
		H1:      r.NewStyle().Bold(true).Foreground(theme.Primary),
		Heading: r.NewStyle().Bold(true).Foreground(theme.Secondary),
		Rule:    r.NewStyle().Foreground(theme.Primary),
		Code: r.NewStyle().
			Foreground(theme.Primary).
			Background(theme.CodeBg),
		Link: r.NewStyle().Underline(true).Foreground(theme.Link),
		Quote: r.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(theme.Quote).
			PaddingLeft(1).
			Italic(true),
		Label:       r.NewStyle().Foreground(theme.Muted).Italic(true),
		Muted:       r.NewStyle().Foreground(theme.Muted),
		Math:        r.NewStyle().Italic(true).Foreground(theme.Text),
		Marker:      r.NewStyle().Foreground(theme.Primary),
		TableHeader: r.NewStyle().Bold(true).Foreground(theme.Secondary).Padding(0, 1),
		TableCell:   r.NewStyle().Padding(0, 1),
		TableBorder: r.NewStyle().Foreground(theme.Muted),
	}
}

// Renderer returns the lipgloss renderer the styles are bound to.
func (s *Styles) Renderer() *lipgloss.Renderer { return s.renderer }

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme { return s.theme }

// Plain reports whether the output has no color support.
func (s *Styles) Plain() bool {
	return s.renderer.ColorProfile() == termenv.Ascii
}

// HasGlamourStyle reports whether name is a built-in glamour style.
func HasGlamourStyle(name string) bool {
	cfg, ok := styles.DefaultStyles[name]
	return ok && cfg != nil
}
