package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	mdimage "github.com/samsaffron/mdstream/internal/image"
	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/pipeline"
	"github.com/samsaffron/mdstream/internal/render"
	"github.com/samsaffron/mdstream/internal/ui"
)

const fallbackWidth = 80

// readInput returns the document named by args. No argument or "-" reads
// stdin; path is then empty.
func readInput(cmd *cobra.Command, args []string) (text, path string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), args[0], nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// outputWidth picks the render width: --width, then render.width, then the
// terminal size.
func outputWidth(w io.Writer) int {
	if widthFlag > 0 {
		return widthFlag
	}
	if cfg.Render.Width > 0 {
		return cfg.Render.Width
	}
	if f, ok := w.(*os.File); ok && isTerminal(w) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallbackWidth
}

func newStyles(w io.Writer) *ui.Styles {
	theme := ui.ThemeFromGlamour(cfg.Render.GlamourStyle).ApplyConfig(ui.ThemeConfig{
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
		Link:      cfg.Theme.Link,
		CodeBg:    cfg.Theme.CodeBg,
		Quote:     cfg.Theme.Quote,
	})
	var opts []termenv.OutputOption
	if noColor {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return ui.NewStyles(w, theme, opts...)
}

func newEngine() *render.Engine {
	return render.NewEngine(render.Options{
		H1Scale:      cfg.Render.HeadingScaleH1,
		HeadingScale: cfg.Render.HeadingScale,
	})
}

// imageCapability returns the inline image protocol for w. Images are off
// for plain output and for anything that is not a terminal.
func imageCapability(w io.Writer) mdimage.Capability {
	if noColor || !isTerminal(w) {
		return mdimage.CapNone
	}
	c, err := mdimage.ParseCapability(cfg.Image.Protocol)
	if err != nil {
		return mdimage.CapNone
	}
	return c
}

// newLoader creates the image loader. Relative sources in a document read
// from a file resolve against that file's directory unless image.base_dir
// is set to something else.
func newLoader(docPath string) *mdimage.Loader {
	base := cfg.Image.BaseDir
	if docPath != "" && (base == "" || base == ".") {
		base = filepath.Dir(docPath)
	}
	return mdimage.NewLoader(mdimage.Options{
		CacheSize: cfg.Image.CacheSize,
		MaxWidth:  cfg.Image.MaxWidth,
		Timeout:   cfg.Image.Timeout,
		BaseDir:   base,
		Logger:    logger,
	})
}

// newTerminalSession wires a terminal view to a pipeline session.
func newTerminalSession(w io.Writer, docPath string) (*ui.TerminalView, *pipeline.Session[*ui.Block], *ui.Styles, *mdimage.Loader) {
	styles := newStyles(w)
	opts := []ui.ViewOption{ui.WithCodeTheme(cfg.Render.CodeTheme), ui.WithViewLogger(logger)}
	var loader *mdimage.Loader
	if c := imageCapability(w); c != mdimage.CapNone {
		loader = newLoader(docPath)
		opts = append(opts, ui.WithImages(loader, c))
	}
	view := ui.NewTerminalView(styles, outputWidth(w), opts...)
	sess := pipeline.New[*ui.Block](view,
		pipeline.WithEngine(newEngine()),
		pipeline.WithParser(markdown.NewParser()),
		pipeline.WithLogger(logger))
	return view, sess, styles, loader
}

// preloadImages fetches every picture in nodes so a one-shot render can
// show them immediately. Failures leave placeholders.
func preloadImages(ctx context.Context, loader *mdimage.Loader, nodes []render.Node) {
	if loader == nil {
		return
	}
	for _, n := range nodes {
		if img, ok := n.(render.Image); ok {
			if _, err := loader.Get(ctx, img.Source); err != nil {
				logger.Debug("image preload failed", "source", img.Source, "error", err)
			}
		}
	}
}
