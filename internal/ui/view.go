package ui

import (
	"context"
	goimage "image"
	"io"
	"log/slog"
	"strings"
	"sync"

	mdimage "github.com/samsaffron/mdstream/internal/image"
	"github.com/samsaffron/mdstream/internal/latex"
	"github.com/samsaffron/mdstream/internal/reconcile"
	"github.com/samsaffron/mdstream/internal/render"
)

var _ reconcile.View[*Block] = (*TerminalView)(nil)

// Block is the live element for one render node. Its rendered text is
// cached until the node, the terminal width or its image changes.
type Block struct {
	node  render.Node
	image imageState
	dead  bool

	cache string
	width int // width cache was rendered at, 0 when stale
}

// Node returns the node the block currently shows.
func (b *Block) Node() render.Node { return b.node }

// ViewOption configures a TerminalView.
type ViewOption func(*TerminalView)

// WithImages enables inline pictures: image nodes are fetched through
// loader and drawn with capability. Without it, images stay placeholders.
func WithImages(loader *mdimage.Loader, c mdimage.Capability) ViewOption {
	return func(v *TerminalView) {
		v.loader = loader
		v.r.capability = c
	}
}

// WithCodeTheme sets the chroma style used for code blocks.
func WithCodeTheme(name string) ViewOption {
	return func(v *TerminalView) { v.r.codeTheme = name }
}

// WithRasterizer replaces the formula renderer.
func WithRasterizer(m latex.Rasterizer) ViewOption {
	return func(v *TerminalView) { v.r.math = m }
}

// WithViewLogger sets the logger.
func WithViewLogger(l *slog.Logger) ViewOption {
	return func(v *TerminalView) { v.log = l }
}

// TerminalView renders blocks as styled terminal text. Create, Update and
// Destroy come from one goroutine; image loads complete on others and are
// announced on Changed.
type TerminalView struct {
	mu      sync.Mutex
	r       *blockRenderer
	width   int
	loader  *mdimage.Loader
	changed chan struct{}
	log     *slog.Logger
	renders int
}

// NewTerminalView creates a view rendering at width columns, 80 when width
// is not positive.
func NewTerminalView(styles *Styles, width int, opts ...ViewOption) *TerminalView {
	if width <= 0 {
		width = 80
	}
	v := &TerminalView{
		r:       newBlockRenderer(styles),
		width:   width,
		changed: make(chan struct{}, 1),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Create implements reconcile.View.
func (v *TerminalView) Create(n render.Node) *Block {
	b := &Block{node: n}
	v.requestImage(b, n)
	return b
}

// Update implements reconcile.View.
func (v *TerminalView) Update(b *Block, n render.Node) {
	v.mu.Lock()
	prev, _ := b.node.(render.Image)
	b.node = n
	b.width = 0
	next, isImage := n.(render.Image)
	reload := isImage && next.Source != prev.Source
	if reload {
		b.image = imageState{}
	}
	v.mu.Unlock()

	if reload {
		v.requestImage(b, n)
	}
}

// Destroy implements reconcile.View.
func (v *TerminalView) Destroy(b *Block) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b.dead = true
	b.cache = ""
	b.image = imageState{}
}

func (v *TerminalView) requestImage(b *Block, n render.Node) {
	img, ok := n.(render.Image)
	if !ok || v.loader == nil || v.r.capability == mdimage.CapNone {
		return
	}
	v.mu.Lock()
	b.image.loading = true
	v.mu.Unlock()

	v.loader.Load(context.Background(), img.Source, func(pic goimage.Image, err error) {
		v.imageLoaded(b, img.Source, pic, err)
	})
}

func (v *TerminalView) imageLoaded(b *Block, src string, pic goimage.Image, err error) {
	v.mu.Lock()
	current, ok := b.node.(render.Image)
	if b.dead || !ok || current.Source != src {
		v.mu.Unlock()
		return
	}
	b.image = imageState{img: pic, failed: err != nil}
	b.width = 0
	v.mu.Unlock()

	if err != nil {
		v.log.Debug("ui: image placeholder kept", "source", src, "error", err)
	}
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

// Changed receives a value after an image finished loading and the
// affected block needs to be drawn again.
func (v *TerminalView) Changed() <-chan struct{} { return v.changed }

// SetWidth changes the render width. Blocks re-render lazily.
func (v *TerminalView) SetWidth(w int) {
	if w <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = w
}

// Width returns the render width.
func (v *TerminalView) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

// Renders returns how many times a block was rendered rather than served
// from its cache.
func (v *TerminalView) Renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}

// RenderBlock returns the text of one block.
func (v *TerminalView) RenderBlock(b *Block) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderLocked(b)
}

func (v *TerminalView) renderLocked(b *Block) string {
	if b.dead {
		return ""
	}
	if b.width != v.width {
		b.cache = v.r.render(b.node, b.image, v.width)
		b.width = v.width
		v.renders++
	}
	return b.cache
}

// Render draws blocks in order, separated by blank lines.
func (v *TerminalView) Render(blocks []*Block) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := v.renderLocked(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
