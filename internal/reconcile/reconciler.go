package reconcile

import (
	"io"
	"log/slog"

	"github.com/samsaffron/mdstream/internal/render"
)

// View owns the on-screen elements behind render nodes. H is the view's
// handle type for one live element.
type View[H any] interface {
	// Create builds a live element showing n.
	Create(n render.Node) H
	// Update changes the content of h in place to show n. n always has
	// the same kind as the node h was created from.
	Update(h H, n render.Node)
	// Destroy releases h.
	Destroy(h H)
}

// Stats counts applied operations since the last Reset.
type Stats struct {
	Reused    int // reuse ops, including skipped ones
	Skipped   int // reuse ops whose node was unchanged
	Replaced  int
	Appended  int
	Truncated int // elements destroyed by truncation
}

// Reconciler keeps the live handles for the last applied node sequence and
// drives a View through the diff to each new sequence. It is not safe for
// concurrent use; callers apply sequences from one goroutine in order.
type Reconciler[H any] struct {
	view    View[H]
	nodes   []render.Node
	handles []H
	stats   Stats
	log     *slog.Logger
}

// Option configures a Reconciler.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a reconciler driving view.
func New[H any](view View[H], opts ...Option) *Reconciler[H] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler[H]{view: view, log: o.log}
}

// Apply reconciles the current sequence against next, applies the resulting
// operations to the view and returns them.
func (r *Reconciler[H]) Apply(next []render.Node) []Op {
	ops := Diff(r.nodes, next)
	prevLen := len(r.nodes)
	for _, op := range ops {
		switch op.Kind {
		case OpReuse:
			r.stats.Reused++
			if !op.Dirty {
				r.stats.Skipped++
				continue
			}
			r.view.Update(r.handles[op.Index], op.Node)
		case OpReplace:
			r.stats.Replaced++
			// Only the last couple of nodes are expected to change kind
			// while text grows.
			if op.Index < prevLen-2 {
				r.log.Debug("replace inside stable prefix",
					"index", op.Index, "len", prevLen,
					"from", r.nodes[op.Index].Kind(), "to", op.Node.Kind())
			}
			r.view.Destroy(r.handles[op.Index])
			r.handles[op.Index] = r.view.Create(op.Node)
		case OpAppend:
			r.stats.Appended++
			r.handles = append(r.handles, r.view.Create(op.Node))
		case OpTruncate:
			for _, h := range r.handles[op.Index:] {
				r.view.Destroy(h)
				r.stats.Truncated++
			}
			clear(r.handles[op.Index:])
			r.handles = r.handles[:op.Index]
		}
	}
	r.nodes = append(r.nodes[:0:0], next...)
	return ops
}

// Reset destroys every live element so the next Apply starts from an empty
// sequence. Call it before applying an unrelated document.
func (r *Reconciler[H]) Reset() {
	for _, h := range r.handles {
		r.view.Destroy(h)
	}
	r.handles = nil
	r.nodes = nil
	r.stats = Stats{}
}

// Nodes returns the last applied sequence.
func (r *Reconciler[H]) Nodes() []render.Node {
	return r.nodes
}

// Handles returns the live handles in document order.
func (r *Reconciler[H]) Handles() []H {
	return r.handles
}

// Stats returns counters since the last Reset.
func (r *Reconciler[H]) Stats() Stats {
	return r.stats
}
