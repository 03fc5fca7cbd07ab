// Package pipeline binds a reveal source to parsing, layout and
// reconciliation: every revealed prefix is re-parsed wholesale, laid out
// and diffed against what the view currently shows.
package pipeline

import (
	"io"
	"log/slog"
	"sync"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/reconcile"
	"github.com/samsaffron/mdstream/internal/render"
	"github.com/samsaffron/mdstream/internal/reveal"
)

// Session renders successive prefixes of one document into a view.
type Session[H any] struct {
	mu      sync.Mutex
	parser  *markdown.Parser
	engine  *render.Engine
	rec     *reconcile.Reconciler[H]
	session uint64
	log     *slog.Logger
}

// Option configures a Session.
type Option func(*options)

type options struct {
	parser *markdown.Parser
	engine *render.Engine
	log    *slog.Logger
}

// WithEngine sets the layout engine.
func WithEngine(e *render.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithParser sets the markdown parser.
func WithParser(p *markdown.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithLogger sets the logger passed down to the reconciler.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a session driving view.
func New[H any](view reconcile.View[H], opts ...Option) *Session[H] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parser == nil {
		o.parser = markdown.NewParser()
	}
	if o.engine == nil {
		o.engine = render.NewEngine(render.DefaultOptions())
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session[H]{
		parser: o.parser,
		engine: o.engine,
		rec:    reconcile.New(view, reconcile.WithLogger(o.log)),
		log:    o.log,
	}
}

// Layout parses and lays out text without touching the view.
func (s *Session[H]) Layout(text string) []render.Node {
	return s.engine.Layout(s.parser.Parse(text))
}

// Render lays out text and reconciles the view against it. text is
// expected to extend the previously rendered text; call Reset first for an
// unrelated document.
func (s *Session[H]) Render(text string) []reconcile.Op {
	nodes := s.Layout(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Apply(nodes)
}

// Apply renders a reveal snapshot. A snapshot from a new reveal session
// resets the view first.
func (s *Session[H]) Apply(snap reveal.Snapshot) []reconcile.Op {
	nodes := s.Layout(snap.Text)
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Session != s.session {
		if s.session != 0 {
			s.log.Debug("pipeline: new reveal session", "from", s.session, "to", snap.Session)
		}
		s.rec.Reset()
		s.session = snap.Session
	}
	return s.rec.Apply(nodes)
}

// Attach renders every prefix and the completed text published by src.
// The returned func detaches the session.
func (s *Session[H]) Attach(src reveal.Source) (detach func()) {
	apply := func(snap reveal.Snapshot) { s.Apply(snap) }
	unsubPrefix := src.Subscribe(apply)
	unsubDone := src.OnComplete(apply)
	return func() {
		unsubPrefix()
		unsubDone()
	}
}

// Reset destroys all live elements.
func (s *Session[H]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Reset()
	s.session = 0
}

// Nodes returns the currently displayed node sequence.
func (s *Session[H]) Nodes() []render.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Nodes()
}

// Handles returns the live view handles in document order.
func (s *Session[H]) Handles() []H {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Handles()
}

// Stats returns reconciliation counters for the current reveal session.
func (s *Session[H]) Stats() reconcile.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Stats()
}
