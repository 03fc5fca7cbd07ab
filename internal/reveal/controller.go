package reveal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the tick period, roughly one frame at 60fps.
const DefaultInterval = 16 * time.Millisecond

// ErrStopped is returned by Run when the controller is stopped.
var ErrStopped = errors.New("reveal: stopped")

// Controller reveals a target text in adaptive chunks, one chunk per tick.
//
// Operations and observer delivery are serialized: once Stop returns, no
// further notification fires. Observers run on the goroutine that caused
// the notification and must not call Start, Update, Stop, Resume, SkipToEnd
// or Tick synchronously; Snapshot and State are safe to call.
type Controller struct {
	opMu sync.Mutex // serializes operations and delivery

	mu       sync.Mutex // guards the fields below
	state    State
	full     string
	revealed int
	session  uint64
	gen      uint64
	wake     chan struct{}

	hub hub

	policy    ChunkPolicy
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPolicy sets the chunk policy.
func WithPolicy(p ChunkPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTicker replaces the ticker used by Run.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(c *Controller) { c.newTicker = f }
}

// NewController creates an idle controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		policy:    DefaultPolicy(),
		interval:  DefaultInterval,
		newTicker: newTimeTicker,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the tick period.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// Subscribe registers fn for every revealed prefix.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	return c.hub.subscribe(fn)
}

// OnComplete registers fn for the transition to Completed.
func (c *Controller) OnComplete(fn func(Snapshot)) func() {
	return c.hub.onComplete(fn)
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Text:     c.full[:c.revealed],
		Revealed: c.revealed,
		Total:    len(c.full),
		Session:  c.session,
		State:    c.state,
	}
}

func (c *Controller) setStateLocked(to State) bool {
	if !c.state.CanTransition(to) {
		c.log.Warn("reveal: invalid transition", "from", c.state, "to", to)
		return false
	}
	if c.state != to {
		c.log.Debug("reveal: transition", "from", c.state, "to", to, "session", c.session)
	}
	c.state = to
	if to == Running || to == Stopped {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	return true
}

// Start begins a new session revealing text from zero.
func (c *Controller) Start(text string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(text)
}

func (c *Controller) startLocked(text string) {
	c.full = text
	c.revealed = 0
	c.session++
	c.setStateLocked(Running)
}

// Update swaps in a new target text. Text shorter than what is already
// revealed restarts the session as Start does. Otherwise the revealed
// prefix is kept and a completed reveal resumes ticking. A stopped
// controller keeps the new text but stays stopped.
func (c *Controller) Update(text string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Idle || len(text) < c.revealed {
		c.startLocked(text)
		return
	}
	c.full = text
	c.revealed = advance(text, c.revealed, 0)
	if c.state == Completed && c.revealed < len(text) {
		c.setStateLocked(Running)
	}
}

// Stop cancels ticking. No notification fires after Stop returns.
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Stopped {
		c.setStateLocked(Stopped)
	}
}

// Resume continues a stopped session from its revealed prefix. It reports
// whether the controller was stopped.
func (c *Controller) Resume() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Stopped || c.session == 0 {
		return false
	}
	return c.setStateLocked(Running)
}

// SkipToEnd reveals the whole target text at once with a single
// notification. A stopped or idle controller is left unchanged.
func (c *Controller) SkipToEnd() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state == Idle || c.state == Stopped {
		c.mu.Unlock()
		return
	}
	wasRunning := c.state == Running
	c.revealed = len(c.full)
	c.setStateLocked(Completed)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.hub.notify(snap)
	if wasRunning {
		c.hub.completed(snap)
	}
}

// Tick releases one chunk. It reports whether further ticks are needed;
// false means the controller is no longer running.
func (c *Controller) Tick() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return false
	}
	remaining := len(c.full) - c.revealed
	if remaining <= 0 {
		c.setStateLocked(Completed)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.hub.completed(snap)
		return false
	}
	c.revealed = advance(c.full, c.revealed, min(c.policy.Size(remaining), remaining))
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.hub.notify(snap)
	return true
}

// Run ticks the controller until it is stopped or ctx is done. While idle
// or completed it waits for Start, Update or Resume to set it running
// again. Run returns ErrStopped when stopped and ctx.Err() on cancellation.
func (c *Controller) Run(ctx context.Context) error {
	t := c.newTicker(c.interval)
	defer t.Stop()
	for {
		switch c.State() {
		case Idle, Completed:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		case Stopped:
			return ErrStopped
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		case <-t.C():
			c.Tick()
		}
	}
}

// Ticker is the clock Run waits on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }
