package reveal

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Feed reveals chunks pushed by an upstream source, such as a token stream,
// instead of sizing chunks itself. Every Push yields exactly one prefix
// notification. Delivery is serialized the same way as for Controller.
type Feed struct {
	opMu sync.Mutex

	mu      sync.Mutex
	text    strings.Builder
	session uint64
	state   State

	hub hub
	log *slog.Logger
}

// NewFeed creates a feed ready to accept chunks.
func NewFeed(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Feed{log: log, session: 1, state: Running}
}

func (f *Feed) Subscribe(fn func(Snapshot)) func()  { return f.hub.subscribe(fn) }
func (f *Feed) OnComplete(fn func(Snapshot)) func() { return f.hub.onComplete(fn) }

func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) snapshotLocked() Snapshot {
	s := f.text.String()
	return Snapshot{Text: s, Revealed: len(s), Total: len(s), Session: f.session, State: f.state}
}

// Push appends chunk and notifies observers. Chunks pushed after Finish
// are dropped.
func (f *Feed) Push(chunk string) {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	f.mu.Lock()
	if f.state != Running {
		f.mu.Unlock()
		f.log.Debug("reveal: chunk after finish dropped", "bytes", len(chunk))
		return
	}
	f.text.WriteString(chunk)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.hub.notify(snap)
}

// Finish marks the upstream as done and fires completion once.
func (f *Feed) Finish() {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	f.mu.Lock()
	if f.state != Running {
		f.mu.Unlock()
		return
	}
	f.state = Completed
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.hub.completed(snap)
}

// Reset clears the text and starts a new session.
func (f *Feed) Reset() {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text.Reset()
	f.session++
	f.state = Running
}
