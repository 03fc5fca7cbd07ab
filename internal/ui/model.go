package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsaffron/mdstream/internal/pipeline"
	"github.com/samsaffron/mdstream/internal/reveal"
)

type imageChangedMsg struct{}

type pushTickMsg struct{ gen int }

// pusher feeds a document into a reveal.Feed in fixed chunks, standing in
// for a token stream.
type pusher struct {
	feed     *reveal.Feed
	text     string
	pos      int
	chunk    int
	interval time.Duration
	paused   bool
	gen      int
}

func (p *pusher) done() bool { return p.pos >= len(p.text) }

func (p *pusher) tick() tea.Cmd {
	p.gen++
	gen := p.gen
	return tea.Tick(p.interval, func(time.Time) tea.Msg { return pushTickMsg{gen: gen} })
}

// push sends the next chunk, extended to a rune boundary.
func (p *pusher) push() {
	end := min(p.pos+p.chunk, len(p.text))
	for end < len(p.text) && !isRuneStart(p.text[end]) {
		end++
	}
	p.feed.Push(p.text[p.pos:end])
	p.pos = end
	if p.done() {
		p.feed.Finish()
	}
}

func (p *pusher) flush() {
	if p.done() {
		return
	}
	p.feed.Push(p.text[p.pos:])
	p.pos = len(p.text)
	p.feed.Finish()
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Model is the bubbletea program showing one document as it is revealed.
type Model struct {
	view    *TerminalView
	session *pipeline.Session[*Block]
	styles  *Styles
	text    string

	ctrl   *reveal.Controller
	pusher *pusher

	viewport viewport.Model
	ready    bool
	follow   bool
}

// NewModel reveals text with ctrl. The session must already be attached
// to ctrl.
func NewModel(view *TerminalView, session *pipeline.Session[*Block], styles *Styles, ctrl *reveal.Controller, text string) *Model {
	return &Model{view: view, session: session, styles: styles, ctrl: ctrl, text: text, follow: true}
}

// NewFeedModel pushes text into feed chunk bytes at a time every interval.
// The session must already be attached to feed.
func NewFeedModel(view *TerminalView, session *pipeline.Session[*Block], styles *Styles, feed *reveal.Feed, text string, chunk int, interval time.Duration) *Model {
	return &Model{
		view:    view,
		session: session,
		styles:  styles,
		text:    text,
		pusher:  &pusher{feed: feed, text: text, chunk: max(chunk, 1), interval: interval},
		follow:  true,
	}
}

func (m *Model) waitForImage() tea.Cmd {
	ch := m.view.Changed()
	return func() tea.Msg {
		<-ch
		return imageChangedMsg{}
	}
}

// Init starts the reveal.
func (m *Model) Init() tea.Cmd {
	var start tea.Cmd
	if m.ctrl != nil {
		m.ctrl.Start(m.text)
		start = m.ctrl.TickCmd()
	} else {
		start = m.pusher.tick()
	}
	return tea.Batch(start, m.waitForImage())
}

// Update handles bubbletea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.SetWidth(msg.Width)
		height := max(msg.Height-1, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.ctrl != nil {
				m.ctrl.Stop()
			}
			return m, tea.Quit
		case "s":
			m.skip()
			m.follow = true
			m.refresh()
			return m, nil
		case "p":
			cmd = m.togglePause()
			m.refresh()
			return m, cmd
		}

	case reveal.TickMsg:
		if m.ctrl == nil {
			return m, nil
		}
		cmd = m.ctrl.HandleTick(msg)
		m.refresh()
		return m, cmd

	case pushTickMsg:
		p := m.pusher
		if p == nil || msg.gen != p.gen || p.paused || p.done() {
			return m, nil
		}
		p.push()
		m.refresh()
		if p.done() {
			return m, nil
		}
		return m, p.tick()

	case imageChangedMsg:
		m.refresh()
		return m, m.waitForImage()
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
	}
	return m, cmd
}

func (m *Model) skip() {
	if m.ctrl != nil {
		m.ctrl.SkipToEnd()
		return
	}
	m.pusher.flush()
}

func (m *Model) togglePause() tea.Cmd {
	if m.ctrl != nil {
		switch m.ctrl.State() {
		case reveal.Running:
			m.ctrl.Stop()
		case reveal.Stopped:
			if m.ctrl.Resume() {
				return m.ctrl.TickCmd()
			}
		}
		return nil
	}
	p := m.pusher
	p.paused = !p.paused
	if p.paused || p.done() {
		return nil
	}
	return p.tick()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.view.Render(m.session.Handles()))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// status describes the reveal for the footer line.
func (m *Model) status() string {
	if m.ctrl != nil {
		snap := m.ctrl.Snapshot()
		return fmt.Sprintf("%s %d/%d", m.ctrl.State(), snap.Revealed, snap.Total)
	}
	p := m.pusher
	state := "streaming"
	switch {
	case p.done():
		state = "done"
	case p.paused:
		state = "paused"
	}
	return fmt.Sprintf("%s %d/%d", state, p.pos, len(p.text))
}

// View renders the document and a footer line.
func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	stats := m.session.Stats()
	footer := fmt.Sprintf("%s · %d blocks · reused %d replaced %d · q quit · s skip · p pause",
		m.status(), len(m.session.Handles()), stats.Reused, stats.Replaced)
	return m.viewport.View() + "\n" + m.styles.Muted.Render(footer)
}
