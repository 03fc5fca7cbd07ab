package reveal

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg drives a Controller from a bubbletea program.
type TickMsg struct {
	gen  uint64
	ctrl *Controller
}

// TickCmd starts a new tick chain. Ticks from chains started earlier are
// dropped by HandleTick, so call TickCmd after Start, Update or Resume
// without tracking whether a chain is already running.
func (c *Controller) TickCmd() tea.Cmd {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func (c *Controller) tick(gen uint64) tea.Cmd {
	return tea.Tick(c.interval, func(time.Time) tea.Msg {
		return TickMsg{gen: gen, ctrl: c}
	})
}

// HandleTick advances the controller for msg and returns the command for
// the next tick, or nil when the chain ends or msg is stale.
func (c *Controller) HandleTick(msg TickMsg) tea.Cmd {
	if msg.ctrl != c {
		return nil
	}
	c.mu.Lock()
	current := msg.gen == c.gen
	c.mu.Unlock()
	if !current || !c.Tick() {
		return nil
	}
	return c.tick(msg.gen)
}
