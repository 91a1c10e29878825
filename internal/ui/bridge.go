package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"daybook/internal/notify"
)

type noticeMsg notify.Notice

type refreshMsg struct{}

// Bridge hands manager notices and reminder expiries to the running
// program. Anything raised before Attach is queued.
type Bridge struct {
	mu     sync.Mutex
	p      *tea.Program
	queued []tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) Notify(n notify.Notice) {
	b.send(noticeMsg(n))
}

// Refresh asks the UI to redraw from manager state.
func (b *Bridge) Refresh() {
	b.send(refreshMsg{})
}

func (b *Bridge) attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
	for _, msg := range b.queued {
		go p.Send(msg)
	}
	b.queued = nil
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.p == nil {
		b.queued = append(b.queued, msg)
		return
	}
	// Send blocks until the event loop reads it, and managers may notify
	// from inside Update.
	go b.p.Send(msg)
}
