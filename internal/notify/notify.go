// Package notify carries user-facing notices from the managers to whatever
// is drawing the screen.
package notify

import "sync"

type Level int

const (
	Info Level = iota
	Alert
)

func (l Level) String() string {
	if l == Alert {
		return "alert"
	}
	return "info"
}

type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(Notice)
}

// Func adapts a plain function to a Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Recorder keeps every notice it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
