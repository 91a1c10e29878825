// Package reminders keeps one-shot reminders that flip to expired when
// their time comes.
package reminders

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daybook/internal/clock"
	"daybook/internal/notify"
	"daybook/internal/persist"
	"daybook/internal/storage"
)

const (
	Key            = "reminders"
	DefaultMessage = "Time to do your task!"
)

var (
	ErrNoTime   = errors.New("please select a time")
	ErrPastTime = errors.New("selected time is in the past")
)

type Reminder struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Message   string    `json:"message"`
	IsExpired bool      `json:"isExpired"`
}

type Option func(*Manager)

// WithWriter turns on persistence. Without it reminders live only as
// long as the process.
func WithWriter(w *persist.Writer) Option {
	return func(m *Manager) { m.w = w }
}

func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithOnChange registers fn to run after a reminder expires. It is called
// from the timer's goroutine without the manager lock held.
func WithOnChange(fn func()) Option {
	return func(m *Manager) { m.onChange = fn }
}

// WithDefaultMessage overrides the text used when a reminder is set
// without a message.
func WithDefaultMessage(msg string) Option {
	return func(m *Manager) {
		if strings.TrimSpace(msg) != "" {
			m.defaultMessage = msg
		}
	}
}

type Manager struct {
	clk            clock.Clock
	w              *persist.Writer
	notifier       notify.Notifier
	log            *zap.SugaredLogger
	onChange       func()
	defaultMessage string

	mu        sync.Mutex
	reminders []Reminder
	timers    map[string]*clock.Timer
}

func New(clk clock.Clock, opts ...Option) *Manager {
	m := &Manager{
		clk:            clk,
		notifier:       notify.Discard,
		log:            zap.NewNop().Sugar(),
		onChange:       func() {},
		defaultMessage: DefaultMessage,
		timers:         map[string]*clock.Timer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Persistent reports whether reminders are written to the store.
func (m *Manager) Persistent() bool {
	return m.w != nil
}

// Load restores stored reminders. Ones whose time has passed come back
// expired; the rest are scheduled again. It does nothing when
// persistence is off.
func (m *Manager) Load(ctx context.Context, kv storage.KV) {
	if m.w == nil {
		return
	}
	var stored []Reminder
	if !persist.Load(ctx, kv, Key, &stored, m.log) {
		stored = nil
	}

	m.mu.Lock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = map[string]*clock.Timer{}
	m.reminders = nil

	now := m.clk.Now()
	overdue := 0
	var pending []Reminder
	for _, r := range stored {
		if r.ID == "" {
			continue
		}
		if !r.IsExpired && !r.Time.After(now) {
			r.IsExpired = true
			overdue++
		}
		m.reminders = append(m.reminders, r)
		if !r.IsExpired {
			pending = append(pending, r)
		}
	}
	if overdue > 0 {
		m.saveLocked()
	}
	m.mu.Unlock()

	for _, r := range pending {
		m.schedule(r.ID, r.Time.Sub(now))
	}
	m.log.Debugw("reminders loaded", "count", len(stored), "overdue", overdue)
}

// Set adds a pending reminder for at. An empty message gets the default.
func (m *Manager) Set(at time.Time, message string) (Reminder, error) {
	if at.IsZero() {
		return Reminder{}, ErrNoTime
	}
	now := m.clk.Now()
	if !at.After(now) {
		return Reminder{}, ErrPastTime
	}
	if strings.TrimSpace(message) == "" {
		message = m.defaultMessage
	}

	r := Reminder{
		ID:      uuid.NewString(),
		Time:    at,
		Message: message,
	}
	m.mu.Lock()
	m.reminders = append(m.reminders, r)
	m.saveLocked()
	m.mu.Unlock()

	m.schedule(r.ID, at.Sub(now))
	return r, nil
}

// Delete removes the reminder and stops its timer.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return false
	}
	m.reminders = append(m.reminders[:i:i], m.reminders[i+1:]...)
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	m.saveLocked()
	return true
}

// Visible lists pending reminders before expired ones, each group by
// time.
func (m *Manager) Visible() []Reminder {
	m.mu.Lock()
	out := append([]Reminder(nil), m.reminders...)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsExpired != out[j].IsExpired {
			return !out[i].IsExpired
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Close stops every pending timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}

func (m *Manager) schedule(id string, d time.Duration) {
	t := m.clk.AfterFunc(d, func() { m.expire(id) })
	m.mu.Lock()
	defer m.mu.Unlock()
	// The callback may already have run, or the reminder may be gone.
	if i := m.indexLocked(id); i >= 0 && !m.reminders[i].IsExpired {
		m.timers[id] = t
		return
	}
	t.Stop()
}

// expire flips a pending reminder to expired. Reminders that were deleted
// or already expired are left alone.
func (m *Manager) expire(id string) {
	m.mu.Lock()
	delete(m.timers, id)
	i := m.indexLocked(id)
	if i < 0 || m.reminders[i].IsExpired {
		m.mu.Unlock()
		return
	}
	m.reminders[i].IsExpired = true
	msg := m.reminders[i].Message
	m.saveLocked()
	m.mu.Unlock()

	m.log.Infow("reminder expired", "id", id)
	m.notifier.Notify(notify.Notice{Level: notify.Info, Message: msg})
	m.onChange()
}

func (m *Manager) indexLocked(id string) int {
	for i, r := range m.reminders {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) saveLocked() {
	if m.w == nil {
		return
	}
	list := m.reminders
	if list == nil {
		list = []Reminder{}
	}
	m.w.Save(Key, list, func(err error) {
		m.log.Errorw("failed to save reminders", "error", err)
		m.notifier.Notify(notify.Notice{Level: notify.Alert, Message: "Failed to save reminders: " + err.Error()})
	})
}
