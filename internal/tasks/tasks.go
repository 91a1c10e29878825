// Package tasks keeps the calendar to-do list: tasks grouped by day plus
// the set of task ids marked done.
package tasks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"daybook/internal/clock"
	"daybook/internal/persist"
	"daybook/internal/storage"
)

const (
	KeyTasks   = "tasks"
	KeyChecked = "checkedTasks"

	DateLayout = "2006-01-02"
)

var (
	ErrEmptyText = errors.New("task text is empty")
	ErrNoDate    = errors.New("no date selected")
	ErrBadDate   = errors.New("date must look like YYYY-MM-DD")
)

// Task ids are creation timestamps in unix nanoseconds.
type Task struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type Option func(*Manager)

func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clk = c }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

type Manager struct {
	w   *persist.Writer
	clk clock.Clock
	log *zap.SugaredLogger

	mu       sync.Mutex
	buckets  map[string][]Task
	checked  []int64
	selected string
	lastID   int64
}

func New(w *persist.Writer, opts ...Option) *Manager {
	m := &Manager{
		w:       w,
		clk:     clock.Real(),
		log:     zap.NewNop().Sugar(),
		buckets: map[string][]Task{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the in-memory lists with what kv holds. Missing or
// unreadable entries load as empty.
func (m *Manager) Load(ctx context.Context, kv storage.KV) {
	var buckets map[string][]Task
	if !persist.Load(ctx, kv, KeyTasks, &buckets, m.log) {
		buckets = nil
	}
	var checked []int64
	if !persist.Load(ctx, kv, KeyChecked, &checked, m.log) {
		checked = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets = map[string][]Task{}
	for date, list := range buckets {
		if len(list) == 0 {
			continue
		}
		m.buckets[date] = list
		for _, t := range list {
			if t.ID > m.lastID {
				m.lastID = t.ID
			}
		}
	}
	m.checked = checked
	m.log.Debugw("tasks loaded", "days", len(m.buckets), "checked", len(m.checked))
}

func (m *Manager) SelectDate(dateKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = dateKey
}

func (m *Manager) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// ShiftDate moves the selected date by days, starting from today when
// nothing valid is selected, and returns the new date key.
func (m *Manager) ShiftDate(days int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, err := time.Parse(DateLayout, m.selected)
	if err != nil {
		now := m.clk.Now()
		base = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	m.selected = base.AddDate(0, 0, days).Format(DateLayout)
	return m.selected
}

func (m *Manager) AddTask(dateKey, text string) (Task, error) {
	if strings.TrimSpace(text) == "" {
		return Task{}, ErrEmptyText
	}
	if dateKey == "" {
		return Task{}, ErrNoDate
	}
	if _, err := time.Parse(DateLayout, dateKey); err != nil {
		return Task{}, ErrBadDate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t := Task{ID: m.nextIDLocked(), Text: text}
	m.buckets[dateKey] = append(m.buckets[dateKey], t)
	m.saveTasksLocked()
	return t, nil
}

// DeleteTask removes the task and, with it, its done mark. A day left
// without tasks is dropped.
func (m *Manager) DeleteTask(dateKey string, id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, ok := m.buckets[dateKey]
	if !ok {
		return false
	}
	idx := -1
	for i, t := range list {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	list = append(list[:idx:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(m.buckets, dateKey)
	} else {
		m.buckets[dateKey] = list
	}
	m.saveTasksLocked()

	if i := m.checkedIndexLocked(id); i >= 0 {
		m.checked = append(m.checked[:i:i], m.checked[i+1:]...)
		m.saveCheckedLocked()
	}
	return true
}

// ToggleCheck flips the done mark of id and reports whether it is now set.
func (m *Manager) ToggleCheck(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	checked := true
	if i := m.checkedIndexLocked(id); i >= 0 {
		m.checked = append(m.checked[:i:i], m.checked[i+1:]...)
		checked = false
	} else {
		m.checked = append(m.checked, id)
	}
	m.saveCheckedLocked()
	return checked
}

func (m *Manager) IsChecked(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkedIndexLocked(id) >= 0
}

// Checked returns the done marks in the order they were set.
func (m *Manager) Checked() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.checked...)
}

// VisibleTasks lists the day's tasks with unchecked ones first. Each group
// keeps insertion order.
func (m *Manager) VisibleTasks(dateKey string) []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.buckets[dateKey]
	out := make([]Task, 0, len(list))
	var done []Task
	for _, t := range list {
		if m.checkedIndexLocked(t.ID) >= 0 {
			done = append(done, t)
			continue
		}
		out = append(out, t)
	}
	return append(out, done...)
}

// Dates lists the days that have at least one task, oldest first.
func (m *Manager) Dates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	dates := make([]string, 0, len(m.buckets))
	for d := range m.buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (m *Manager) nextIDLocked() int64 {
	id := m.clk.Now().UnixNano()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

func (m *Manager) checkedIndexLocked(id int64) int {
	for i, c := range m.checked {
		if c == id {
			return i
		}
	}
	return -1
}

func (m *Manager) saveTasksLocked() {
	m.w.Save(KeyTasks, m.buckets, func(err error) {
		m.log.Errorw("failed to save tasks", "error", err)
	})
}

func (m *Manager) saveCheckedLocked() {
	checked := m.checked
	if checked == nil {
		checked = []int64{}
	}
	m.w.Save(KeyChecked, checked, func(err error) {
		m.log.Errorw("failed to save checked tasks", "error", err)
	})
}
