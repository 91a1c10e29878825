// Package notes keeps the freeform notes list and the single in-progress
// edit.
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daybook/internal/notify"
	"daybook/internal/persist"
	"daybook/internal/storage"
)

const Key = "notes"

var (
	ErrEmptyText = errors.New("note is empty")
	ErrNotFound  = errors.New("note not found")
)

type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Option func(*Manager)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

type Manager struct {
	w        *persist.Writer
	notifier notify.Notifier
	log      *zap.SugaredLogger

	mu      sync.Mutex
	notes   []Note
	editing string
}

func New(w *persist.Writer, notifier notify.Notifier, opts ...Option) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	m := &Manager{
		w:        w,
		notifier: notifier,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the notes with the stored list. Notes saved without an id
// get one here.
func (m *Manager) Load(ctx context.Context, kv storage.KV) {
	var stored []Note
	if !persist.Load(ctx, kv, Key, &stored, m.log) {
		stored = nil
	}
	for i := range stored {
		if stored[i].ID == "" {
			stored[i].ID = uuid.NewString()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = stored
	m.editing = ""
	m.log.Debugw("notes loaded", "count", len(m.notes))
}

// Save writes text into the note under edit, or appends a new note when
// no edit is in progress. Edit mode ends either way.
func (m *Manager) Save(text string) (Note, error) {
	if strings.TrimSpace(text) == "" {
		return Note{}, ErrEmptyText
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var saved Note
	if i := m.indexLocked(m.editing); m.editing != "" && i >= 0 {
		m.notes[i].Text = text
		saved = m.notes[i]
	} else {
		saved = Note{ID: uuid.NewString(), Text: text}
		m.notes = append(m.notes, saved)
	}
	m.editing = ""
	m.saveLocked()
	return saved, nil
}

// BeginEdit puts the note into edit mode and returns its text for the
// input buffer.
func (m *Manager) BeginEdit(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return "", ErrNotFound
	}
	m.editing = id
	return m.notes[i].Text, nil
}

func (m *Manager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = ""
}

func (m *Manager) Editing() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editing, m.editing != ""
}

// Delete removes the note. Deleting the note under edit ends edit mode.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return false
	}
	m.notes = append(m.notes[:i:i], m.notes[i+1:]...)
	if m.editing == id {
		m.editing = ""
	}
	m.saveLocked()
	return true
}

func (m *Manager) Notes() []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Note(nil), m.notes...)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

func (m *Manager) indexLocked(id string) int {
	for i, n := range m.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) saveLocked() {
	notes := m.notes
	if notes == nil {
		notes = []Note{}
	}
	m.w.Save(Key, notes, func(err error) {
		m.log.Errorw("failed to save notes", "error", err)
		m.notifier.Notify(notify.Notice{Level: notify.Alert, Message: "Failed to save notes: " + err.Error()})
	})
}
