package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/clock"
	"daybook/internal/config"
	"daybook/internal/notes"
	"daybook/internal/notify"
	"daybook/internal/persist"
	"daybook/internal/reminders"
	"daybook/internal/storage"
	"daybook/internal/tasks"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	m   Model
	clk *clock.FakeClock
	w   *persist.Writer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := storage.NewMemory()
	w := persist.NewWriter(kv)
	t.Cleanup(w.Close)
	clk := clock.Fake(epoch)
	cfg, err := config.LoadOrCreate(t.TempDir() + "/config.toml")
	require.NoError(t, err)

	deps := Deps{
		Tasks:     tasks.New(w, tasks.WithClock(clk)),
		Notes:     notes.New(w, nil),
		Reminders: reminders.New(clk),
		Clock:     clk,
	}
	return &harness{m: New(deps, cfg), clk: clk, w: w}
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := h.m.Update(msg)
		h.m = next.(Model)
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.press(string(r))
	}
}

func TestStartsOnToday(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "2024-05-01", h.m.deps.Tasks.Selected())
	assert.Contains(t, h.m.View(), "Day 2024-05-01")
}

func TestAddAndToggleTasks(t *testing.T) {
	h := newHarness(t)
	h.press("a")
	h.typeText("Buy milk")
	h.press("enter", "a")
	h.typeText("Pay rent")
	h.press("enter")

	h.press("k", " ")
	list := h.m.deps.Tasks.VisibleTasks("2024-05-01")
	require.Len(t, list, 2)
	assert.Equal(t, "Pay rent", list[0].Text)
	assert.Equal(t, "Buy milk", list[1].Text)
	assert.True(t, h.m.deps.Tasks.IsChecked(list[1].ID))
}

func TestEmptyTaskIsDroppedSilently(t *testing.T) {
	h := newHarness(t)
	h.press("a")
	h.typeText("   ")
	h.press("enter")
	assert.Empty(t, h.m.deps.Tasks.Dates())
	assert.Equal(t, modeAdd, h.m.mode)
	assert.False(t, h.m.alert)
}

func TestDayNavigationAndPicker(t *testing.T) {
	h := newHarness(t)
	h.press("]")
	assert.Equal(t, "2024-05-02", h.m.deps.Tasks.Selected())

	h.press("g")
	h.m.input.SetValue("")
	h.typeText("2024-12-24")
	h.press("enter")
	assert.Equal(t, "2024-12-24", h.m.deps.Tasks.Selected())

	h.press("g")
	h.m.input.SetValue("")
	h.typeText("tomorrow")
	h.press("enter")
	assert.True(t, h.m.alert)
	assert.Equal(t, "2024-12-24", h.m.deps.Tasks.Selected())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.press("a")
	h.typeText("Buy milk")
	h.press("enter", "d", "n")
	assert.Len(t, h.m.deps.Tasks.VisibleTasks("2024-05-01"), 1)

	h.press("d", "y")
	assert.Empty(t, h.m.deps.Tasks.Dates())
}

func TestNotesCreateAndEdit(t *testing.T) {
	h := newHarness(t)
	h.press("tab", "a")
	h.typeText("Hello")
	h.press("enter")
	require.Equal(t, 1, h.m.deps.Notes.Len())

	h.press("e")
	assert.Equal(t, "Hello", h.m.input.Value())
	h.typeText(" world")
	h.press("enter")

	got := h.m.deps.Notes.Notes()
	require.Len(t, got, 1)
	assert.Equal(t, "Hello world", got[0].Text)
	assert.Equal(t, "Note updated", h.m.status)
}

func TestReminderFlow(t *testing.T) {
	h := newHarness(t)
	h.press("tab", "tab", "a")
	h.typeText("08:00")
	h.press("enter")
	assert.Equal(t, modeReminderMessage, h.m.mode)
	h.press("enter")
	assert.True(t, h.m.alert)
	assert.Contains(t, h.m.status, "past")
	assert.Equal(t, modeReminderTime, h.m.mode)

	h.typeText("09:30")
	h.press("enter")
	h.typeText("Stand up")
	h.press("enter")

	list := h.m.deps.Reminders.Visible()
	require.Len(t, list, 1)
	assert.Equal(t, "Stand up", list[0].Message)

	h.clk.Advance(30 * time.Minute)
	next, _ := h.m.Update(refreshMsg{})
	h.m = next.(Model)
	assert.True(t, h.m.deps.Reminders.Visible()[0].IsExpired)
}

func TestNoticeMsgSetsStatus(t *testing.T) {
	h := newHarness(t)
	next, _ := h.m.Update(noticeMsg(notify.Notice{Level: notify.Alert, Message: "Failed to save notes"}))
	h.m = next.(Model)
	assert.True(t, h.m.alert)
	assert.True(t, strings.Contains(h.m.View(), "Failed to save notes"))
}

func TestThemeToggle(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.m.dark)
	h.press("t")
	assert.True(t, h.m.dark)
	assert.NotEmpty(t, h.m.View())
}

func TestParseWhen(t *testing.T) {
	got, err := parseWhen("17:45", epoch)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 17, 45, 0, 0, time.UTC), got)

	got, err = parseWhen("2024-05-03 07:00", epoch)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 3, 7, 0, 0, 0, time.UTC), got)

	_, err = parseWhen("", epoch)
	assert.ErrorIs(t, err, reminders.ErrNoTime)
	_, err = parseWhen("soon", epoch)
	assert.Error(t, err)
}

func TestBridgeQueuesUntilAttached(t *testing.T) {
	b := NewBridge()
	b.Notify(notify.Notice{Message: "early"})
	b.Refresh()
	assert.Len(t, b.queued, 2)
}

func TestWritesReachStore(t *testing.T) {
	h := newHarness(t)
	h.press("a")
	h.typeText("persist me")
	h.press("enter")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.w.Flush(ctx))
}
