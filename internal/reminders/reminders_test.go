package reminders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/clock"
	"daybook/internal/notify"
	"daybook/internal/persist"
	"daybook/internal/storage"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func flush(t *testing.T, w *persist.Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Flush(ctx))
}

func messages(list []Reminder) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Message)
	}
	return out
}

func TestSetRejectsUnsetAndPastTimes(t *testing.T) {
	clk := clock.Fake(epoch)
	m := New(clk)

	_, err := m.Set(time.Time{}, "x")
	assert.ErrorIs(t, err, ErrNoTime)
	_, err = m.Set(epoch, "now is too late")
	assert.ErrorIs(t, err, ErrPastTime)
	_, err = m.Set(epoch.Add(-time.Minute), "past")
	assert.ErrorIs(t, err, ErrPastTime)

	assert.Empty(t, m.Visible())
	assert.Equal(t, 0, clk.PendingCount())
}

func TestSetDefaultsMessage(t *testing.T) {
	m := New(clock.Fake(epoch))
	r, err := m.Set(epoch.Add(time.Hour), "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultMessage, r.Message)
	assert.False(t, r.IsExpired)
	assert.NotEmpty(t, r.ID)

	custom := New(clock.Fake(epoch), WithDefaultMessage("Ping"))
	r, err = custom.Set(epoch.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, "Ping", r.Message)
}

func TestExpiresExactlyOnceAtDeadline(t *testing.T) {
	clk := clock.Fake(epoch)
	var changes atomic.Int32
	rec := &notify.Recorder{}
	m := New(clk, WithOnChange(func() { changes.Add(1) }), WithNotifier(rec))

	_, err := m.Set(epoch.Add(10*time.Minute), "stretch")
	require.NoError(t, err)

	clk.Advance(10*time.Minute - time.Millisecond)
	assert.False(t, m.Visible()[0].IsExpired)

	clk.Advance(time.Millisecond)
	assert.True(t, m.Visible()[0].IsExpired)
	assert.Equal(t, int32(1), changes.Load())

	clk.Advance(time.Hour)
	assert.True(t, m.Visible()[0].IsExpired)
	assert.Equal(t, int32(1), changes.Load())
	assert.Equal(t, []notify.Notice{{Level: notify.Info, Message: "stretch"}}, rec.Notices())
}

func TestDeleteBeforeExpiry(t *testing.T) {
	clk := clock.Fake(epoch)
	m := New(clk)
	r, err := m.Set(epoch.Add(time.Minute), "gone")
	require.NoError(t, err)

	assert.True(t, m.Delete(r.ID))
	assert.Equal(t, 0, clk.PendingCount(), "timer is stopped on delete")

	clk.Advance(time.Hour)
	assert.Empty(t, m.Visible())
	assert.False(t, m.Delete(r.ID))
}

func TestStaleCallbackIsNoop(t *testing.T) {
	m := New(clock.Fake(epoch))
	r, err := m.Set(epoch.Add(time.Minute), "gone")
	require.NoError(t, err)
	m.Delete(r.ID)

	assert.NotPanics(t, func() { m.expire(r.ID) })
	assert.Empty(t, m.Visible())
}

func TestVisibleOrdering(t *testing.T) {
	clk := clock.Fake(epoch)
	m := New(clk)
	for _, s := range []struct {
		in  time.Duration
		msg string
	}{
		{30 * time.Minute, "c"},
		{5 * time.Minute, "a"},
		{2 * time.Hour, "d"},
		{10 * time.Minute, "b"},
	} {
		_, err := m.Set(epoch.Add(s.in), s.msg)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, messages(m.Visible()))

	clk.Advance(15 * time.Minute)
	assert.Equal(t, []string{"c", "d", "a", "b"}, messages(m.Visible()))
}

func TestWithoutWriterNothingIsStored(t *testing.T) {
	kv := storage.NewMemory()
	m := New(clock.Fake(epoch))
	assert.False(t, m.Persistent())
	_, err := m.Set(epoch.Add(time.Minute), "ephemeral")
	require.NoError(t, err)

	m.Load(context.Background(), kv)
	assert.Len(t, m.Visible(), 1, "Load is a no-op without persistence")
	_, found, err := kv.Get(context.Background(), Key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersistAndReload(t *testing.T) {
	kv := storage.NewMemory()
	w := persist.NewWriter(kv)
	defer w.Close()

	clk := clock.Fake(epoch)
	m := New(clk, WithWriter(w))
	assert.True(t, m.Persistent())
	_, err := m.Set(epoch.Add(time.Minute), "soon")
	require.NoError(t, err)
	_, err = m.Set(epoch.Add(time.Hour), "later")
	require.NoError(t, err)
	flush(t, w)
	m.Close()

	// Restart half an hour later: "soon" has passed while the app was closed.
	later := clock.Fake(epoch.Add(30 * time.Minute))
	reloaded := New(later, WithWriter(w))
	reloaded.Load(context.Background(), kv)
	got := reloaded.Visible()
	require.Len(t, got, 2)
	assert.Equal(t, "later", got[0].Message)
	assert.False(t, got[0].IsExpired)
	assert.Equal(t, "soon", got[1].Message)
	assert.True(t, got[1].IsExpired)
	assert.Equal(t, 1, later.PendingCount())

	later.Advance(30 * time.Minute)
	assert.True(t, reloaded.Visible()[1].IsExpired)
	flush(t, w)

	var stored []Reminder
	require.True(t, persist.Load(context.Background(), kv, Key, &stored, nil))
	for _, r := range stored {
		assert.True(t, r.IsExpired, r.Message)
	}
}

type failingKV struct{ storage.KV }

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("read-only")
}

func TestWriteFailureAlerts(t *testing.T) {
	rec := &notify.Recorder{}
	w := persist.NewWriter(failingKV{storage.NewMemory()})
	defer w.Close()
	m := New(clock.Fake(epoch), WithWriter(w), WithNotifier(rec))

	_, err := m.Set(epoch.Add(time.Minute), "x")
	require.NoError(t, err)
	flush(t, w)

	assert.Len(t, m.Visible(), 1)
	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.Alert, notices[0].Level)
}

func TestCloseStopsTimers(t *testing.T) {
	clk := clock.Fake(epoch)
	m := New(clk)
	_, err := m.Set(epoch.Add(time.Minute), "a")
	require.NoError(t, err)
	_, err = m.Set(epoch.Add(2*time.Minute), "b")
	require.NoError(t, err)

	m.Close()
	assert.Equal(t, 0, clk.PendingCount())
}
