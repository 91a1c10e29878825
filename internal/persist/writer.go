// Package persist moves manager state in and out of a storage.KV.
//
// Writes are whole-collection snapshots handed to a Writer, which applies
// them in the background in the order they were saved. Callers never wait
// for a write and never see its error directly; a failure is passed to the
// callback given with the snapshot.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"daybook/internal/storage"
)

var ErrClosed = errors.New("persist: writer closed")

const defaultWriteTimeout = 5 * time.Second

type Option func(*Writer)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(w *Writer) { w.log = log }
}

// WithTimeout bounds a single store write.
func WithTimeout(d time.Duration) Option {
	return func(w *Writer) { w.timeout = d }
}

type snapshot struct {
	data  []byte
	onErr func(error)
}

type Writer struct {
	kv      storage.KV
	log     *zap.SugaredLogger
	timeout time.Duration

	mu      sync.Mutex
	wake    *sync.Cond
	order   []string
	pending map[string]snapshot
	writing bool
	closed  bool
	idle    []chan struct{}
	done    chan struct{}
}

func NewWriter(kv storage.KV, opts ...Option) *Writer {
	w := &Writer{
		kv:      kv,
		log:     zap.NewNop().Sugar(),
		timeout: defaultWriteTimeout,
		pending: map[string]snapshot{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.wake = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Save snapshots v under key and returns immediately. A snapshot still
// waiting for an earlier one to land is replaced by the newer one.
// onErr may be nil.
func (w *Writer) Save(key string, v any, onErr func(error)) {
	data, err := json.Marshal(v)
	if err != nil {
		report(onErr, err)
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		report(onErr, ErrClosed)
		return
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = snapshot{data: data, onErr: onErr}
	w.mu.Unlock()
	w.wake.Signal()
}

// Flush blocks until every snapshot saved so far has been written or ctx
// is done.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.idleLocked() {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.idle = append(w.idle, ch)
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the background goroutine. Saves after
// Close fail with ErrClosed.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()
	w.wake.Broadcast()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.order) == 0 && !w.closed {
			w.wake.Wait()
		}
		if len(w.order) == 0 {
			w.releaseIdleLocked()
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		snap := w.pending[key]
		delete(w.pending, key)
		w.writing = true
		w.mu.Unlock()

		w.write(key, snap)

		w.mu.Lock()
		w.writing = false
		if w.idleLocked() {
			w.releaseIdleLocked()
		}
		w.mu.Unlock()
	}
}

func (w *Writer) write(key string, snap snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.kv.Set(ctx, key, snap.data); err != nil {
		if snap.onErr == nil {
			w.log.Errorw("store write failed", "key", key, "error", err)
			return
		}
		snap.onErr(err)
		return
	}
	w.log.Debugw("store write", "key", key, "bytes", len(snap.data))
}

func (w *Writer) idleLocked() bool {
	return len(w.order) == 0 && !w.writing
}

func (w *Writer) releaseIdleLocked() {
	for _, ch := range w.idle {
		close(ch)
	}
	w.idle = nil
}

func report(onErr func(error), err error) {
	if onErr != nil {
		onErr(err)
	}
}
