package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"todo-app/kv"
	"todo-app/model"
)

// StorageKey is the record the canonical list is stored under.
const StorageKey = "todo_list_items"

var ErrClosed = errors.New("store is closed")

// Option customises an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithKey stores the list under a different key.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// Adapter loads the canonical list from a kv.Storage and writes snapshots
// back in the background. Only the newest pending snapshot is written.
type Adapter struct {
	storage kv.Storage
	key     string
	logger  *log.Logger
	now     func() time.Time

	mu         sync.Mutex
	pending    []model.Item
	hasPending bool
	accepted   uint64
	written    uint64
	progress   chan struct{}
	lastErr    error
	closed     bool

	wake   chan struct{}
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New starts an adapter over storage. Close must be called to stop the
// background writer.
func New(storage kv.Storage, opts ...Option) *Adapter {
	a := &Adapter{
		storage:  storage,
		key:      StorageKey,
		logger:   log.Default(),
		now:      time.Now,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.group, ctx = errgroup.WithContext(ctx)
	a.group.Go(func() error {
		a.run(ctx)
		return nil
	})
	return a
}

// Load reads the stored list. Missing or unreadable data yields an empty
// list; the failure is only logged. Unreadable blobs are copied aside first
// so the next save does not destroy them.
func (a *Adapter) Load(ctx context.Context) []model.Item {
	blob, err := a.storage.Get(ctx, a.key)
	if errors.Is(err, kv.ErrNotFound) {
		a.logger.Debug("no saved items", "key", a.key)
		return []model.Item{}
	}
	if err != nil {
		a.logger.Warn("reading saved items failed", "key", a.key, "err", err)
		return []model.Item{}
	}

	items, err := Decode(blob)
	if err != nil {
		a.logger.Warn("saved items are malformed, starting empty", "key", a.key, "err", err)
		a.quarantine(ctx, blob)
		return []model.Item{}
	}
	a.logger.Debug("loaded items", "key", a.key, "count", len(items))
	return items
}

// Save queues a snapshot for writing and returns immediately.
func (a *Adapter) Save(items []model.Item) {
	snapshot := model.CloneItems(items)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("dropping save after close", "count", len(snapshot))
		return
	}
	a.pending = snapshot
	a.hasPending = true
	a.accepted++
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot queued before the call has been written
// or has failed.
func (a *Adapter) Flush(ctx context.Context) error {
	a.mu.Lock()
	target := a.accepted
	for a.written < target {
		ch := a.progress
		a.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		a.mu.Lock()
	}
	a.mu.Unlock()
	return nil
}

// LastError returns the most recent write failure, if any.
func (a *Adapter) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Close flushes pending writes and stops the background writer. The
// underlying storage is left open.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.mu.Unlock()

	flushErr := a.Flush(ctx)

	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	if err := a.group.Wait(); err != nil {
		return err
	}
	return flushErr
}

func (a *Adapter) run(ctx context.Context) {
	// ctx only stops the loop. Writes use a context that survives Close so
	// snapshots that raced with it still land.
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			a.drain(writeCtx)
			return
		case <-a.wake:
		}
		a.drain(writeCtx)
	}
}

func (a *Adapter) drain(ctx context.Context) {
	for {
		a.mu.Lock()
		if !a.hasPending {
			a.mu.Unlock()
			return
		}
		items, seq := a.pending, a.accepted
		a.pending, a.hasPending = nil, false
		a.mu.Unlock()

		err := a.write(ctx, items)
		if err != nil {
			a.logger.Error("saving items failed", "key", a.key, "count", len(items), "err", err)
		}

		a.mu.Lock()
		a.written = seq
		if err != nil {
			a.lastErr = err
		}
		close(a.progress)
		a.progress = make(chan struct{})
		a.mu.Unlock()
	}
}

func (a *Adapter) write(ctx context.Context, items []model.Item) error {
	blob, err := Encode(items)
	if err != nil {
		return err
	}
	return a.storage.Set(ctx, a.key, blob)
}

func (a *Adapter) quarantine(ctx context.Context, blob string) {
	key := a.key + ".corrupt-" + a.now().UTC().Format("20060102-150405")
	if err := a.storage.Set(ctx, key, blob); err != nil {
		a.logger.Warn("could not keep a copy of malformed items", "key", key, "err", err)
		return
	}
	a.logger.Info("malformed items copied aside", "key", key)
}
