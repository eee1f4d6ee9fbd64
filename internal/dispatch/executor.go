// Package dispatch marshals tool execution onto the single goroutine
// owning a world region, actor-mailbox style. One executor goroutine
// per region key; tasks for one key run strictly FIFO and never
// interleave.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned by Submit after Shutdown.
var ErrClosed = errors.New("executor is shut down")

const taskQueueSize = 128

// Executor owns one serial worker goroutine per region key. Workers
// are created lazily on first submit and drained on Shutdown.
type Executor struct {
	mu      sync.Mutex
	workers map[string]*regionWorker
	quit    chan struct{}
	wg      sync.WaitGroup
	closed  bool
	logger  *slog.Logger
}

type regionWorker struct {
	key   string
	tasks chan func()
}

func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		workers: make(map[string]*regionWorker),
		quit:    make(chan struct{}),
		logger:  logger,
	}
}

// Submit enqueues fn on the worker for key. FIFO per key: two submits
// for the same key always execute in submission order on one
// goroutine. Blocks only if the key's queue is full.
func (e *Executor) Submit(key string, fn func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	w, ok := e.workers[key]
	if !ok {
		w = &regionWorker{key: key, tasks: make(chan func(), taskQueueSize)}
		e.workers[key] = w
		e.wg.Add(1)
		go e.run(w)
	}
	e.mu.Unlock()

	select {
	case w.tasks <- fn:
		return nil
	case <-e.quit:
		return ErrClosed
	}
}

// SubmitWait enqueues fn and waits for it to finish or for ctx to
// expire. A ctx error does not cancel the task; it keeps running on
// the region goroutine and later submissions queue behind it.
func (e *Executor) SubmitWait(ctx context.Context, key string, fn func()) error {
	done := make(chan struct{})
	if err := e.Submit(key, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) run(w *regionWorker) {
	defer e.wg.Done()
	for {
		select {
		case fn := <-w.tasks:
			e.runTask(w.key, fn)
		case <-e.quit:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case fn := <-w.tasks:
					e.runTask(w.key, fn)
				default:
					return
				}
			}
		}
	}
}

// runTask isolates panics so one bad unit cannot kill a region worker.
func (e *Executor) runTask(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic in region task", "region", key, "panic", r)
		}
	}()
	fn()
}

// Shutdown stops accepting work and waits for all workers to drain.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.quit)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
