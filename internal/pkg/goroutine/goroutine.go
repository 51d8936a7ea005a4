// Package goroutine runs background work (event publishing, store sweeping)
// under a concurrency cap that the application drains on shutdown.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/edubite/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is the per-CPU cap used when NewManager gets a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a recovered panic in the error returned by Wait.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager is safe for concurrent use. A nil Manager drops every task.
type Manager struct {
	// gate is held for reading while a task is admitted so Wait cannot close
	// the manager between admission and wg.Add.
	gate   sync.RWMutex
	closed bool

	wg   sync.WaitGroup
	sema chan struct{}

	errMu sync.Mutex
	errs  []error

	dropped atomic.Int64
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f in its own goroutine and reports whether it was admitted. Tasks
// are dropped, never queued, when the manager is full or already draining.
// f receives ctx unchanged; callers detach it from request cancellation
// themselves when the work must outlive the request.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.gate.RLock()
	defer g.gate.RUnlock()

	if g.closed {
		g.dropped.Inc()
		slog.WarnContext(ctx, "goroutine manager is draining, task dropped")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		g.dropped.Inc()
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(g.sema))
		return false
	}

	g.wg.Add(1)
	go g.run(ctx, f)
	return true
}

func (g *Manager) run(ctx context.Context, f func(ctx context.Context) error) {
	defer g.wg.Done()
	defer func() { <-g.sema }()
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
			slog.ErrorContext(ctx, "panic in background task", "panic", rvr, "stack", frames)
		} else {
			slog.ErrorContext(ctx, "panic in background task", "panic", rvr, "stack", string(stack))
		}
		g.record(ErrPanic)
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "background task skipped", "because", err)
		return
	}

	if err := f(ctx); err != nil {
		g.record(err)
	}
}

func (g *Manager) record(err error) {
	g.errMu.Lock()
	g.errs = append(g.errs, err)
	g.errMu.Unlock()
}

// Dropped returns how many tasks were refused.
func (g *Manager) Dropped() int64 {
	if g == nil {
		return 0
	}
	return g.dropped.Load()
}

// Wait stops admitting tasks, blocks until running ones finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.gate.Lock()
	g.closed = true
	g.gate.Unlock()

	g.wg.Wait()

	g.errMu.Lock()
	defer g.errMu.Unlock()
	return errors.Join(g.errs...)
}
