package kvstore

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"go.uber.org/atomic"
)

// DefaultSweepInterval is used when NewMemory receives a non-positive interval.
const DefaultSweepInterval = 15 * time.Minute

type memoryEntry struct {
	value     []byte
	counter   int64
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is a single-process Store. Every mutation goes through one mutex.
type Memory struct {
	mu       sync.Mutex
	items    map[string]*memoryEntry
	clock    clock.Clocker
	interval time.Duration

	closed  atomic.Bool
	evicted atomic.Int64
	done    chan struct{}
}

// NewMemory returns an empty in-process store. Call Run to start sweeping.
func NewMemory(clk clock.Clocker, sweepInterval time.Duration) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	return &Memory{
		items:    make(map[string]*memoryEntry),
		clock:    clk,
		interval: sweepInterval,
		done:     make(chan struct{}),
	}
}

// Run sweeps expired entries every interval until ctx is done or the store is closed.
func (m *Memory) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.done:
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.DebugContext(ctx, "kvstore memory sweep", "removed", n, "remaining", m.Len())
			}
		}
	}
}

// Sweep removes expired entries and returns how many it removed.
// The lock is released between map iteration steps.
func (m *Memory) Sweep() int {
	removed := 0

	m.mu.Lock()
	for key, e := range m.items {
		if e.expired(m.clock.Now()) {
			delete(m.items, key)
			removed++
		}
		m.mu.Unlock()
		m.mu.Lock()
	}
	m.mu.Unlock()

	m.evicted.Add(int64(removed))
	return removed
}

// Len returns the number of entries currently held, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Evicted returns the total number of entries removed by sweeps.
func (m *Memory) Evicted() int64 {
	return m.evicted.Load()
}

// Close stops the sweeper. Further calls return ErrClosed.
func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		close(m.done)
	}
	return nil
}

// Ping reports ErrClosed after Close.
func (m *Memory) Ping(context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return nil
}

// lookup returns the live entry for key; callers must hold m.mu.
func (m *Memory) lookup(key string, now time.Time) (*memoryEntry, bool) {
	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		delete(m.items, key)
		return nil, false
	}
	return e, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = &memoryEntry{value: bytes.Clone(value), expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.closed.Load() {
		return false, ErrClosed
	}
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if _, ok := m.lookup(key, now); ok {
		return false, nil
	}

	m.items[key] = &memoryEntry{value: bytes.Clone(value), expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key, m.clock.Now())
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(e.value), nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	if m.closed.Load() {
		return false, ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key, m.clock.Now())
	delete(m.items, key)
	return ok, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	if m.closed.Load() {
		return false, ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key, m.clock.Now())
	return ok, nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, ok := m.lookup(key, now)
	if !ok {
		return 0, ErrNotFound
	}
	return e.expiresAt.Sub(now), nil
}

func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key, m.clock.Now())
	if !ok {
		return ErrNotFound
	}

	next, err := fn(bytes.Clone(e.value))
	if err != nil {
		return err
	}
	if next == nil {
		delete(m.items, key)
		return nil
	}

	e.value = bytes.Clone(next)
	return nil
}

// Hit stores resetAt with the first hit of a window and reuses it until it passes.
func (m *Memory) Hit(_ context.Context, key string, window time.Duration) (Window, error) {
	if m.closed.Load() {
		return Window{}, ErrClosed
	}
	if window <= 0 {
		return Window{}, ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, ok := m.lookup(key, now)
	if !ok {
		e = &memoryEntry{expiresAt: now.Add(window)}
		m.items[key] = e
	}
	e.counter++

	return Window{Count: e.counter, ResetAt: e.expiresAt}, nil
}
