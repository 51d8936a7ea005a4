package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
)

const (
	// DriverMemory selects the in-process backend.
	DriverMemory = "memory"
	// DriverRedis selects the shared Redis backend.
	DriverRedis = "redis"
)

var (
	// ErrNotFound is returned when a key is absent or expired.
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrUnavailable wraps any backend failure other than a missing key.
	ErrUnavailable = errors.New("kvstore: backend unavailable")
	// ErrInvalidTTL is returned when a write carries no positive expiration.
	ErrInvalidTTL = errors.New("kvstore: ttl must be positive")
	// ErrContended is returned when an atomic update keeps losing to concurrent writers.
	ErrContended = errors.New("kvstore: update contended")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kvstore: store closed")
	// ErrUnknownDriver indicates an unsupported backend name.
	ErrUnknownDriver = errors.New("kvstore: unknown driver")
)

// UpdateFunc receives the current value and returns the replacement.
// Returning a nil slice with a nil error deletes the key.
type UpdateFunc func(current []byte) ([]byte, error)

// Window is the state of a fixed-window counter after a hit.
type Window struct {
	// Count is the number of hits recorded in the current window, including this one.
	Count int64
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// Store is a key-value store where every entry expires.
type Store interface {
	io.Closer

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX writes value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Get returns the value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key and reports whether it was present.
	Delete(ctx context.Context, key string) (bool, error)
	// Exists reports whether key holds a live value.
	Exists(ctx context.Context, key string) (bool, error)
	// TTL returns the remaining lifetime of key or ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Update applies fn atomically to the current value, keeping its expiration.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Hit records one hit on the fixed-window counter named key.
	Hit(ctx context.Context, key string, window time.Duration) (Window, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// FactoryOptions groups the inputs of every backend.
type FactoryOptions struct {
	// Clock is the time source; defaults to the system clock.
	Clock clock.Clocker
	// SweepInterval is how often the memory backend removes expired entries.
	SweepInterval time.Duration
	// Redis is the client used by the redis backend.
	Redis redis.UniversalClient
	// MaxUpdateRetries bounds optimistic transaction retries in the redis backend.
	MaxUpdateRetries int
}

// NewFromDriver constructs a Store by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Store, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	switch strings.TrimSpace(driver) {
	case DriverMemory:
		return NewMemory(opts.Clock, opts.SweepInterval), nil
	case DriverRedis:
		return NewRedis(opts.Redis, opts.Clock, opts.MaxUpdateRetries)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
