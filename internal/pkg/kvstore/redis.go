package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
)

// DefaultMaxUpdateRetries bounds optimistic retries of Update.
const DefaultMaxUpdateRetries = 5

// ErrRedisClientRequired is returned when NewRedis receives a nil client.
var ErrRedisClientRequired = errors.New("kvstore: redis client is required")

// Redis is a Store shared between instances through a Redis server.
// Every write carries an explicit expiration.
type Redis struct {
	client     redis.UniversalClient
	clock      clock.Clocker
	maxRetries int
}

// NewRedis wraps an existing client. The client is owned by the caller.
func NewRedis(client redis.UniversalClient, clk clock.Clocker, maxRetries int) (*Redis, error) {
	if client == nil {
		return nil, ErrRedisClientRequired
	}
	if clk == nil {
		clk = clock.New()
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxUpdateRetries
	}

	return &Redis{client: client, clock: clk, maxRetries: maxRetries}, nil
}

// Close is a no-op; the client lifecycle belongs to the caller.
func (r *Redis) Close() error {
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return val, nil
}

func (r *Redis) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	// -2 missing key, -1 no expiration
	switch {
	case d == -2:
		return 0, ErrNotFound
	case d < 0:
		return 0, nil
	}
	return d, nil
}

// callerError carries an UpdateFunc error through Watch untouched.
type callerError struct{ err error }

func (e callerError) Error() string { return e.err.Error() }

// Update runs fn inside WATCH/MULTI so concurrent writers on the same key
// cannot interleave. A lost race is retried up to maxRetries times.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return callerError{err: err}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.SetArgs(ctx, key, next, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for range r.maxRetries {
		err := r.client.Watch(ctx, txf, key)

		var cerr callerError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.As(err, &cerr):
			return cerr.err
		case errors.Is(err, ErrNotFound):
			return err
		default:
			return unavailable(err)
		}
	}

	return fmt.Errorf("%w: %s", ErrContended, key)
}

// Hit derives the window from the clock truncated to a multiple of window,
// so every instance counts into the same key.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	if window <= 0 {
		return Window{}, ErrInvalidTTL
	}

	windowMs := window.Milliseconds()
	index := r.clock.Now().UnixMilli() / windowMs
	resetAt := time.UnixMilli((index + 1) * windowMs)
	windowKey := fmt.Sprintf("%s:%d", key, index)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.PExpireAt(ctx, windowKey, resetAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return Window{}, unavailable(err)
	}

	return Window{Count: incr.Val(), ResetAt: resetAt}, nil
}
