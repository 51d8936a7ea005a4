package store

import (
	"context"
	"errors"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 2 * time.Second

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Store keeps OTP records and resend cooldown markers in a kvstore.Store.
type Store struct {
	kv      kvstore.Store
	ins     instrument.Instrumentation
	timeout time.Duration
}

func NewStore(kv kvstore.Store, ins instrument.Instrumentation, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{kv: kv, ins: ins, timeout: timeout}
}

func recordKey(p entity.Purpose, identifier string) string {
	return "otp:" + p.String() + ":" + identifier
}

func cooldownKey(identifier string) string {
	return "otp:cooldown:" + identifier
}

func (s *Store) mapError(err error) error {
	if errors.Is(err, kvstore.ErrNotFound) {
		return goerror.ErrNotFound
	}
	return err
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := s.ins.Tracer("otp.outbound.store").Start(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, span, cancel
}

func (s *Store) endSpan(span trace.Span, cancel context.CancelFunc, err error) {
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func encode(rec entity.Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

func decode(b []byte) (*entity.Record, error) {
	var rec entity.Record
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveRecord replaces the record for (purpose, identifier).
func (s *Store) SaveRecord(ctx context.Context, p entity.Purpose, identifier string, rec entity.Record, ttl time.Duration) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "SaveRecord")
	defer func() { s.endSpan(span, cancel, err) }()

	b, err := encode(rec)
	if err != nil {
		return err
	}

	err = s.kv.Set(ctx, recordKey(p, identifier), b, ttl)
	return err
}

// GetRecord returns goerror.ErrNotFound when no record exists.
func (s *Store) GetRecord(ctx context.Context, p entity.Purpose, identifier string) (rec *entity.Record, err error) {
	ctx, span, cancel := s.startSpan(ctx, "GetRecord")
	defer func() { s.endSpan(span, cancel, err) }()

	b, err := s.kv.Get(ctx, recordKey(p, identifier))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	rec, err = decode(b)
	return rec, err
}

// DeleteRecord reports whether a record was present.
func (s *Store) DeleteRecord(ctx context.Context, p entity.Purpose, identifier string) (ok bool, err error) {
	ctx, span, cancel := s.startSpan(ctx, "DeleteRecord")
	defer func() { s.endSpan(span, cancel, err) }()

	ok, err = s.kv.Delete(ctx, recordKey(p, identifier))
	return ok, err
}

// UpdateRecord applies fn atomically. fn returning a nil record deletes it;
// an error from fn aborts the update and is returned unchanged.
func (s *Store) UpdateRecord(ctx context.Context, p entity.Purpose, identifier string, fn func(*entity.Record) (*entity.Record, error)) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "UpdateRecord")
	defer func() { s.endSpan(span, cancel, err) }()

	err = s.kv.Update(ctx, recordKey(p, identifier), func(current []byte) ([]byte, error) {
		rec, err := decode(current)
		if err != nil {
			return nil, err
		}

		next, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}

		return encode(*next)
	})
	err = s.mapError(err)
	return err
}

// SetCooldown starts the resend cooldown for identifier.
func (s *Store) SetCooldown(ctx context.Context, identifier string, d time.Duration) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "SetCooldown")
	defer func() { s.endSpan(span, cancel, err) }()

	err = s.kv.Set(ctx, cooldownKey(identifier), []byte("1"), d)
	return err
}

// CooldownRemaining returns zero when no cooldown is active.
func (s *Store) CooldownRemaining(ctx context.Context, identifier string) (d time.Duration, err error) {
	ctx, span, cancel := s.startSpan(ctx, "CooldownRemaining")
	defer func() { s.endSpan(span, cancel, err) }()

	d, err = s.kv.TTL(ctx, cooldownKey(identifier))
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	return d, err
}

// Ping checks the underlying store.
func (s *Store) Ping(ctx context.Context) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "Ping")
	defer func() { s.endSpan(span, cancel, err) }()

	err = s.kv.Ping(ctx)
	return err
}
