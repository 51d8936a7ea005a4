package db

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Schema creates the users table the OTP flows read and update.
//
//go:embed schema.sql
var Schema string

// DefaultTimeout bounds every query when no timeout is configured.
const DefaultTimeout = 5 * time.Second

type DB struct {
	conn    *pgxpool.Pool
	ins     instrument.Instrumentation
	timeout time.Duration
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation, timeout time.Duration) *DB {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DB{conn: conn, ins: ins, timeout: timeout}
}

// Migrate applies Schema. It is idempotent.
func (s *DB) Migrate(ctx context.Context) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "Migrate")
	defer func() { s.endSpan(span, cancel, err) }()

	_, err = s.conn.Exec(ctx, Schema)
	return err
}

// - 23505 unique violation → goerror.ErrConflict
// - 40001 serialization_failure and 40P01 deadlock_detected are returned as is
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := s.ins.Tracer("otp.outbound.db").Start(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, span, cancel
}

func (s *DB) endSpan(span trace.Span, cancel context.CancelFunc, err error) {
	cancel()
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
