package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *clock.Manual) {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	kv := kvstore.NewMemory(clk, time.Minute)
	t.Cleanup(func() { _ = kv.Close() })

	return NewStore(kv, instrument.NewNoop(), time.Second), clk
}

func TestStore_RecordRoundTrip(t *testing.T) {
	// Arrange
	s, clk := newTestStore(t)
	ctx := context.Background()
	rec := entity.Record{
		CodeHash:  "digest",
		ExpiresAt: clk.Now().Add(10 * time.Minute),
		Channel:   entity.ChannelEmail,
		IssuedAt:  clk.Now(),
	}

	// Act
	err := s.SaveRecord(ctx, entity.PurposeLogin, "a@b.com", rec, time.Hour)
	require.NoError(t, err)
	got, err := s.GetRecord(ctx, entity.PurposeLogin, "a@b.com")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, rec.CodeHash, got.CodeHash)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, entity.ChannelEmail, got.Channel)

	_, err = s.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestStore_RecordExpires(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecord(ctx, entity.PurposeLogin, "a@b.com", entity.Record{}, time.Minute))
	clk.Advance(2 * time.Minute)

	_, err := s.GetRecord(ctx, entity.PurposeLogin, "a@b.com")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestStore_UpdateRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, entity.PurposeVerification, "a@b.com", entity.Record{CodeHash: "x"}, time.Hour))

	t.Run("mutates", func(t *testing.T) {
		err := s.UpdateRecord(ctx, entity.PurposeVerification, "a@b.com", func(r *entity.Record) (*entity.Record, error) {
			r.Attempts++
			return r, nil
		})
		require.NoError(t, err)

		got, err := s.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("fn error passes through", func(t *testing.T) {
		err := s.UpdateRecord(ctx, entity.PurposeVerification, "a@b.com", func(*entity.Record) (*entity.Record, error) {
			return nil, entity.ErrCodeMismatch
		})
		assert.ErrorIs(t, err, entity.ErrCodeMismatch)
	})

	t.Run("nil deletes", func(t *testing.T) {
		err := s.UpdateRecord(ctx, entity.PurposeVerification, "a@b.com", func(*entity.Record) (*entity.Record, error) {
			return nil, nil
		})
		require.NoError(t, err)

		_, err = s.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		err := s.UpdateRecord(ctx, entity.PurposeVerification, "nobody@b.com", func(r *entity.Record) (*entity.Record, error) {
			return r, nil
		})
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestStore_DeleteRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, entity.PurposeLogin, "+15551234567", entity.Record{}, time.Hour))

	ok, err := s.DeleteRecord(ctx, entity.PurposeLogin, "+15551234567")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteRecord(ctx, entity.PurposeLogin, "+15551234567")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Cooldown(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	d, err := s.CooldownRemaining(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Zero(t, d)

	require.NoError(t, s.SetCooldown(ctx, "a@b.com", time.Minute))
	clk.Advance(20 * time.Second)

	d, err = s.CooldownRemaining(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, d)

	clk.Advance(time.Minute)
	d, err = s.CooldownRemaining(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestStore_Closed(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.kv.Close())

	err := s.Ping(context.Background())
	assert.True(t, errors.Is(err, kvstore.ErrClosed))
}
