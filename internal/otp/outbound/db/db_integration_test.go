package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestDB_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("edubite"),
		tcpostgres.WithUsername("edubite"),
		tcpostgres.WithPassword("edubite"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewDB(pool, instrument.NewNoop(), 5*time.Second)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	_, err = pool.Exec(ctx, `INSERT INTO users (id, email, phone) VALUES (1, 'a@b.com', '+15551234567'), (2, 'c@d.com', NULL)`)
	require.NoError(t, err)

	t.Run("lookup by email and phone", func(t *testing.T) {
		u, err := s.GetUserByIdentifier(ctx, "a@b.com", entity.ChannelEmail)
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "+15551234567", u.Phone)

		u, err = s.GetUserByIdentifier(ctx, "+15551234567", entity.ChannelSMS)
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", u.Email)

		u, err = s.GetUserByIdentifier(ctx, "c@d.com", entity.ChannelEmail)
		require.NoError(t, err)
		assert.Empty(t, u.Phone)

		_, err = s.GetUserByIdentifier(ctx, "x@y.com", entity.ChannelEmail)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("mirror write and clear", func(t *testing.T) {
		exp := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Microsecond)
		require.NoError(t, s.SaveOTPMirror(ctx, 1, "digest", exp))

		var otp *string
		require.NoError(t, pool.QueryRow(ctx, `SELECT otp FROM users WHERE id = 1`).Scan(&otp))
		require.NotNil(t, otp)
		assert.Equal(t, "digest", *otp)

		require.NoError(t, s.ClearOTPMirror(ctx, 1))
		require.NoError(t, pool.QueryRow(ctx, `SELECT otp FROM users WHERE id = 1`).Scan(&otp))
		assert.Nil(t, otp)
	})

	t.Run("bonus awarded once", func(t *testing.T) {
		awarded, err := s.MarkVerified(ctx, 1, entity.ChannelEmail, 25)
		require.NoError(t, err)
		assert.True(t, awarded)

		awarded, err = s.MarkVerified(ctx, 1, entity.ChannelSMS, 25)
		require.NoError(t, err)
		assert.False(t, awarded)

		u, err := s.GetUserByIdentifier(ctx, "a@b.com", entity.ChannelEmail)
		require.NoError(t, err)
		assert.True(t, u.IsVerified)
		assert.True(t, u.EmailVerified)
		assert.True(t, u.PhoneVerified)
		assert.Equal(t, int64(25), u.Points)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.MarkVerified(ctx, 99, entity.ChannelEmail, 25)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}
