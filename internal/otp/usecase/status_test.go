package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Status(t *testing.T) {
	t.Run("not requested", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.uc.Status(context.Background(), StatusInput{Identifier: "a@b.com"})

		require.NoError(t, err)
		assert.Equal(t, &StatusOutput{Status: "not_requested"}, out)
	})

	t.Run("active then resendable then expired", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com"})
		require.NoError(t, err)

		// Act
		out, err := f.uc.Status(ctx, StatusInput{Identifier: "a@b.com"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, &StatusOutput{Status: "active", TimeRemaining: 600, AttemptsLeft: 5}, out)

		f.clk.Advance(61 * time.Second)
		out, err = f.uc.Status(ctx, StatusInput{Identifier: "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(539), out.TimeRemaining)
		assert.True(t, out.CanResend)

		f.clk.Advance(10 * time.Minute)
		out, err = f.uc.Status(ctx, StatusInput{Identifier: "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, "expired", out.Status)
		assert.Zero(t, out.TimeRemaining)
	})

	t.Run("does not mutate the record", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.uc.repoStore.SaveRecord(ctx, entity.PurposeLogin, "a@b.com", entity.Record{
			ExpiresAt: f.clk.Now().Add(time.Minute),
			Attempts:  5,
		}, time.Hour))

		for range 3 {
			out, err := f.uc.Status(ctx, StatusInput{Identifier: "a@b.com", Type: "login"})
			require.NoError(t, err)
			assert.Equal(t, "blocked", out.Status)
			assert.Zero(t, out.AttemptsLeft)
		}

		rec, err := f.uc.repoStore.GetRecord(ctx, entity.PurposeLogin, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, 5, rec.Attempts)
	})

	t.Run("invalid type", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Status(context.Background(), StatusInput{Identifier: "a@b.com", Type: "signup"})

		requireGoError(t, err, http.StatusBadRequest, "")
	})
}
