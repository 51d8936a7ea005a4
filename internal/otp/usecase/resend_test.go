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

func TestUsecase_Resend(t *testing.T) {
	t.Run("requires an existing record", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Resend(context.Background(), ResendInput{Identifier: "a@b.com"})

		requireGoError(t, err, http.StatusNotFound, "")
	})

	t.Run("cooldown keeps the current code", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com"})
		require.NoError(t, err)
		before, err := f.uc.repoStore.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
		require.NoError(t, err)

		f.clk.Advance(20 * time.Second)

		// Act
		_, err = f.uc.Resend(ctx, ResendInput{Identifier: "a@b.com"})

		// Assert
		gerr := requireGoError(t, err, http.StatusTooManyRequests, "")
		assert.Equal(t, int64(40), gerr.Data()["cooldownRemaining"])

		after, err := f.uc.repoStore.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, before.CodeHash, after.CodeHash)
		assert.Len(t, f.disp.sent, 1)
	})

	t.Run("reissues an expired record after the cooldown", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "+15551234567"})
		require.NoError(t, err)

		f.clk.Advance(11 * time.Minute)

		out, err := f.uc.Resend(ctx, ResendInput{Identifier: "+15551234567"})
		require.NoError(t, err)
		assert.Equal(t, "sms", out.DeliveryMethod)
		assert.Equal(t, "555111", f.disp.lastCode())
		assert.Equal(t, entity.MethodSMS, f.disp.sent[1].Method)

		_, err = f.uc.Verify(ctx, VerifyInput{Identifier: "+15551234567", OTP: "042137"})
		requireGoError(t, err, http.StatusBadRequest, "Invalid OTP")

		_, err = f.uc.Verify(ctx, VerifyInput{Identifier: "+15551234567", OTP: "555111"})
		require.NoError(t, err)
	})

	t.Run("verified record cannot be resent", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com"})
		require.NoError(t, err)
		_, err = f.uc.Verify(ctx, VerifyInput{Identifier: "a@b.com", OTP: "042137"})
		require.NoError(t, err)

		f.clk.Advance(2 * time.Minute)
		_, err = f.uc.Resend(ctx, ResendInput{Identifier: "a@b.com"})

		requireGoError(t, err, http.StatusBadRequest, "OTP already used")
	})

	t.Run("resend counts against the issue limit", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com"})
		require.NoError(t, err)

		for range 2 {
			f.clk.Advance(time.Minute + time.Second)
			_, err = f.uc.Resend(ctx, ResendInput{Identifier: "a@b.com"})
			require.NoError(t, err)
		}

		f.clk.Advance(time.Minute + time.Second)
		_, err = f.uc.Resend(ctx, ResendInput{Identifier: "a@b.com"})

		gerr := requireGoError(t, err, http.StatusTooManyRequests, "")
		assert.Contains(t, gerr.Data(), "retryAfterSeconds")
	})
}
