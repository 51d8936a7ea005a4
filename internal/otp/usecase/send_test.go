package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Send(t *testing.T) {
	t.Run("issues and delivers by email", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx := context.Background()

		// Act
		out, err := f.uc.Send(ctx, SendInput{Identifier: " A@B.com "})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, &SendOutput{Identifier: "a@***om", ExpiresIn: 600, DeliveryMethod: "email", CanResendAfter: 60}, out)
		assert.Equal(t, "042137", f.disp.lastCode())

		rec, err := f.uc.repoStore.GetRecord(ctx, entity.PurposeVerification, "a@b.com")
		require.NoError(t, err)
		assert.Zero(t, rec.Attempts)
		assert.False(t, rec.Verified)
		assert.NotEqual(t, "042137", rec.CodeHash)
		assert.Equal(t, entity.ChannelEmail, rec.Channel)

		cd, err := f.uc.repoStore.CooldownRemaining(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, time.Minute, cd)

		assert.Equal(t, []string{event.OTPIssued}, f.events(t))
	})

	t.Run("writes the mirror for an existing user", func(t *testing.T) {
		f := newFixture(t)
		f.db.add(entity.User{ID: 9, Email: "a@b.com"})

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com", Type: "login"})

		require.NoError(t, err)
		assert.NotEmpty(t, f.db.mirrors[9])
	})

	t.Run("rejects malformed identifier before any store access", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "15551234567"})

		requireGoError(t, err, http.StatusBadRequest, "Validation error")
		assert.Empty(t, f.disp.sent)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com", Method: "fax"})

		requireGoError(t, err, http.StatusBadRequest, "")
	})

	t.Run("login requires an account", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com", Type: "login"})

		requireGoError(t, err, http.StatusNotFound, "User not found")
		assert.Empty(t, f.disp.sent)
	})

	t.Run("verification continues when the user store fails", func(t *testing.T) {
		f := newFixture(t)
		f.db.getErr = errors.New("db down")

		out, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"})

		require.NoError(t, err)
		assert.Equal(t, "email", out.DeliveryMethod)
	})

	t.Run("fourth issue in the window is rate limited", func(t *testing.T) {
		f := newFixture(t, "111111", "222222", "333333", "444444")
		ctx := context.Background()
		f.db.add(entity.User{ID: 1, Email: "a@b.com"})

		for i, typ := range []string{"verification", "login", "password_reset"} {
			_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com", Type: typ})
			require.NoError(t, err, fmt.Sprintf("issue %d", i+1))
		}

		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com", Type: "verification"})

		gerr := requireGoError(t, err, http.StatusTooManyRequests, "")
		assert.Positive(t, gerr.Data()["retryAfterSeconds"])
		assert.Positive(t, gerr.RetryAfter())
		assert.Len(t, f.disp.sent, 3)
	})

	t.Run("delivery failure rolls the record back", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.disp.err = fmt.Errorf("%w: sms provider down", entity.ErrDeliveryFailed)

		_, err := f.uc.Send(ctx, SendInput{Identifier: "+15551234567", Method: "sms"})

		requireGoError(t, err, http.StatusInternalServerError, "Failed to send OTP")

		st, err := f.uc.Status(ctx, StatusInput{Identifier: "+15551234567"})
		require.NoError(t, err)
		assert.Equal(t, "not_requested", st.Status)

		cd, err := f.uc.repoStore.CooldownRemaining(ctx, "+15551234567")
		require.NoError(t, err)
		assert.Zero(t, cd)

		assert.Equal(t, []string{event.OTPDeliveryFailed}, f.events(t))
	})

	t.Run("both without two channels is a client error", func(t *testing.T) {
		f := newFixture(t)
		f.disp.err = fmt.Errorf("%w: both channels must be registered", entity.ErrNoChannel)

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com", Method: "both"})

		requireGoError(t, err, http.StatusBadRequest, "")
		_, err = f.uc.repoStore.GetRecord(context.Background(), entity.PurposeVerification, "a@b.com")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("store unavailable fails closed", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.kv.Close())

		_, err := f.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"})

		requireGoError(t, err, http.StatusInternalServerError, "")
		assert.Empty(t, f.disp.sent)
	})
}
