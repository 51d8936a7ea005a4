package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/shandysiswandi/edubite/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Cancel(t *testing.T) {
	t.Run("nothing to cancel", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.Cancel(context.Background(), CancelInput{Identifier: "a@b.com"})

		requireGoError(t, err, http.StatusNotFound, "No active OTP found")
	})

	t.Run("removes the active record", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com", Type: "verification"})
		require.NoError(t, err)

		// Act
		err = f.uc.Cancel(ctx, CancelInput{Identifier: "a@b.com"})

		// Assert
		require.NoError(t, err)
		st, err := f.uc.Status(ctx, StatusInput{Identifier: "a@b.com"})
		require.NoError(t, err)
		assert.Equal(t, "not_requested", st.Status)
		assert.Equal(t, []string{event.OTPIssued, event.OTPCancelled}, f.events(t))
	})

	t.Run("purpose scopes the record", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.uc.Send(ctx, SendInput{Identifier: "a@b.com"})
		require.NoError(t, err)

		err = f.uc.Cancel(ctx, CancelInput{Identifier: "a@b.com", Type: "password_reset"})

		requireGoError(t, err, http.StatusNotFound, "")
	})
}
