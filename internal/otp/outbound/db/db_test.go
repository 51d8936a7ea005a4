package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_StartSpanBoundsQueries(t *testing.T) {
	t.Run("configured timeout", func(t *testing.T) {
		// Arrange
		s := NewDB(nil, instrument.NewNoop(), 20*time.Millisecond)

		// Act
		ctx, span, cancel := s.startSpan(context.Background(), "GetUserByIdentifier")
		defer s.endSpan(span, cancel, nil)

		// Assert
		_, ok := ctx.Deadline()
		require.True(t, ok)
		select {
		case <-ctx.Done():
			assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
		case <-time.After(time.Second):
			t.Fatal("query context never expired")
		}
	})

	t.Run("zero falls back to default", func(t *testing.T) {
		// Arrange
		s := NewDB(nil, instrument.NewNoop(), 0)
		start := time.Now()

		// Act
		ctx, span, cancel := s.startSpan(context.Background(), "MarkVerified")
		deadline, ok := ctx.Deadline()
		s.endSpan(span, cancel, errors.New("boom"))

		// Assert
		require.True(t, ok)
		assert.WithinDuration(t, start.Add(DefaultTimeout), deadline, time.Second)
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
