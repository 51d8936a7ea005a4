package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Health(t *testing.T) {
	t.Parallel()

	t.Run("store reachable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		a := &App{kv: kvstore.NewMemory(clock.New(), 0)}
		req := &router.Request{Request: httptest.NewRequest(http.MethodGet, "/health", nil)}

		// Act
		resp, err := a.health(req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, healthResponse{Status: "ok", Store: "ok"}, resp)
	})

	t.Run("store closed", func(t *testing.T) {
		t.Parallel()

		mem := kvstore.NewMemory(clock.New(), 0)
		require.NoError(t, mem.Close())
		a := &App{kv: mem}
		req := &router.Request{Request: httptest.NewRequest(http.MethodGet, "/health", nil)}

		resp, err := a.health(req)

		assert.Nil(t, resp)
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
		assert.Equal(t, "Store unavailable", gerr.Msg())
	})
}
