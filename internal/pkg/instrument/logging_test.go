package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	return got
}

func TestLogHandler_MasksSecrets(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, &Config{ServiceName: "edubite", MaskFields: []string{" Secret ", ""}}, nil))
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.InfoContext(ctx, "issued",
		"otp", "123456",
		"secret", "s3",
		"body", map[string]any{"identifier": "ab***om", "code": "654321"},
		"raw", `{"Code":"111111","type":"login"}`,
		"plain", "not json",
	)

	// Assert
	got := decodeLine(t, &buf)
	assert.Equal(t, maskedValue, got["otp"])
	assert.Equal(t, maskedValue, got["secret"])
	assert.Equal(t, "cid-1", got["_cID"])
	assert.Equal(t, "edubite", got["service"])
	assert.Equal(t, "not json", got["plain"])
	assert.Contains(t, got, "ts")
	assert.Equal(t, "INFO", got["severity"])

	body, ok := got["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, maskedValue, body["code"])
	assert.Equal(t, "ab***om", body["identifier"])
	assert.JSONEq(t, `{"Code":"***","type":"login"}`, got["raw"].(string))
}

func TestLogHandler_WithAttrsMasked(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, &Config{ServiceName: "edubite"}, nil)).With("token", "abc")

	// Act
	logger.Info("bound")

	// Assert
	got := decodeLine(t, &buf)
	assert.Equal(t, maskedValue, got["token"])
	assert.NotContains(t, got, "_cID")
}

func TestLogHandler_Level(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, &Config{LogLevel: "warn"}, nil))

	// Act
	logger.Info("dropped")

	// Assert
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestRenameStdAttrs_Source(t *testing.T) {
	// Arrange
	in := slog.Any(slog.SourceKey, &slog.Source{File: "/src/edubite/internal/otp/usecase/send.go", Line: 42})
	outside := slog.Any(slog.SourceKey, &slog.Source{File: "/go/pkg/mod/x/y.go", Line: 1})

	// Act & Assert
	got := renameStdAttrs(nil, in)
	assert.Equal(t, "file", got.Key)
	assert.Equal(t, "internal/otp/usecase/send.go:42", got.Value.String())
	assert.True(t, renameStdAttrs(nil, outside).Equal(slog.Attr{}))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 0.25, clampRatio(0.25))
	assert.Equal(t, 1.0, clampRatio(3))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "x", GetCorrelationID(SetCorrelationID(context.Background(), "x")))
}
