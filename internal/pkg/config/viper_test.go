package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: edubite
  debug: true
otp:
  validity_seconds: 600
  max_attempts: 5
ratelimit:
  otp:
    window_seconds: 900
sms:
  rate_per_second: 1.5
jwt:
  secret: c2VjcmV0
app_maintenance: " /a, ,/b "
cors:
  - http://localhost:3000
  - " "
  - https://edubite.id
`

func TestNewViperFromBytes(t *testing.T) {
	t.Parallel()

	// Act
	cfg, err := NewViperFromBytes("yaml", []byte(sample))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "edubite", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.Equal(t, 600*time.Second, cfg.GetSecond("otp.validity_seconds"))
	assert.Equal(t, 5, cfg.GetInt("otp.max_attempts"))
	assert.Equal(t, int64(5), cfg.GetInt64("otp.max_attempts"))
	assert.Equal(t, 15*time.Minute, cfg.GetSecond("ratelimit.otp.window_seconds"))
	assert.Equal(t, 15*time.Hour, cfg.GetMinute("ratelimit.otp.window_seconds"))
	assert.InDelta(t, 1.5, cfg.GetFloat64("sms.rate_per_second"), 0.0001)
	assert.Equal(t, []byte("secret"), cfg.GetBinary("jwt.secret"))
	assert.Equal(t, []string{"/a", "/b"}, cfg.GetArray("app_maintenance"))
	assert.Equal(t, []string{"http://localhost:3000", "https://edubite.id"}, cfg.GetArray("cors"))
	assert.Nil(t, cfg.GetArray("missing"))
	assert.True(t, cfg.IsSet("otp.max_attempts"))
	assert.False(t, cfg.IsSet("otp.nope"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewViperFromBytes("", []byte(sample))
	assert.ErrorIs(t, err, ErrConfigTypeRequired)

	_, err = NewViperFromBytes("yaml", []byte("a: [b"))
	assert.Error(t, err)
}

func TestNewViper_EnvOverride(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))
	t.Setenv("EDUBITE_APP_NAME", "edubite-staging")

	// Act
	cfg, err := NewViper(file)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "edubite-staging", cfg.GetString("app.name"))
	assert.Equal(t, 5, cfg.GetInt("otp.max_attempts"))
}

func TestNewViper_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
