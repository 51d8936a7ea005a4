package passcode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_Generate(t *testing.T) {
	// Arrange
	gen, err := New(0)
	require.NoError(t, err)
	re := regexp.MustCompile(`^[0-9]{6}$`)
	seen := make(map[string]struct{})

	// Act
	for range 500 {
		code, err := gen.Generate()
		require.NoError(t, err)

		// Assert
		assert.Regexp(t, re, code)
		seen[code] = struct{}{}
	}

	assert.Equal(t, DefaultDigits, gen.Digits())
	assert.Greater(t, len(seen), 450, "codes should rarely repeat")
}

func TestNumeric_ZeroPadded(t *testing.T) {
	// Arrange
	gen, err := New(1)
	require.NoError(t, err)
	seen := make(map[string]bool)

	// Act
	for range 1000 {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 1)
		seen[code] = true
	}

	// Assert
	assert.True(t, seen["0"], "zero must be reachable")
	assert.Len(t, seen, 10)
}

func TestNew_TooManyDigits(t *testing.T) {
	_, err := New(19)
	assert.ErrorIs(t, err, ErrTooManyDigits)
}
