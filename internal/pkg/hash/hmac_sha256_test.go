package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		input  string
		probe  string
		want   bool
	}{
		{name: "same input matches", secret: "s3cr3t", input: "123456", probe: "123456", want: true},
		{name: "leading zeros kept", secret: "s3cr3t", input: "000000", probe: "000000", want: true},
		{name: "different input rejected", secret: "s3cr3t", input: "123456", probe: "123457", want: false},
		{name: "empty probe rejected", secret: "s3cr3t", input: "123456", probe: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := NewHMACSHA256(tt.secret)

			// Act
			digest, err := h.Hash(tt.input)

			// Assert
			require.NoError(t, err)
			assert.Len(t, digest, 64)
			assert.Equal(t, tt.want, h.Verify(string(digest), tt.probe))
		})
	}
}

func TestHMACSHA256_SecretMatters(t *testing.T) {
	// Arrange
	a := NewHMACSHA256("first")
	b := NewHMACSHA256("second")

	// Act
	digest, err := a.Hash("654321")

	// Assert
	require.NoError(t, err)
	assert.False(t, b.Verify(string(digest), "654321"))
}

func TestHMACSHA256_MalformedDigest(t *testing.T) {
	h := NewHMACSHA256("s3cr3t")

	assert.False(t, h.Verify("not-hex", "123456"))
	assert.False(t, h.Verify("", "123456"))
}
