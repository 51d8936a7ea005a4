package config

import (
	"io"
	"time"
)

// Config reads typed values by dotted key. Missing or unparsable keys return
// the zero value of the requested type.
type Config interface {
	io.Closer

	// IsSet reports whether key has a value from any source.
	IsSet(key string) bool

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetBinary reads a base64 encoded value.
	GetBinary(key string) []byte
	// GetArray reads a comma separated list; blanks are dropped.
	GetArray(key string) []string
}
