// Package uid generates identifiers for correlation, tokens and events.
package uid

// StringID produces string identifiers.
type StringID interface {
	Generate() string
}

// NumberID produces numeric identifiers.
type NumberID interface {
	Generate() int64
}
