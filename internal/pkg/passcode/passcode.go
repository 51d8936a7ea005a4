package passcode

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// DefaultDigits is the code length used when New receives a non-positive value.
const DefaultDigits = 6

// ErrTooManyDigits is returned for lengths that do not fit an int64 range.
var ErrTooManyDigits = errors.New("passcode: at most 18 digits are supported")

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes.
type Numeric struct {
	digits int
	limit  *big.Int
}

// New returns a Numeric generator for codes of the given length.
func New(digits int) (*Numeric, error) {
	if digits <= 0 {
		digits = DefaultDigits
	}
	if digits > 18 {
		return nil, ErrTooManyDigits
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	return &Numeric{digits: digits, limit: limit}, nil
}

// Digits returns the code length.
func (n *Numeric) Digits() int {
	return n.digits
}

// Generate returns a zero-padded code of exactly Digits characters.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.limit)
	if err != nil {
		return "", err
	}

	s := v.String()
	if pad := n.digits - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s, nil
}
