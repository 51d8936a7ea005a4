package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 digests with a server-side key, so a leaked record store does
// not let anyone brute-force six-digit codes offline without the key too.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the lowercase hex digest of str. It never fails.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return []byte(hex.EncodeToString(s.sum(str))), nil
}

// Verify reports whether hashed is the hex digest of str. Malformed digests
// never match.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	raw, err := hex.DecodeString(hashed)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(str))
	return mac.Sum(nil)
}
