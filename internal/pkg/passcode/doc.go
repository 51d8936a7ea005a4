// Package passcode generates numeric one-time codes.
//
// Codes are drawn uniformly from crypto/rand: every digit string of the
// configured length, including "000000", is equally likely.
package passcode
