package entity

import (
	"errors"
	"time"
)

var (
	ErrInvalidIdentifier = errors.New("otp: identifier is neither an email nor a phone number")
	ErrRecordNotFound    = errors.New("otp: record not found")
	ErrAlreadyUsed       = errors.New("otp: code already used")
	ErrExpired           = errors.New("otp: code expired")
	ErrTooManyAttempts   = errors.New("otp: too many attempts")
	ErrCodeMismatch      = errors.New("otp: code mismatch")
)

// Record is the stored state of one issued code. CodeHash is a keyed digest;
// the plain code is never persisted.
type Record struct {
	CodeHash  string    `cbor:"1,keyasint"`
	ExpiresAt time.Time `cbor:"2,keyasint"`
	Attempts  int       `cbor:"3,keyasint"`
	Verified  bool      `cbor:"4,keyasint"`
	Channel   Channel   `cbor:"5,keyasint"`
	IssuedAt  time.Time `cbor:"6,keyasint"`
}

// Expired reports whether now is past ExpiresAt.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Blocked reports whether the attempt cap is reached.
func (r Record) Blocked(maxAttempts int) bool {
	return r.Attempts >= maxAttempts
}

// Status projects r into a Status without changing it.
func (r Record) Status(now time.Time, maxAttempts int) Status {
	switch {
	case r.Verified:
		return StatusVerified
	case r.Blocked(maxAttempts):
		return StatusBlocked
	case r.Expired(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// User is the subset of the account record the OTP flows need.
type User struct {
	ID            int64
	Email         string
	Phone         string
	IsVerified    bool
	EmailVerified bool
	PhoneVerified bool
	Points        int64
}

// HasEmail reports whether an email channel is registered.
func (u *User) HasEmail() bool {
	return u != nil && u.Email != ""
}

// HasPhone reports whether an SMS channel is registered.
func (u *User) HasPhone() bool {
	return u != nil && u.Phone != ""
}

// Address returns the registered address for c.
func (u *User) Address(c Channel) string {
	if u == nil {
		return ""
	}
	switch c {
	case ChannelEmail:
		return u.Email
	case ChannelSMS:
		return u.Phone
	default:
		return ""
	}
}
