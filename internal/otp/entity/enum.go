package entity

import "github.com/samber/lo"

// Purpose is the business reason a code was issued. It is part of the record key.
type Purpose string

const (
	PurposeVerification      Purpose = "verification"
	PurposeLogin             Purpose = "login"
	PurposePasswordReset     Purpose = "password_reset"
	PurposePhoneVerification Purpose = "phone_verification"
)

// Purposes lists every accepted purpose.
var Purposes = []Purpose{PurposeVerification, PurposeLogin, PurposePasswordReset, PurposePhoneVerification}

// ParsePurpose maps an empty value to PurposeVerification.
func ParsePurpose(s string) (Purpose, bool) {
	if s == "" {
		return PurposeVerification, true
	}
	if p := Purpose(s); lo.Contains(Purposes, p) {
		return p, true
	}
	return "", false
}

func (p Purpose) String() string {
	return string(p)
}

// RequiresAccount reports whether issuing needs an existing user.
func (p Purpose) RequiresAccount() bool {
	return p != PurposeVerification
}

// Sensitive purposes drop the record on a successful verify.
func (p Purpose) Sensitive() bool {
	return p == PurposeLogin || p == PurposePasswordReset
}

// MarksVerified purposes flip the user's verification flags on success.
func (p Purpose) MarksVerified() bool {
	return p == PurposeVerification || p == PurposePhoneVerification
}

// Method is the delivery preference sent by the client.
type Method string

const (
	MethodAuto  Method = "auto"
	MethodEmail Method = "email"
	MethodSMS   Method = "sms"
	MethodBoth  Method = "both"
)

// Methods lists every accepted delivery preference.
var Methods = []Method{MethodAuto, MethodEmail, MethodSMS, MethodBoth}

// ParseMethod maps an empty value to MethodAuto.
func ParseMethod(s string) (Method, bool) {
	if s == "" {
		return MethodAuto, true
	}
	if m := Method(s); lo.Contains(Methods, m) {
		return m, true
	}
	return "", false
}

func (m Method) String() string {
	return string(m)
}

// Channel is a concrete transport a code went out on.
type Channel string

const (
	ChannelNone  Channel = ""
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelBoth  Channel = "both"
)

func (c Channel) String() string {
	return string(c)
}

// Other returns the alternate single channel.
func (c Channel) Other() Channel {
	switch c {
	case ChannelEmail:
		return ChannelSMS
	case ChannelSMS:
		return ChannelEmail
	default:
		return ChannelNone
	}
}

// Status is the read-only projection of a record.
type Status string

const (
	StatusNotRequested Status = "not_requested"
	StatusActive       Status = "active"
	StatusVerified     Status = "verified"
	StatusExpired      Status = "expired"
	StatusBlocked      Status = "blocked"
)

func (s Status) String() string {
	return string(s)
}
