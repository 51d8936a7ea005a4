package entity

import (
	"regexp"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	rePhone = regexp.MustCompile(`^\+\d{2,15}$`)
)

// NormalizeIdentifier trims spaces and lowercases emails.
func NormalizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "@") {
		return strings.ToLower(id)
	}
	return id
}

// ClassifyIdentifier returns the channel an identifier addresses.
func ClassifyIdentifier(id string) (Channel, error) {
	switch {
	case reEmail.MatchString(id):
		return ChannelEmail, nil
	case rePhone.MatchString(id):
		return ChannelSMS, nil
	default:
		return ChannelNone, ErrInvalidIdentifier
	}
}

// MaskIdentifier keeps the first and last two characters.
func MaskIdentifier(id string) string {
	r := []rune(id)
	if len(r) <= 4 {
		return "***"
	}
	return string(r[:2]) + "***" + string(r[len(r)-2:])
}
