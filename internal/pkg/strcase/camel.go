// Package strcase maps Go field names to the casing used on the wire.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerCamel turns an exported Go identifier into the lowerCamel key used
// by request bodies: "Identifier" -> "identifier", "OTPCode" -> "otpCode",
// "UserID" -> "userId".
func ToLowerCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}

		// The leading run of capitals is lowered entirely, except a capital
		// that starts the next word ("OTPCode": the C).
		startsWord := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1])
		inLeadingRun := i == 0 || (allUpper(runes[:i]) && !startsWord)
		// Inside later words only the acronym tail after the first capital is lowered.
		inAcronym := i > 0 && unicode.IsUpper(runes[i-1]) && !startsWord

		if inLeadingRun || inAcronym {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func allUpper(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
