// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "RU"

// ErrFormat is returned by Strict when the input cannot be reduced to a
// Russian mobile/landline number in +7XXXXXXXXXX form.
var ErrFormat = errors.New("phone: not a valid RU number")

var strictRE = regexp.MustCompile(`^7\d{10}$`)

// Lenient strips everything except digits and a leading plus sign.
// The result is not guaranteed to be dialable; it is the form used for
// blocklist checks and for forwarding to the CRM under the lenient policy.
func Lenient(input string) string {
	s := strings.TrimSpace(input)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Strict normalizes input to canonical +7XXXXXXXXXX form.
// A leading 8 on an 11-digit number is rewritten to 7 (domestic dialing
// prefix). Anything that does not reduce to 7 followed by exactly ten
// digits yields ErrFormat.
func Strict(input string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(input) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}

	if !strictRE.MatchString(digits) {
		return "", ErrFormat
	}
	return "+" + digits, nil
}

// IsBlocked reports whether the lenient-normalized form of input starts
// with any of the given prefixes. The check is independent of strict
// validity: a number can be malformed and still blocked.
func IsBlocked(input string, prefixes []string) bool {
	if input == "" {
		return false
	}
	normalized := Lenient(input)
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

// DisplayE164 formats a phone number to E.164 for presentation in
// notifications. If parsing fails, it returns the trimmed input.
func DisplayE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
