package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone canonicalizes a phone number to E.164-ish form: spaces and
// dashes stripped, a leading + added when missing. The same normalization is
// applied on login, send and search so the unique phone index always sees
// one spelling per number.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}

	digits := cleaned[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("phone number must contain 7 to 15 digits")
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return "", fmt.Errorf("phone number contains invalid character %q", r)
		}
	}

	return cleaned, nil
}
