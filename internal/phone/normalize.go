// Package phone canonicalizes raw sender/recipient identifiers into the
// stable keys used throughout the store. Numeric identifiers are normalized
// to E.164 where possible (Australian numbering rules); alphanumeric sender
// IDs and short codes keep their own canonical forms.
package phone

import (
	"strings"
	"unicode"
)

// Normalized is the result of normalizing a raw address.
type Normalized struct {
	Normalized     string `json:"normalized"`
	IsAlphanumeric bool   `json:"isAlphanumeric"`
}

// Normalize canonicalizes a raw address. It never fails: unrecognizable
// input falls through to a cleaned-but-unchanged form, and empty input
// maps to "UNKNOWN".
//
// Rule order matters. Letter detection and the short-code check must run
// before the numeric canonicalization chain, otherwise short codes like
// "321" would be misread as malformed international numbers.
func Normalize(raw string) Normalized {
	cleaned := stripWhitespace(raw)
	if cleaned == "" {
		return Normalized{Normalized: "UNKNOWN", IsAlphanumeric: true}
	}

	// Alphanumeric sender IDs (TPG, Uber, myGov).
	if containsLetter(cleaned) {
		return Normalized{Normalized: strings.ToUpper(cleaned), IsAlphanumeric: true}
	}

	digits := digitsOnly(cleaned)

	// Short codes (3-6 digits) keep their digit form.
	if len(digits) <= 6 {
		return Normalized{Normalized: digits, IsAlphanumeric: true}
	}

	// Already E.164: +61450123456
	if strings.HasPrefix(cleaned, "+61") && len(digits) == 11 {
		return Normalized{Normalized: "+" + digits}
	}

	// Country code without the plus: 61450123456
	if strings.HasPrefix(digits, "61") && len(digits) == 11 {
		return Normalized{Normalized: "+" + digits}
	}

	// Domestic trunk form: 0450123456 -> +61450123456
	if strings.HasPrefix(digits, "0") && len(digits) == 10 {
		return Normalized{Normalized: "+61" + digits[1:]}
	}

	// Mobile missing both trunk and country prefix: 450123456 -> +61450123456
	if strings.HasPrefix(digits, "4") && len(digits) == 9 {
		return Normalized{Normalized: "+61" + digits}
	}

	// Other international numbers already carrying a plus.
	if strings.HasPrefix(cleaned, "+") {
		return Normalized{Normalized: cleaned}
	}

	// Long digit string with no prefix: assume international.
	if len(digits) >= 7 {
		return Normalized{Normalized: "+" + digits}
	}

	return Normalized{Normalized: cleaned, IsAlphanumeric: true}
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
