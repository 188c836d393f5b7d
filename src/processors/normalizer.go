// backend/src/processors/normalizer.go
package processors

import (
	"strings"
	"unicode"
)

// UnitPrefix is the two-letter project prefix unit identifiers carry.
const UnitPrefix = "CA"

// NormalizeUnitID canonicalizes a unit identifier from the registry or from
// the ledger's free-text sales tag: trim, upper-case, strip internal
// whitespace, and reconstruct the missing hyphen for the two documented
// digit-count patterns (two-digit tower + four-digit unit, one-digit tower
// + three-digit unit). Anything outside those patterns is returned without
// a guess and flagged ambiguous; callers surface that as a diagnostic
// rather than inventing an identifier. Normalization is idempotent.
func NormalizeUnitID(raw string) (normalized string, ambiguous bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = stripSpaces(s)
	if s == "" || strings.Contains(s, "-") {
		return s, false
	}
	if !strings.HasPrefix(s, UnitPrefix) {
		return s, false
	}

	digits := s[len(UnitPrefix):]
	if !isDigitRun(digits) {
		return s, false
	}
	switch len(digits) {
	case 6:
		return UnitPrefix + digits[:2] + "-" + digits[2:], false
	case 4:
		return UnitPrefix + digits[:1] + "-" + digits[1:], false
	default:
		return s, true
	}
}

func stripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigitRun(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitRun extracts every digit of s in order, dropping everything else.
func digitRun(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
