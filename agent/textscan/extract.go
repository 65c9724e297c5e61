// Package textscan holds the pure text-matching primitives the router and
// handlers share: keyword containment and order-ID token extraction. Nothing
// here carries state, so every function is safe to call repeatedly and
// concurrently.
package textscan

import (
	"regexp"
	"strconv"
	"strings"
)

// Order IDs are 4-6 digit tokens, optionally anchored to domain words.
// Domain-specific patterns are tried before the generic fallback.
var (
	OrderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\border\s*(?:id|number|#)?\s*(\d{4,6})\b`),
		regexp.MustCompile(`(?i)\b(\d{4,6})\s*order\b`),
		regexp.MustCompile(`#(\d{4,6})\b`),
		regexp.MustCompile(`(?i)\btrack(?:ing)?\s*(?:number|#)?\s*(\d{4,6})\b`),
	}

	RefundPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brefund\s+(?:order\s+)?(\d{4,6})\b`),
		regexp.MustCompile(`(?i)\breturn\s+(?:order\s+)?(\d{4,6})\b`),
		regexp.MustCompile(`(?i)\bcancel\s+(?:order\s+)?(\d{4,6})\b`),
		regexp.MustCompile(`(?i)\b(\d{4,6})\s+refund\b`),
	}

	genericIDPattern = regexp.MustCompile(`\b(\d{4,6})\b`)
	bareIDPattern    = regexp.MustCompile(`^\s*(\d{4,6})\s*$`)
)

// Normalize lowercases and trims a message for keyword matching.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// ContainsAny reports whether the normalized message contains at least one
// of the keywords. Keywords are assumed to already be lowercase.
func ContainsAny(message string, keywords ...string) bool {
	lower := Normalize(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CountMatches returns how many of the keywords appear in the message.
// Each keyword counts at most once regardless of repetition.
func CountMatches(message string, keywords []string) int {
	lower := Normalize(message)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// ExtractOrderID pulls an order ID out of the message, trying the given
// domain patterns first and falling back to the first generic 4-6 digit
// token. A missing ID is a normal outcome, reported via ok=false.
func ExtractOrderID(message string, patterns []*regexp.Regexp) (int, bool) {
	if id, ok := ExtractAnchoredOrderID(message, patterns); ok {
		return id, true
	}
	if m := genericIDPattern.FindStringSubmatch(message); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id, true
		}
	}
	return 0, false
}

// ExtractAnchoredOrderID tries only the given domain patterns, with no
// generic fallback. Order lookups require an anchored ID so that stray
// digits (quantities, zip codes) do not trigger a lookup.
func ExtractAnchoredOrderID(message string, patterns []*regexp.Regexp) (int, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(message); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

// BareOrderID matches a message that consists solely of an order ID, the
// usual shape of a follow-up after the user was asked for their order number.
func BareOrderID(message string) (int, bool) {
	m := bareIDPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// HasDigitToken reports whether the message contains any 4-6 digit token.
func HasDigitToken(message string) bool {
	return genericIDPattern.MatchString(message)
}
