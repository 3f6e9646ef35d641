// Package normalize canonicalizes free-text values (guest names, OTA
// reference numbers) into comparable match keys.
//
// Guest names and numeric ids arrive with inconsistent spacing, case, and
// spreadsheet-induced ".0" suffixes. Both sides of every comparison must go
// through the same canonicalization, otherwise matching gets asymmetric
// false negatives.
package normalize

import (
	"regexp"
	"strings"
)

// Everything except Latin letters, digits, and Hangul syllables is noise.
var noisePattern = regexp.MustCompile(`[^a-zA-Z0-9가-힣]`)

// Key converts a raw cell value into a comparable match key.
// Total function: empty input yields the empty string, and Key is idempotent.
func Key(v string) string {
	s := strings.TrimSpace(v)
	// Numeric references read from spreadsheets often arrive as "12345.0"
	s = strings.TrimSuffix(s, ".0")
	s = noisePattern.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// KeyPrefix returns the first n characters of the normalized key.
// Booking.com truncates/pads longer reference strings inconsistently, so
// matching uses a fixed-length prefix of the reference.
func KeyPrefix(v string, n int) string {
	r := []rune(Key(v))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
