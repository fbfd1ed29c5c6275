// Package phone normalizes phone numbers to the canonical digit-only
// international form shared by storage keys and the transport contract.
package phone

import "strings"

// Normalize strips everything but digits from the input. "+1 (555)
// 123-4567" and "15551234567" normalize to the same key.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
