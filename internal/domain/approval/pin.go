package approval

import "strings"

const (
	pinMinDigits = 4
	pinMaxDigits = 6
)

// NormalizePIN strips non-digit characters from raw input, truncates to
// six digits, and reports whether the result is a syntactically valid
// authorization PIN (at least four digits).
//
// Only the format is checked here; verifying the PIN against a stored
// credential is the authorization collaborator's job.
func NormalizePIN(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == pinMaxDigits {
				break
			}
		}
	}
	pin := b.String()
	return pin, len(pin) >= pinMinDigits
}
