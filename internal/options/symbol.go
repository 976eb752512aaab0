package options

import (
	"fmt"
	"regexp"
)

var symbolRE = regexp.MustCompile(`^[A-Z]{1,5}$`)

// ValidateSymbol checks the ticker format: 1 to 5 uppercase ASCII letters.
// Existence against the upstream is checked separately by VerifySymbol.
func ValidateSymbol(raw string) (string, error) {
	if !symbolRE.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, raw)
	}
	return raw, nil
}
