package options

import "errors"

// Sentinel errors for the validation and fetch pipeline. The HTTP boundary
// maps these to status codes with errors.Is; messages are safe to surface to
// callers.
var (
	ErrInvalidSymbol      = errors.New("invalid symbol format")
	ErrUnverifiableSymbol = errors.New("unable to verify symbol")

	ErrInvalidDate       = errors.New("invalid date format, use YYYY-MM-DD")
	ErrPastDate          = errors.New("expiration date is in the past")
	ErrExpirationTooNear = errors.New("expiration date is too near")
	ErrNotMonthly        = errors.New("expiration date is not a monthly contract (third Friday)")

	ErrNoExpirations      = errors.New("no expiration dates available")
	ErrNoValidExpirations = errors.New("no valid monthly expirations available")
	ErrUpstreamFetch      = errors.New("failed to fetch option chain")
)
