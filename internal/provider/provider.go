package provider

import (
	"context"
	"encoding/json"
)

// SymbolInfo is the basic instrument info returned by the upstream provider,
// used to verify that a ticker actually exists.
type SymbolInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// OptionRecord is a single contract row passed through verbatim from the
// upstream provider. Only the strike field is interpreted; everything else is
// opaque to this service and re-serialized as received.
type OptionRecord map[string]any

// Strike returns the record's strike price, if present and numeric.
// Upstream payloads are decoded with json.Number, but plain float64 and int
// are accepted so records can also be built in code.
func (r OptionRecord) Strike() (float64, bool) {
	switch v := r["strike"].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Chain is one expiration's option chain split into calls and puts, in the
// order the upstream returned them.
type Chain struct {
	Calls []OptionRecord `json:"calls"`
	Puts  []OptionRecord `json:"puts"`
}

// Client is the upstream options data provider. Implementations are treated
// as unreliable; callers wrap every method in the retry policy.
type Client interface {
	// SymbolInfo looks up basic info for a symbol. A nil result with a nil
	// error means the upstream had no data for the symbol.
	SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	// Expirations lists the available expiration dates as YYYY-MM-DD strings.
	Expirations(ctx context.Context, symbol string) ([]string, error)
	// OptionChain fetches the chain for one symbol and expiration date.
	OptionChain(ctx context.Context, symbol, expiration string) (*Chain, error)
}
