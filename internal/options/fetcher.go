package options

import (
	"context"
	"fmt"
	"strings"
	"time"

	"optionsproxy/internal/provider"
	"optionsproxy/internal/retry"
)

// Params are the optional filters for one chain fetch. Expiration is a
// validated ISO date or empty for the earliest valid expiration.
type Params struct {
	Expiration string
	MinStrike  *float64
	MaxStrike  *float64
}

// ChainResult is the response shape returned to callers: the resolved
// expiration plus the filtered call and put records, order preserved.
type ChainResult struct {
	Symbol     string                  `json:"symbol"`
	Expiration string                  `json:"expiration"`
	Calls      []provider.OptionRecord `json:"calls"`
	Puts       []provider.OptionRecord `json:"puts"`
}

// ChainFetcher is implemented by Fetcher and by caching decorators wrapping
// it.
type ChainFetcher interface {
	Fetch(ctx context.Context, symbol string, p Params) (*ChainResult, error)
}

// SymbolVerifier checks that a symbol exists upstream.
type SymbolVerifier interface {
	VerifySymbol(ctx context.Context, symbol string) error
}

type Config struct {
	// MinDaysToExpiration is the minimum days until a monthly contract
	// qualifies. Defaults to DefaultMinDaysToExpiration.
	MinDaysToExpiration int
}

// Fetcher resolves a requested expiration against the upstream's expiration
// list and fetches the matching option chain. All upstream calls go through
// the retry policy.
type Fetcher struct {
	client provider.Client
	retry  retry.Policy
	cfg    Config
	now    func() time.Time
}

func NewFetcher(client provider.Client, policy retry.Policy, cfg Config) *Fetcher {
	if cfg.MinDaysToExpiration <= 0 {
		cfg.MinDaysToExpiration = DefaultMinDaysToExpiration
	}
	return &Fetcher{client: client, retry: policy, cfg: cfg, now: time.Now}
}

// VerifySymbol confirms the symbol exists upstream. Empty info without an
// upstream error counts as a failed attempt; exhaustion surfaces as
// ErrUnverifiableSymbol.
func (f *Fetcher) VerifySymbol(ctx context.Context, symbol string) error {
	_, err := retry.Do(ctx, "verify symbol "+symbol, f.retry, func(ctx context.Context) (*provider.SymbolInfo, error) {
		info, err := f.client.SymbolInfo(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if info == nil || info.Symbol == "" {
			return nil, fmt.Errorf("empty info for %s", symbol)
		}
		return info, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnverifiableSymbol, symbol)
	}
	return nil
}

func (f *Fetcher) Fetch(ctx context.Context, symbol string, p Params) (*ChainResult, error) {
	expirations, err := retry.Do(ctx, "list expirations "+symbol, f.retry, func(ctx context.Context) ([]string, error) {
		dates, err := f.client.Expirations(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return nil, fmt.Errorf("no expirations returned for %s", symbol)
		}
		return dates, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w for %s", ErrNoExpirations, symbol)
	}

	valid := FilterValidExpirations(expirations, f.now(), f.cfg.MinDaysToExpiration)
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoValidExpirations, symbol)
	}

	target, err := resolveExpiration(p.Expiration, valid)
	if err != nil {
		return nil, err
	}

	chain, err := retry.Do(ctx, "fetch chain "+symbol+" "+target, f.retry, func(ctx context.Context) (*provider.Chain, error) {
		c, err := f.client.OptionChain(ctx, symbol, target)
		if err != nil {
			return nil, err
		}
		// an error-free empty chain is retried like a failure
		if c == nil || (len(c.Calls) == 0 && len(c.Puts) == 0) {
			return nil, fmt.Errorf("empty chain for %s %s", symbol, target)
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w for %s %s", ErrUpstreamFetch, symbol, target)
	}

	calls := filterByStrike(chain.Calls, p.MinStrike, p.MaxStrike)
	puts := filterByStrike(chain.Puts, p.MinStrike, p.MaxStrike)
	if calls == nil {
		calls = []provider.OptionRecord{}
	}
	if puts == nil {
		puts = []provider.OptionRecord{}
	}

	return &ChainResult{Symbol: symbol, Expiration: target, Calls: calls, Puts: puts}, nil
}

// resolveExpiration maps the requested date onto the valid expiration list:
// unspecified -> earliest, exact match -> verbatim, otherwise the closest
// valid date on or after the requested one. Never resolves backwards.
func resolveExpiration(requested string, valid []string) (string, error) {
	if requested == "" {
		return valid[0], nil
	}
	for _, d := range valid {
		if d == requested {
			return requested, nil
		}
	}
	for _, d := range valid {
		if d > requested {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: no expiration on or after %s (available: %s)",
		ErrNoValidExpirations, requested, strings.Join(valid, ", "))
}

// filterByStrike applies the optional strike bounds, preserving order. When a
// bound is set, records without a parseable strike are dropped because the
// bound cannot be evaluated against them.
func filterByStrike(records []provider.OptionRecord, min, max *float64) []provider.OptionRecord {
	if min == nil && max == nil {
		return records
	}
	out := make([]provider.OptionRecord, 0, len(records))
	for _, r := range records {
		strike, ok := r.Strike()
		if !ok {
			continue
		}
		if min != nil && strike < *min {
			continue
		}
		if max != nil && strike > *max {
			continue
		}
		out = append(out, r)
	}
	return out
}
