package yahooadapter

import (
	"context"
	"fmt"
	"time"

	"optionsproxy/internal/provider"
	"optionsproxy/internal/provider/yahoo"
)

const dateLayout = "2006-01-02"

type Config struct {
	Name string // display name, default: YahooFinance
}

// Adapter exposes the Yahoo client through the provider.Client interface,
// converting epoch expirations to ISO dates and back. Yahoo keys chains by
// the expiration's unix midnight UTC.
type Adapter struct {
	cfg    Config
	client *yahoo.YahooAPIClient
}

func New(cfg Config, client *yahoo.YahooAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "YahooFinance"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) SymbolInfo(ctx context.Context, symbol string) (*provider.SymbolInfo, error) {
	quote, err := a.client.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, nil
	}
	return &provider.SymbolInfo{
		Symbol:   quote.Symbol,
		Name:     quote.ShortName,
		Exchange: quote.ExchangeName,
		Currency: quote.Currency,
	}, nil
}

func (a *Adapter) Expirations(ctx context.Context, symbol string) ([]string, error) {
	data, err := a.client.GetOptions(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	out := make([]string, 0, len(data.ExpirationDates))
	for _, epoch := range data.ExpirationDates {
		out = append(out, time.Unix(epoch, 0).UTC().Format(dateLayout))
	}
	return out, nil
}

func (a *Adapter) OptionChain(ctx context.Context, symbol, expiration string) (*provider.Chain, error) {
	t, err := time.ParseInLocation(dateLayout, expiration, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("bad expiration %q: %w", expiration, err)
	}
	data, err := a.client.GetOptions(ctx, symbol, t.Unix())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return &provider.Chain{
		Calls: toRecords(data.Calls),
		Puts:  toRecords(data.Puts),
	}, nil
}

func toRecords(rows []yahoo.Record) []provider.OptionRecord {
	out := make([]provider.OptionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, provider.OptionRecord(r))
	}
	return out
}
