package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
)

// Quote is the basic instrument info from the quoteSummary endpoint.
type Quote struct {
	Symbol       string
	ShortName    string
	Currency     string
	ExchangeName string
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				Symbol       string `json:"symbol"`
				ShortName    string `json:"shortName"`
				Currency     string `json:"currency"`
				ExchangeName string `json:"exchangeName"`
			} `json:"price"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// GetQuote retrieves basic info for a symbol via the quoteSummary price
// module. A nil result with a nil error means the upstream returned an empty
// result set for the symbol.
func (c *YahooAPIClient) GetQuote(ctx context.Context, symbol string, opts ...YahooAPIClientOption) (*Quote, error) {
	override := c.override(opts)

	query := maps.Clone(override.query)
	query.Add("modules", "price")

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", override.baseURL, symbol, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("symbol not found: %s", symbol)

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var envelope quoteSummaryEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding quote summary response: %w", err)
	}
	if e := envelope.QuoteSummary.Error; e != nil && (e.Code != "" || e.Description != "") {
		return nil, fmt.Errorf("provider error: code=%q description=%q", e.Code, e.Description)
	}
	if len(envelope.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	price := envelope.QuoteSummary.Result[0].Price
	return &Quote{
		Symbol:       price.Symbol,
		ShortName:    price.ShortName,
		Currency:     price.Currency,
		ExchangeName: price.ExchangeName,
	}, nil
}
