package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"
)

// Record is one option contract row from the options endpoint. It is passed
// through without interpretation; numbers decode as json.Number so they
// re-encode exactly as received.
type Record map[string]any

// OptionsData is one page of the options endpoint: the full list of
// expiration dates plus the chain for the requested (or default) expiration.
type OptionsData struct {
	UnderlyingSymbol string
	ExpirationDates  []int64
	Calls            []Record
	Puts             []Record
}

// apiError is the error object Yahoo embeds in its response envelopes.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type optionsEnvelope struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Options          []struct {
				ExpirationDate int64    `json:"expirationDate"`
				Calls          []Record `json:"calls"`
				Puts           []Record `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"optionChain"`
}

// GetOptions retrieves the options page for a symbol. expiration is a unix
// timestamp selecting a specific chain; zero asks for the default (nearest)
// one. A nil result with a nil error means the upstream had no options data
// for the symbol.
func (c *YahooAPIClient) GetOptions(ctx context.Context, symbol string, expiration int64, opts ...YahooAPIClientOption) (*OptionsData, error) {
	override := c.override(opts)

	query := maps.Clone(override.query)
	if expiration > 0 {
		query.Add("date", strconv.FormatInt(expiration, 10))
	}

	url := fmt.Sprintf("%s/v7/finance/options/%s", override.baseURL, symbol)
	if enc := query.Encode(); enc != "" {
		url += "?" + enc
	}
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

	var envelope optionsEnvelope
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding options response: %w", err)
	}
	if e := envelope.OptionChain.Error; e != nil && (e.Code != "" || e.Description != "") {
		return nil, fmt.Errorf("provider error: code=%q description=%q", e.Code, e.Description)
	}
	if len(envelope.OptionChain.Result) == 0 {
		return nil, nil
	}

	result := envelope.OptionChain.Result[0]
	data := &OptionsData{
		UnderlyingSymbol: result.UnderlyingSymbol,
		ExpirationDates:  result.ExpirationDates,
	}
	if len(result.Options) > 0 {
		data.Calls = result.Options[0].Calls
		data.Puts = result.Options[0].Puts
	}
	return data, nil
}
