package yahoo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	yahoo "optionsproxy/internal/provider/yahoo"
)

func TestGetOptions(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Contains(t, req.URL.Path, "/v7/finance/options/AAPL")
			require.Empty(t, req.URL.Query().Get("date"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(mockOptionsResponse))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions without a specific expiration
	data, err := client.GetOptions(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.NotNil(t, data)

	// Assert: the expiration list and the default chain are decoded
	require.Equal(t, "AAPL", data.UnderlyingSymbol)
	require.Equal(t, []int64{1710460800, 1713484800}, data.ExpirationDates)
	require.Len(t, data.Calls, 2)
	require.Len(t, data.Puts, 1)

	// Assert: record numbers round-trip as json.Number
	strike, ok := data.Calls[0]["strike"].(json.Number)
	require.Truef(t, ok, "expected strike to be json.Number, got %T", data.Calls[0]["strike"])
	require.Equal(t, "100", strike.String())
	require.Equal(t, json.Number("1.05"), data.Calls[0]["bid"])
}

func TestGetOptions_SpecificExpiration(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method and check the date query parameter
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "1713484800", req.URL.Query().Get("date"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(mockOptionsResponse))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions with a unix expiration
	data, err := client.GetOptions(context.Background(), "AAPL", 1713484800)
	require.NoError(t, err)
	require.NotNil(t, data)
}

func TestGetOptions_EmptyResult(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method with an empty result set
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"optionChain": map[string]any{"result": []any{}, "error": nil},
			}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions
	data, err := client.GetOptions(context.Background(), "ZZZZZ", 0)

	// Assert: no data and no error; callers treat this as a failed attempt
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestGetOptions_ErrProviderError(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method with an embedded provider error
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"optionChain": map[string]any{
					"result": []any{},
					"error": map[string]any{
						"code":        "Not Found",
						"description": "No data found, symbol may be delisted",
					},
				},
			}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions
	data, err := client.GetOptions(context.Background(), "ZZZZZ", 0)
	require.Error(t, err)
	require.Nil(t, data)
}

func TestGetOptions_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("error")
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions
	data, err := client.GetOptions(context.Background(), "AAPL", 0)
	require.Error(t, err)
	require.Nil(t, data)
}

func TestGetOptions_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(bytes.NewReader([]byte{})),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions
	data, err := client.GetOptions(context.Background(), "AAPL", 0)
	require.Error(t, err)
	require.Nil(t, data)
}

func TestGetOptions_ErrDecodingResponse(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			buffer.WriteString("invalid json")

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: setup a new Yahoo API client
	client, err := yahoo.NewYahooAPIClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetOptions
	data, err := client.GetOptions(context.Background(), "AAPL", 0)
	require.Error(t, err)
	require.Nil(t, data)
}

// mockOptionsResponse is a trimmed options endpoint payload.
var mockOptionsResponse = map[string]any{
	"optionChain": map[string]any{
		"result": []any{
			map[string]any{
				"underlyingSymbol": "AAPL",
				"expirationDates":  []any{1710460800, 1713484800},
				"options": []any{
					map[string]any{
						"expirationDate": 1710460800,
						"calls": []any{
							map[string]any{
								"contractSymbol": "AAPL240315C00100000",
								"strike":         100,
								"bid":            1.05,
								"ask":            1.10,
								"volume":         321,
								"openInterest":   1000,
							},
							map[string]any{
								"contractSymbol": "AAPL240315C00110000",
								"strike":         110,
								"bid":            0.42,
								"ask":            0.47,
							},
						},
						"puts": []any{
							map[string]any{
								"contractSymbol": "AAPL240315P00100000",
								"strike":         100,
								"bid":            2.10,
								"ask":            2.15,
							},
						},
					},
				},
			},
		},
		"error": nil,
	},
}
