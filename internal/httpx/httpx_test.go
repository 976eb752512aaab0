package httpx

import (
	"net/http"
	"testing"
	"time"
)

type captureTransport struct {
	got *http.Request
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.got = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestDo_SetsDefaultUserAgentAndHeaders(t *testing.T) {
	transport := &captureTransport{}
	c := New(5 * time.Second)
	c.HTTP = &http.Client{Transport: transport}
	c.Headers = map[string]string{"Accept": "application/json"}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer res.Body.Close()

	if ua := transport.got.Header.Get("User-Agent"); ua != "options-proxy/1.0" {
		t.Fatalf("User-Agent = %q", ua)
	}
	if accept := transport.got.Header.Get("Accept"); accept != "application/json" {
		t.Fatalf("Accept = %q", accept)
	}
}

func TestDo_KeepsCallerHeaders(t *testing.T) {
	transport := &captureTransport{}
	c := New(5 * time.Second)
	c.HTTP = &http.Client{Transport: transport}
	c.Headers = map[string]string{"Accept": "application/json"}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", "custom/2.0")
	req.Header.Set("Accept", "text/plain")
	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer res.Body.Close()

	if ua := transport.got.Header.Get("User-Agent"); ua != "custom/2.0" {
		t.Fatalf("User-Agent = %q, caller value must win", ua)
	}
	if accept := transport.got.Header.Get("Accept"); accept != "text/plain" {
		t.Fatalf("Accept = %q, caller value must win", accept)
	}
}
