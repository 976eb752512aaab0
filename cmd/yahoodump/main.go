package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"optionsproxy/internal/config"
)

// yahoodump pulls raw upstream responses for a list of symbols and streams
// them into one JSON document, useful for capturing fixtures and debugging
// payload changes.

type httpStatusErr struct {
	code int
	body string
}

func (e *httpStatusErr) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.body) }

func main() {
	var (
		symbolsCSV  string
		date        string
		endpoint    string
		outPath     string
		cfgPath     string
		concurrency int
		timeoutSec  int
		maxRetries  int
	)
	flag.StringVar(&symbolsCSV, "symbols", "AAPL", "comma-separated ticker symbols")
	flag.StringVar(&date, "date", "", "expiration date YYYY-MM-DD (options endpoint only)")
	flag.StringVar(&endpoint, "endpoint", "options", "which upstream endpoint to dump: options or quote")
	flag.StringVar(&outPath, "out", "yahoo_dump.json", "output JSON file path")
	flag.StringVar(&cfgPath, "config", "", "path to config.json (optional)")
	flag.IntVar(&concurrency, "concurrency", 4, "number of parallel requests")
	flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
	flag.IntVar(&maxRetries, "retries", 3, "max retries on 429/5xx")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if endpoint != "options" && endpoint != "quote" {
		log.Fatalf("unknown endpoint %q, want options or quote", endpoint)
	}

	var dateParam string
	if date != "" {
		d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			log.Fatalf("date: %v", err)
		}
		dateParam = fmt.Sprintf("%d", d.Unix())
	}

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal("no symbols provided")
	}
	log.Infof("symbols: %d", len(symbols))

	hc := &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}

	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("create out: %v", err)
	}
	defer outFile.Close()
	bw := bufio.NewWriterSize(outFile, 1<<20)
	defer bw.Flush()

	_, _ = bw.WriteString("{\"responses\":{")
	first := true
	var writeMu sync.Mutex

	buildURL := func(symbol string) string {
		base := strings.TrimRight(cfg.Yahoo.BaseURL, "/")
		switch endpoint {
		case "quote":
			return base + "/v10/finance/quoteSummary/" + url.PathEscape(symbol) + "?modules=price"
		default:
			u := base + "/v7/finance/options/" + url.PathEscape(symbol)
			if dateParam != "" {
				u += "?date=" + dateParam
			}
			return u
		}
	}

	doReq := func(ctx context.Context, symbol string) (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildURL(symbol), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "options-proxy/1.0")
		resp, err := hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if len(b) > 2<<10 {
				b = b[:2<<10]
			}
			return nil, &httpStatusErr{code: resp.StatusCode, body: string(b)}
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("invalid JSON from upstream for %s", symbol)
		}
		return b, nil
	}

	fetch := func(ctx context.Context, symbol string) (json.RawMessage, error) {
		attempt := 0
		for {
			raw, err := doReq(ctx, symbol)
			if err == nil {
				return raw, nil
			}
			if hs, ok := err.(*httpStatusErr); ok {
				if hs.code == 429 || (hs.code >= 500 && hs.code < 600) {
					if attempt < maxRetries {
						back := time.Duration(250*(1<<attempt)) * time.Millisecond
						time.Sleep(back)
						attempt++
						continue
					}
				}
			}
			return nil, err
		}
	}

	jobs := make(chan string, concurrency*2)
	wg := sync.WaitGroup{}
	worker := func() {
		defer wg.Done()
		for symbol := range jobs {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
			raw, err := fetch(ctx, symbol)
			cancel()
			if err != nil {
				log.Warnf("%s: %v", symbol, err)
				continue
			}
			key, _ := json.Marshal(symbol)
			writeMu.Lock()
			if !first {
				_, _ = bw.WriteString(",")
			} else {
				first = false
			}
			_, _ = bw.Write(key)
			_, _ = bw.WriteString(":")
			_, _ = bw.Write(raw)
			writeMu.Unlock()
		}
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}
	for _, s := range symbols {
		jobs <- s
	}
	close(jobs)
	wg.Wait()

	_, _ = bw.WriteString("}}")
	if err := bw.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Infof("done: wrote %s", outPath)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
