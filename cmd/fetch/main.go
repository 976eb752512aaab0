package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"optionsproxy/internal/config"
	"optionsproxy/internal/httpx"
	"optionsproxy/internal/options"
	"optionsproxy/internal/provider/yahoo"
	"optionsproxy/internal/provider/yahooadapter"
	"optionsproxy/internal/retry"
)

func main() {
	var symbol string
	var expiration string
	var minStrike string
	var maxStrike string
	var timeout int
	var configPath string

	flag.StringVar(&symbol, "symbol", getenv("SYMBOL", "AAPL"), "ticker symbol")
	flag.StringVar(&expiration, "expiration", getenv("EXPIRATION", ""), "requested expiration YYYY-MM-DD (optional)")
	flag.StringVar(&minStrike, "min-strike", "", "minimum strike (optional)")
	flag.StringVar(&maxStrike, "max-strike", "", "maximum strike (optional)")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout != 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	sym, err := options.ValidateSymbol(symbol)
	if err != nil {
		log.Fatalf("symbol: %v", err)
	}

	p := options.Params{}
	if expiration != "" {
		exp, err := options.ValidateExpiration(expiration, time.Now(), cfg.Options.MinDaysToExpiration)
		if err != nil {
			log.Fatalf("expiration: %v", err)
		}
		p.Expiration = exp
	}
	p.MinStrike = parseStrike("min-strike", minStrike)
	p.MaxStrike = parseStrike("max-strike", maxStrike)

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	httpClient.Headers = map[string]string{"Accept": "application/json"}
	yahooClient, err := yahoo.NewYahooAPIClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Fatalf("yahoo client: %v", err)
	}
	fetcher := options.NewFetcher(yahooadapter.New(yahooadapter.Config{}, yahooClient), retry.DefaultPolicy(), options.Config{
		MinDaysToExpiration: cfg.Options.MinDaysToExpiration,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	res, err := fetcher.Fetch(ctx, sym, p)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	log.Infof("%s %s: %d calls, %d puts", res.Symbol, res.Expiration, len(res.Calls), len(res.Puts))

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}

// parseStrike turns an optional flag value into a bound, exiting on garbage
// rather than silently ignoring it.
func parseStrike(name, raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("%s: not a number: %q", name, raw)
	}
	return &f
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 { return x }
	}
	return def
}
