package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Yahoo struct {
	BaseURL string `json:"base_url"`
}

type Cache struct {
	TTLSeconds int `json:"ttl_sec"`
}

type RateLimit struct {
	MaxRequestsPerMinute int `json:"max_requests_per_minute"`
	Burst                int `json:"burst"`
}

type Options struct {
	// MinDaysToExpiration is the minimum days out for a monthly contract.
	MinDaysToExpiration int `json:"min_days_to_expiration"`
	// VerifySymbols checks symbol existence upstream before fetching.
	VerifySymbols bool `json:"verify_symbols"`
}

type Config struct {
	Server    Server    `json:"server"`
	Yahoo     Yahoo     `json:"yahoo"`
	Cache     Cache     `json:"cache"`
	RateLimit RateLimit `json:"rate_limit"`
	Options   Options   `json:"options"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Yahoo:  Yahoo{BaseURL: "https://query2.finance.yahoo.com"},
		Cache:  Cache{TTLSeconds: 300},
		RateLimit: RateLimit{
			MaxRequestsPerMinute: 100,
			Burst:                100,
		},
		Options: Options{
			MinDaysToExpiration: 30,
			VerifySymbols:       true,
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" { cfg.Yahoo.BaseURL = v }
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.TTLSeconds = x }
	}
	if v := os.Getenv("RATE_LIMIT_MAX_RPM"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.RateLimit.MaxRequestsPerMinute = x }
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.RateLimit.Burst = x }
	}
	if v := os.Getenv("MIN_DAYS_TO_EXPIRATION"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Options.MinDaysToExpiration = x }
	}
	if v := os.Getenv("VERIFY_SYMBOLS"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Options.VerifySymbols = true
		case "0", "false", "no", "n":
			cfg.Options.VerifySymbols = false
		}
	}
}
