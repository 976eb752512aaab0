package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"

	"optionsproxy/internal/config"
	"optionsproxy/internal/httpx"
	"optionsproxy/internal/options"
	"optionsproxy/internal/provider/yahoo"
	"optionsproxy/internal/provider/yahooadapter"
	"optionsproxy/internal/ratelimit"
	"optionsproxy/internal/respcache"
	"optionsproxy/internal/retry"
)

// optionsQuery holds the raw query parameters of one options request.
type optionsQuery struct {
	Expiration string   `schema:"expiration"`
	MinStrike  *float64 `schema:"min_strike"`
	MaxStrike  *float64 `schema:"max_strike"`
}

type server struct {
	chain    options.ChainFetcher
	verifier options.SymbolVerifier // nil disables existence checks
	cfg      config.Config
	decoder  *schema.Decoder
	now      func() time.Time
}

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/options/{symbol}", s.handleOptions).Methods(http.MethodGet)
	return r
}

func (s *server) handleOptions(w http.ResponseWriter, r *http.Request) {
	symbol, err := options.ValidateSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var q optionsQuery
	if err := s.decoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}

	p := options.Params{MinStrike: q.MinStrike, MaxStrike: q.MaxStrike}
	if q.Expiration != "" {
		exp, err := options.ValidateExpiration(q.Expiration, s.now(), s.cfg.Options.MinDaysToExpiration)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Expiration = exp
	}

	if s.verifier != nil {
		if err := s.verifier.VerifySymbol(r.Context(), symbol); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := s.chain.Fetch(r.Context(), symbol, p)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(res)
}

// statusFor maps pipeline errors onto HTTP statuses: "upstream has nothing"
// is 404, an exhausted upstream is 502, anything unexpected is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, options.ErrNoExpirations), errors.Is(err, options.ErrNoValidExpirations):
		return http.StatusNotFound
	case errors.Is(err, options.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeErrorMessage names the first query parameter the decoder rejected,
// distinguishing unparseable numbers from other decode failures.
func decodeErrorMessage(err error) string {
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for field, fieldErr := range multi {
			var conv schema.ConversionError
			if errors.As(fieldErr, &conv) {
				return fmt.Sprintf("invalid number for query parameter %q", field)
			}
			return fmt.Sprintf("invalid query parameter %q", field)
		}
	}
	return "invalid query parameters"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	httpClient.Headers = map[string]string{"Accept": "application/json"}

	yahooClient, err := yahoo.NewYahooAPIClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Fatalf("yahoo client: %v", err)
	}
	upstream := yahooadapter.New(yahooadapter.Config{}, yahooClient)

	fetcher := options.NewFetcher(upstream, retry.DefaultPolicy(), options.Config{
		MinDaysToExpiration: cfg.Options.MinDaysToExpiration,
	})
	var chain options.ChainFetcher = fetcher
	if cfg.Cache.TTLSeconds > 0 {
		chain = respcache.New(chain, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}
	var verifier options.SymbolVerifier
	if cfg.Options.VerifySymbols {
		verifier = fetcher
	}

	srv := &server{chain: chain, verifier: verifier, cfg: cfg, decoder: newQueryDecoder(), now: time.Now}

	var limiter *ratelimit.PerClient
	if cfg.RateLimit.MaxRequestsPerMinute > 0 {
		limiter = ratelimit.NewPerClient(cfg.RateLimit.MaxRequestsPerMinute, cfg.RateLimit.Burst)
	}

	handler := withJSONHeaders(withGzip(recoverPanic(withRateLimit(limiter, srv.routes()))))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// withRateLimit rejects over-limit clients with 429. The health endpoint is
// exempt so orchestrators are never throttled.
func withRateLimit(limiter *ratelimit.PerClient, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !limiter.Allow(host, time.Now()) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("panic serving %s: %v", r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
