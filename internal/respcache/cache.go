package respcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"optionsproxy/internal/options"
)

// keySchemaVersion is bumped whenever the signature layout changes so stale
// entries from an older layout can never match.
const keySchemaVersion = "v1"

type entry struct {
	result   *options.ChainResult
	storedAt time.Time
}

// Fetcher memoizes successful chain fetches by call signature for a TTL.
// Entries older than the TTL are silently replaced on the next access.
// Failures are never cached; the next call recomputes. There is no request
// coalescing: concurrent identical misses may each call through.
type Fetcher struct {
	next options.ChainFetcher
	ttl  time.Duration

	store *gocache.Cache
	now   func() time.Time
}

// New wraps next with a TTL cache. The backing store is mutex-protected and
// its janitor garbage-collects entries well past the TTL; freshness is
// decided here against the injectable clock.
func New(next options.ChainFetcher, ttl time.Duration) *Fetcher {
	var store *gocache.Cache
	if ttl > 0 {
		store = gocache.New(2*ttl, 2*ttl)
	} else {
		store = gocache.New(gocache.NoExpiration, 0)
	}
	return &Fetcher{next: next, ttl: ttl, store: store, now: time.Now}
}

func (c *Fetcher) Fetch(ctx context.Context, symbol string, p options.Params) (*options.ChainResult, error) {
	if c.ttl <= 0 {
		return c.next.Fetch(ctx, symbol, p)
	}

	key := Key(symbol, p)
	if v, ok := c.store.Get(key); ok {
		if e, ok := v.(entry); ok && c.now().Sub(e.storedAt) < c.ttl {
			return e.result, nil
		}
	}

	res, err := c.next.Fetch(ctx, symbol, p)
	if err != nil {
		return nil, err
	}
	c.store.Set(key, entry{result: res, storedAt: c.now()}, gocache.DefaultExpiration)
	return res, nil
}

// Key is the deterministic fingerprint of one logical fetch: schema version,
// operation, then every argument in a fixed order with unset filters encoded
// as empty fields.
func Key(symbol string, p options.Params) string {
	min, max := "", ""
	if p.MinStrike != nil {
		min = strconv.FormatFloat(*p.MinStrike, 'f', -1, 64)
	}
	if p.MaxStrike != nil {
		max = strconv.FormatFloat(*p.MaxStrike, 'f', -1, 64)
	}
	sig := fmt.Sprintf("%s|options|%s|%s|%s|%s", keySchemaVersion, symbol, p.Expiration, min, max)
	sum := md5.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}
