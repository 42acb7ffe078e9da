package fx

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long a fetched conversion rate stays valid.
const DefaultTTL = time.Hour

// RateSource provides conversion rates for currency pairs
type RateSource interface {
	Rate(src, dst string) (float64, error)
}

type cachedRate struct {
	rate      float64
	fetchedAt time.Time
}

// Cache resolves currency-pair conversion rates with time-bounded caching.
// A lookup failure degrades to the identity rate 1.0 so that a conversion
// problem never aborts a whole record. The cache is process-wide and safe
// for use from the scheduler as well as the request path.
type Cache struct {
	source RateSource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	rates map[string]cachedRate

	log zerolog.Logger
}

// NewCache creates a new FX rate cache
func NewCache(source RateSource, log zerolog.Logger) *Cache {
	return &Cache{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		rates:  make(map[string]cachedRate),
		log:    log.With().Str("component", "fx_cache").Logger(),
	}
}

// Rate returns the conversion rate from src to dst. Identity pairs return
// 1.0 without consulting the source.
func (c *Cache) Rate(src, dst string) float64 {
	if src == dst {
		return 1.0
	}

	key := src + "/" + dst

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.rates[key]; ok && c.now().Sub(cached.fetchedAt) < c.ttl {
		return cached.rate
	}

	rate, err := c.source.Rate(src, dst)
	if err != nil || rate <= 0 {
		c.log.Warn().
			Err(err).
			Str("from", src).
			Str("to", dst).
			Msg("FX lookup failed, degrading to identity rate")
		return 1.0
	}

	c.rates[key] = cachedRate{rate: rate, fetchedAt: c.now()}

	c.log.Debug().
		Str("from", src).
		Str("to", dst).
		Float64("rate", rate).
		Msg("Cached FX rate")

	return rate
}

// Clear drops all cached rates
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = make(map[string]cachedRate)
}
