package cache

import (
	"log/slog"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/rpggio/codepulse/internal/metrics"
)

// Provider is a byte cache keyed by string.
type Provider interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// Config controls the in-memory cache.
type Config struct {
	Enabled bool
	SizeMB  int
	TTL     time.Duration
}

type freeCache struct {
	cache   *freecache.Cache
	ttl     int
	metrics metrics.Provider
}

// New returns a freecache-backed provider, or a no-op provider when the
// cache is disabled or sized zero.
func New(conf Config, m metrics.Provider, logger *slog.Logger) Provider {
	if m == nil {
		m = metrics.Noop()
	}
	if !conf.Enabled || conf.SizeMB <= 0 {
		if logger != nil {
			logger.Info("summary cache disabled")
		}
		return noopCache{}
	}

	ttl := max(int(conf.TTL.Seconds()), 1)
	if logger != nil {
		logger.Info("summary cache initialized", "size_mb", conf.SizeMB, "ttl_seconds", ttl)
	}

	return &freeCache{
		cache:   freecache.NewCache(conf.SizeMB * 1024 * 1024),
		ttl:     ttl,
		metrics: m,
	}
}

// unsafeStringToBytes converts without allocating. freecache copies keys,
// so the result is never mutated.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *freeCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		c.metrics.IncCacheMisses()
		return nil, false
	}
	c.metrics.IncCacheHits()
	return val, true
}

func (c *freeCache) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

type noopCache struct{}

func (noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (noopCache) Set(_ string, _ []byte)      {}
