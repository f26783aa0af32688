package config

import "time"

// CacheConfig tunes the Redis cache in front of catalog reads.  The
// catalog is read-only during booking, so a short TTL is the only
// invalidation.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration // lifetime of a cached response
	Prefix       string        // Redis key namespace
	MaxBodyBytes int           // larger responses are served but not cached
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	cc := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache:catalog"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cc.TTL <= 0 {
		cc.TTL = 30 * time.Second
	}
	return cc
}
