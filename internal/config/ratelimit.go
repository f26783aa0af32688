package config

import (
	"strings"
	"time"
)

// RateLimitConfig describes one token bucket.  Buckets are keyed per
// client according to KeyStrategy and refill RefillTokens every
// RefillInterval up to Capacity.
type RateLimitConfig struct {
	Name           string
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Message        string
	Debug          bool
}

// RateLimits groups the buckets applied to the public API.
type RateLimits struct {
	API          RateLimitConfig // every /api route
	Booking      RateLimitConfig // POST /api/bookings
	PromoCode    RateLimitConfig // promo code validation
	Availability RateLimitConfig // availability checks
}

// LoadRateLimits builds the per-route buckets.  Each bucket refills
// completely once per window, which makes it behave like a fixed
// window of Capacity requests.
func LoadRateLimits() RateLimits {
	return RateLimits{
		API: loadBucket("api", 100, 15*time.Minute,
			"Too many requests from this IP, please try again after 15 minutes."),
		Booking: loadBucket("booking", 10, 15*time.Minute,
			"Too many booking attempts. Please try again after 15 minutes."),
		PromoCode: loadBucket("promo", 15, 15*time.Minute,
			"Too many promo code validation attempts. Please try again after 15 minutes."),
		Availability: loadBucket("availability", 50, time.Minute,
			"Too many availability checks. Please slow down."),
	}
}

func loadBucket(name string, max int, window time.Duration, msg string) RateLimitConfig {
	env := "RATE_LIMIT_" + strings.ToUpper(name) + "_"
	def := RateLimitConfig{
		Name:           name,
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt(env+"MAX", max),
		RefillInterval: envDur(env+"WINDOW", window),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl") + ":" + name,
		Message:        msg,
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = window
	}
	def.RefillTokens = def.Capacity
	def.TTL = 2 * def.RefillInterval
	return def
}
