package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/config"
)

// bodyRecorder tees a JSON response body into buf, up to limit bytes.
type bodyRecorder struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
		r.truncated = true
	} else if !r.truncated {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// catalogKey is the cache key of a GET on the request path and query.
func catalogKey(prefix string, c echo.Context) string {
	u := c.Request().URL
	sum := sha1.Sum([]byte(u.Path + "?" + u.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// CacheCatalog serves GET responses of catalog reads from Redis and
// stores successful JSON bodies for cfg.TTL.  It is a no-op when caching
// is disabled or rdb is nil.
func CacheCatalog(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := catalogKey(cfg.Prefix, c)

			body, err := rdb.Get(ctx, key).Bytes()
			if err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}
			if err != redis.Nil {
				log.Debug("cache: redis get failed", zap.String("key", key), zap.Error(err))
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, rec.buf.Bytes(), cfg.TTL).Err(); err != nil {
				log.Debug("cache: redis set failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
