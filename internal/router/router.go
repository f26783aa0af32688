// Package router defines how HTTP routes and middleware are registered
// for the API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bookit/internal/config"
	"github.com/iliyamo/bookit/internal/handler"
	"github.com/iliyamo/bookit/internal/middleware"
)

// Options carries what RegisterRoutes needs besides the service.
// Redis may be nil, in which case rate limits are kept per process and
// responses are not cached.
type Options struct {
	FrontendURL string
	RateLimits  config.RateLimits
	Cache       config.CacheConfig
	Redis       *redis.Client
	Log         *zap.Logger
}

// RegisterRoutes installs the global middleware and every /api route on e.
func RegisterRoutes(e *echo.Echo, svc handler.BookingService, opt Options) {
	log := opt.Log

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{opt.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))

	e.GET("/api/health", handler.Health)

	experiences := handler.NewExperienceHandler(svc, log)
	bookings := handler.NewBookingHandler(svc, log)
	promoCodes := handler.NewPromoCodeHandler(svc, log)
	locks := handler.NewLockHandler(svc, log)

	api := e.Group("/api", middleware.NewTokenBucket(opt.RateLimits.API, opt.Redis, log))

	api.GET("/experiences", experiences.List, middleware.CacheCatalog(opt.Cache, opt.Redis, log))
	api.GET("/experiences/:id", experiences.Get)
	api.GET("/experiences/:id/availability", experiences.Availability,
		middleware.NewTokenBucket(opt.RateLimits.Availability, opt.Redis, log))

	api.POST("/bookings", bookings.Create,
		middleware.NewTokenBucket(opt.RateLimits.Booking, opt.Redis, log))
	api.GET("/bookings/:referenceId", bookings.GetByReference)

	api.GET("/promo-codes/validate/:code", promoCodes.Validate,
		middleware.NewTokenBucket(opt.RateLimits.PromoCode, opt.Redis, log))

	api.GET("/locks/metrics", locks.Metrics)
}
