package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/bookit/internal/booking"
	"github.com/iliyamo/bookit/internal/config"
	"github.com/iliyamo/bookit/internal/database"
	"github.com/iliyamo/bookit/internal/queue"
	"github.com/iliyamo/bookit/internal/repository"
	"github.com/iliyamo/bookit/internal/router"
	"github.com/iliyamo/bookit/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := utils.NewLogger(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(ctx); err != nil {
		log.Warn("redis unavailable: rate limits are per process and caching is off", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	bookingRepo := repository.NewBookingRepo(db)
	locks := booking.NewLockManager(repository.NewBookingLockRepo(db), log.Named("locks"),
		booking.WithLease(cfg.Lock.Lease))

	deps := booking.Deps{
		Locks:       locks,
		Admission:   booking.NewAdmission(bookingRepo, log.Named("admission")),
		Bookings:    bookingRepo,
		Experiences: repository.NewExperienceRepo(db),
		PromoCodes:  repository.NewPromoCodeRepo(db),
		Policy:      booking.RetryPolicy{MaxAttempts: cfg.Lock.MaxAttempts, Backoff: cfg.Lock.Backoff},
		Log:         log.Named("booking"),
	}
	var publisher *queue.Publisher
	if cfg.Messaging {
		publisher = queue.NewPublisher(cfg.RabbitURL, log.Named("publisher"))
		defer publisher.Close()
		deps.Publisher = publisher
	}
	svc := booking.NewService(deps)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, svc, router.Options{
		FrontendURL: cfg.FrontendURL,
		RateLimits:  config.LoadRateLimits(),
		Cache:       config.LoadCacheConfig(),
		Redis:       rdb,
		Log:         log.Named("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		booking.NewMonitor(locks, cfg.Lock.MonitorInterval, cfg.Lock.ContentionThreshold, log.Named("lock-monitor")).Run(gctx)
		return nil
	})
	if cfg.Messaging {
		g.Go(func() error {
			return queue.NewConsumer(cfg.RabbitURL, cfg.ReceiptLog, log.Named("booking-consumer")).Run(gctx)
		})
	}

	err = g.Wait()
	svc.Wait()
	log.Info("server stopped")
	return err
}
