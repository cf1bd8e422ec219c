package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "loanflow/internal/adapter/http"
	idem "loanflow/internal/adapter/middleware"
	"loanflow/internal/app"
	"loanflow/internal/config"
	"loanflow/internal/infrastructure/cache"
	"loanflow/internal/infrastructure/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.AppMode, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("bootstrap", zap.Error(err))
	}
	defer func() { _ = a.Close() }()
	if err := a.Migrate(); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB, lg)
	if err != nil {
		lg.Fatal("open redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		_ = a.Queue.Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	sqlDB, err := a.DB.DB()
	if err != nil {
		lg.Fatal("sql handle", zap.Error(err))
	}
	h := httpadp.NewHandler(
		httpadp.Check{Name: "mysql", Fn: sqlDB.PingContext},
		httpadp.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)
	ttl := time.Duration(cfg.IdempTTLSecs) * time.Second
	httpadp.Register(e, h,
		httpadp.NewLoanHandler(a.Loans),
		httpadp.NewStatusHandler(a.Status),
		idem.IdempotencyMiddleware(rdb, ttl, lg.Named("idempotency")),
	)

	go func() {
		addr := ":" + cfg.AppPort
		lg.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	<-queueDone
	// deliver what is still queued before the process exits
	if err := a.Queue.Flush(sctx); err != nil {
		lg.Warn("notification flush incomplete", zap.Int("pending", a.Queue.Len()), zap.Error(err))
	}
}
