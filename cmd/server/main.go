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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-accounts/internal/config"
	"github.com/iliyamo/vidtube-accounts/internal/database"
	"github.com/iliyamo/vidtube-accounts/internal/handler"
	"github.com/iliyamo/vidtube-accounts/internal/logger"
	"github.com/iliyamo/vidtube-accounts/internal/media"
	"github.com/iliyamo/vidtube-accounts/internal/middleware"
	"github.com/iliyamo/vidtube-accounts/internal/queue"
	"github.com/iliyamo/vidtube-accounts/internal/repository"
	"github.com/iliyamo/vidtube-accounts/internal/router"
	"github.com/iliyamo/vidtube-accounts/internal/service"
	"github.com/iliyamo/vidtube-accounts/internal/utils"
)

func main() {
	// best-effort: real environment wins when no .env exists
	_ = godotenv.Load()

	lg, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			lg.Fatal("db migrate", zap.Error(err))
		}
	}

	store, err := media.NewS3Store(ctx, cfg.Media)
	if err != nil {
		lg.Fatal("media store", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, lg.Named("events"))
		if cfg.Events.StartConsumer {
			c := queue.NewConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.ConsumerLog, lg.Named("consumer"))
			go c.Run(ctx)
		}
	}

	accounts := repository.NewAccountRepo(db)
	tokens := service.NewTokenService(accounts, service.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshSecret: cfg.RefreshSecret,
		RefreshTTL:    cfg.RefreshTTL,
	})
	svc := service.NewAccountService(
		accounts,
		repository.NewSubscriptionRepo(db),
		repository.NewVideoRepo(db),
		tokens,
		utils.NewBcryptHasher(cfg.BcryptCost),
		store,
		service.AccountOptions{
			Cleanup: service.CleanupPolicy{Avatar: cfg.Media.CleanupAvatar, Cover: cfg.Media.CleanupCover},
			Events:  events,
			Log:     lg.Named("accounts"),
		},
	)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(lg)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(lg.Named("http")))
	// multipart uploads carry two images plus form fields
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", 2*cfg.Media.MaxUploadBytes+(1<<20))))

	router.RegisterRoutes(e)
	router.RegisterAccounts(e, router.AccountRoutes{
		Handler: handler.NewAccountHandler(svc, tokens,
			handler.CookieSettings{Secure: cfg.Cookie.Secure, Domain: cfg.Cookie.Domain},
			cfg.RequestTimeout, cfg.Media.UploadTimeout),
		Verifier: tokens,
		Limiter:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg.Named("ratelimit")),
		Cache:    middleware.NewRedisCache(config.LoadCacheConfig(), rdb, lg.Named("cache")),
	})

	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http server shutdown failed", zap.Error(err))
	}
	lg.Info("goodbye")
}
