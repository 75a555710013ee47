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

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/alokemajumder/rrweb-server/internal/application/ingest"
	"github.com/alokemajumder/rrweb-server/internal/config"
	"github.com/alokemajumder/rrweb-server/internal/infrastructure/messaging/rabbitmq"
	"github.com/alokemajumder/rrweb-server/internal/infrastructure/storage"
	"github.com/alokemajumder/rrweb-server/internal/logger"
	"github.com/alokemajumder/rrweb-server/internal/tenant"
	"github.com/alokemajumder/rrweb-server/internal/tracing"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/handlers"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/middleware"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/router"
)

var version = "dev"

// sysClock implements ingest.Clock using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config    *config.Config
	Server    *http.Server
	Publisher *rabbitmq.Publisher
	Redis     *redis.Client
	Tracer    *tracing.TracerProvider
}

func main() {
	var envFiles []string
	var checkConfig, showVersion bool

	flagSet := pflag.NewFlagSet("rrweb-server", pflag.ContinueOnError)
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "env file(s) to load before reading the environment (default .env)")
	flagSet.BoolVar(&checkConfig, "check-config", false, "validate configuration and tenants, then exit")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if showVersion {
		fmt.Println("rrweb-server", version)
		return
	}

	logger.Init()

	cfg, err := loadConfig(envFiles)
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	if checkConfig {
		reg, err := tenant.Load(cfg.AllowedDomains, cfg.TenantsFile)
		if err != nil {
			zlog.Fatal().Err(err).Msg("tenant registry invalid")
		}
		zlog.Info().Int("tenants", reg.Len()).Strs("buckets", reg.Buckets()).Msg("configuration ok")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Str("version", version).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		zlog.Error().Err(err).Msg("server crashed")
	case <-ctx.Done():
		zlog.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := app.Tracer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("tracer shutdown failed")
	}
}

// loadConfig loads configuration and then re-initializes logging from it, so
// LOG_LEVEL and LOG_FORMAT set in env files take effect.
func loadConfig(envFiles []string) (*config.Config, error) {
	cfg, err := config.LoadFrom(envFiles...)
	if err != nil {
		return nil, err
	}
	logger.InitWithConfig(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// 1) Tenants. A bad registry must stop startup.
	reg, err := tenant.Load(cfg.AllowedDomains, cfg.TenantsFile)
	if err != nil {
		return nil, err
	}
	zlog.Info().Int("tenants", reg.Len()).Strs("buckets", reg.Buckets()).Msg("tenant registry loaded")

	// 2) Infrastructure
	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:    "rrweb-server",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, err
	}
	app.Tracer = tp

	s3Client, err := storage.NewS3Client(ctx, cfg, logger.Log)
	if err != nil {
		return nil, err
	}
	if cfg.S3EnsureBuckets {
		if err := s3Client.EnsureBuckets(ctx, reg.Buckets()); err != nil {
			zlog.Error().Err(err).Msg("failed to ensure buckets exist")
		}
	}

	var pub ingest.SessionPublisher = ingest.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, logger.Log)
		if err != nil {
			return nil, err
		}
		app.Publisher = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: stored sessions will not be announced")
	}

	var limiter *middleware.RedisRateLimiter
	if cfg.RLEnabled && cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable: falling back to in-process rate limit")
		} else {
			app.Redis = rdb
			limiter = middleware.NewRedisRateLimiter(rdb)
		}
	}

	// 3) Application
	svc := ingest.New(reg, s3Client, pub, sysClock{})

	// 4) Transport
	checks := map[string]handlers.Check{
		"tenants": func(context.Context) error {
			if reg.Len() == 0 {
				return errors.New("no tenants configured")
			}
			return nil
		},
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	httpHandler := router.New(router.Deps{
		Sessions: handlers.NewSessionsHandler(svc),
		Config:   handlers.NewConfigHandler(cfg.EnableConsolePlugin),
		Health:   handlers.NewHealthHandler(checks),
		Limiter:  limiter,
	}, cfg)

	// 5) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return app, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (a *App) Close() {
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
