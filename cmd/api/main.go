package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"Yatube/internal/cache"
	"Yatube/internal/config"
	"Yatube/internal/logging"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
	"Yatube/internal/repository/redis"
	"Yatube/internal/router"
	"Yatube/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err = run(cfg); err != nil {
		logging.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, database.Options{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if cfg.Database.AutoMigrate {
		if err = database.AutoMigrate(db); err != nil {
			return err
		}
	}

	memCache := cache.NewMemory()
	opts := router.Options{
		DB:            db,
		Tokens:        pkg.NewTokenManager(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL),
		Media:         pkg.NewMediaStore(cfg.Media.Dir, cfg.Media.URLPrefix, cfg.Media.MaxBytes),
		PageCache:     memCache,
		PageSize:      cfg.Feed.PageSize,
		IndexCacheTTL: cfg.Feed.IndexCacheTTL,
		CookieName:    cfg.Auth.CookieName,
		SecureCookie:  cfg.Server.Mode == "release",
		Mode:          cfg.Server.Mode,
	}
	if cfg.SMTP.Host != "" {
		opts.Mailer = pkg.NewSMTPMailer(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		if rdb, err = redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			return err
		}
		defer func() { _ = redis.Close(rdb) }()

		opts.CodeStore = redis.NewResetCodeRepository(rdb)
		if cfg.Auth.SingleSession {
			opts.TokenStore = redis.NewTokenRepository(rdb, cfg.Auth.AccessTTL)
		}
		if cfg.Feed.CacheBackend == "redis" {
			opts.PageCache = redis.NewPageCache(rdb)
		}
	} else if cfg.Auth.SingleSession || cfg.Feed.CacheBackend == "redis" {
		logging.Warn().Msg("redis disabled: single session and redis page cache are off")
	}

	sender := service.LogSender
	if cfg.Kafka.Enabled {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer)
	}

	engine, err := router.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relayer := service.NewOutboxRelayer(db, service.OutboxOptions{
		BatchSize: cfg.Outbox.BatchSize,
		Interval:  cfg.Outbox.Interval,
		MaxRetry:  cfg.Outbox.MaxRetry,
	}, sender)
	go relayer.Run(ctx)
	if opts.PageCache == memCache {
		go memCache.RunCleanup(ctx, time.Minute)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("driver", cfg.Database.Driver).Msg("yatube listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
