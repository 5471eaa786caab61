// Command server runs the account service HTTP API.
//
//	@title						Account Service API
//	@version					1.0
//	@description				User registration, token sessions and profile images.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediahub/account-service/internal/api"
	"github.com/mediahub/account-service/internal/api/handler"
	"github.com/mediahub/account-service/internal/core/service"
	mongodb "github.com/mediahub/account-service/internal/infrastructure/db/mongo"
	redisdb "github.com/mediahub/account-service/internal/infrastructure/db/redis"
	"github.com/mediahub/account-service/internal/infrastructure/queue"
	"github.com/mediahub/account-service/internal/infrastructure/storage/s3"
	"github.com/mediahub/account-service/internal/pkg/config"
	"github.com/mediahub/account-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts",
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		Retries:     cfg.ConnectRetries,
		Log:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
		PoolSize: cfg.Redis.PoolSize,
		Retries:  cfg.ConnectRetries,
		Log:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	denylist := redisdb.NewDenylist(rdb)

	assets, err := s3.New(ctx, s3.Config{
		Endpoint:      cfg.S3.Endpoint,
		Region:        cfg.S3.Region,
		Bucket:        cfg.S3.Bucket,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		PublicBaseURL: cfg.S3.PublicBaseURL,
		UsePathStyle:  cfg.S3.UsePathStyle,
		Timeout:       cfg.S3.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build asset store")
	}

	// Cleanup workers run on their own context so requests still in flight during
	// shutdown can schedule deletions.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	cleaner := queue.NewDispatcher(cfg.Cleanup.Workers, assets, log)
	cleaner.Start(workerCtx)

	// --- Services ---
	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenExpiry,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		RefreshTTL:    cfg.Auth.RefreshTokenExpiry,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build token service")
	}
	sessions := service.NewSessionService(users, tokens, denylist, service.SessionConfig{
		RevokeOnPasswordChange: cfg.Auth.RevokeSessionsOnPasswordChange,
	}, log)
	profiles := service.NewProfileService(users, assets, cleaner, log)

	// --- HTTP ---
	e := api.NewRouter(api.RouterConfig{
		Sessions: sessions,
		Profiles: profiles,
		Tokens:   tokens,
		Denylist: denylist,
		Readiness: map[string]handler.Check{
			"mongo": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis": func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
			"s3":    assets.Ping,
		},
		Cookies:        handler.CookieConfig{Secure: cfg.Auth.CookieSecure},
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	cleaner.Wait()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("close redis")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("disconnect mongo")
	}
	log.Info().Msg("stopped")
}
