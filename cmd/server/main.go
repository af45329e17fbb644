package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	redis "github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/monolog_auth/internal/config"
	"github.com/Skotchmaster/monolog_auth/internal/events"
	"github.com/Skotchmaster/monolog_auth/internal/handlers"
	"github.com/Skotchmaster/monolog_auth/internal/logging"
	mwauth "github.com/Skotchmaster/monolog_auth/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/monolog_auth/internal/middleware/logging"
	"github.com/Skotchmaster/monolog_auth/internal/models"
	"github.com/Skotchmaster/monolog_auth/internal/repo"
	"github.com/Skotchmaster/monolog_auth/internal/session"
	"github.com/Skotchmaster/monolog_auth/internal/tokens"
	httpserver "github.com/Skotchmaster/monolog_auth/internal/transport/http"
	"github.com/Skotchmaster/monolog_auth/pkg/db"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	}

	codec, err := tokens.NewCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		log.Fatalf("codec init error: %v", err)
	}

	users := &repo.UserRepo{DB: gormDB}
	store := session.NewRedisStore(redisClient, cfg.StoreTimeout)
	svc := &session.Service{
		Users: users,
		Codec: codec,
		Store: store,
		TTL: session.TTLConfig{
			Access:   cfg.AccessTokenTTL,
			Extended: cfg.ExtendedTokenTTL,
			Refresh:  cfg.RefreshTokenTTL,
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Svc:          svc,
			Users:        users,
			Producer:     producer,
			CookieSecure: cfg.CookieSecure,
		},
		Gate: mwauth.NewGate(codec, store, users),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
