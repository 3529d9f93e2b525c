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

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shadestock/api/internal/auth"
	"github.com/shadestock/api/internal/config"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/feed"
	"github.com/shadestock/api/internal/router"
	"github.com/shadestock/api/internal/ws"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to set up session store: %v", err)
	}
	defer closeSessions()

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run(ctx)

	relay := feed.NewRelay(queries, hub)
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		feed.Run(ctx, feed.PoolAcquirer{Pool: pool}, feed.OrderInsertsChannel, relay.Handle)
	}()

	r, err := router.New(cfg, queries, pool, hub, sessions)
	if err != nil {
		log.Fatalf("Unable to build router: %v", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
		os.Exit(1)
	}
	<-feedDone
	log.Println("Server stopped")
}

// newSessionStore uses Redis when REDIS_URL is set and process memory
// otherwise. The returned func releases the store's resources.
func newSessionStore(ctx context.Context, cfg *config.Config) (auth.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, keeping sessions in memory")
		return auth.NewMemorySessionStore(cfg.SessionTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Println("Connected to redis")

	return auth.NewRedisSessionStore(rdb, cfg.SessionTTL), func() {
		if err := rdb.Close(); err != nil {
			log.Printf("ERROR: close redis: %v", err)
		}
	}, nil
}
