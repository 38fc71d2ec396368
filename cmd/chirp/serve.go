package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MosinFAM/chirp/internal/config"
	"github.com/MosinFAM/chirp/internal/db"
	"github.com/MosinFAM/chirp/internal/feed"
	"github.com/MosinFAM/chirp/internal/identity"
	"github.com/MosinFAM/chirp/internal/ratelimit"
	"github.com/MosinFAM/chirp/internal/server"
	"github.com/MosinFAM/chirp/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	var (
		store storage.Storage
		users identity.Directory
	)
	switch cfg.StorageType {
	case config.StoragePostgres:
		conn, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		store = storage.NewPostgresStorage(conn, logger)
		users = identity.NewPostgresDirectory(conn, logger)
	default:
		store = storage.NewMemoryStorage(logger)
		users = identity.NewMemoryDirectory()
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimitActions, cfg.RateLimitWindow)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitActions, cfg.RateLimitWindow)
	}

	policy, err := feed.ParseContentPolicy(cfg.ContentPolicy)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	feedService := feed.NewService(store, users, limiter, policy, logger)
	api := server.New(feedService, users, identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL), logger)
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(cfg.Origins()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.String("address", srv.Addr), zap.String("storage", cfg.StorageType))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB connects to Postgres and brings the schema up to date.
func openDB(ctx context.Context) (*sql.DB, error) {
	conn, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if err := db.Migrate(conn, cfg.MigrationsDir, logger); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize DB: %w", err)
	}
	return conn, nil
}
