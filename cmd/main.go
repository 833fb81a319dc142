/*
Package main is the entry point for the bookshelf server.

It loads configuration, initializes the global logger, wires the selected
storage backend, the book catalog and the credential service into the HTTP
router, and shuts down gracefully on SIGINT or SIGTERM.
*/
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

	"bookshelf/internal/app/catalog"
	"bookshelf/internal/app/db"
	"bookshelf/internal/app/docstore"
	"bookshelf/internal/app/service"
	"bookshelf/internal/app/user"
	"bookshelf/internal/configs"
	"bookshelf/internal/handler"
	"bookshelf/internal/pkg/auth"
	"bookshelf/internal/pkg/auth/jwt"
	"bookshelf/internal/pkg/clock"
	"bookshelf/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(logx.Options{Development: cfg.IsDevelopment()})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_backend", cfg.StoreBackend).
		Dur("catalog_timeout", cfg.Catalog.Timeout).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open user store", "backend", cfg.StoreBackend)
	}
	defer closeStore()

	searcher, closeCache := newSearcher(ctx, cfg)
	defer closeCache()

	tokens := jwt.NewService(cfg.JWTSecret, clock.Real{}, cfg.TokenTTL)

	svc, err := service.New(store, searcher, tokens, service.Options{BcryptCost: cfg.BcryptCost})
	if err != nil {
		logx.Fatal(err, "Failed to build service")
	}

	router := handler.Router(&handler.AppDeps{
		Config:        cfg,
		Service:       svc,
		Authenticator: auth.NewAuthenticator(tokens),
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Catalog.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Bookshelf server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}

// openStore connects the configured backend and returns it with its cleanup.
func openStore(ctx context.Context, cfg *configs.AppConfig) (user.Store, func(), error) {
	switch cfg.StoreBackend {
	case configs.BackendPostgres:
		sqlDB, closeDB, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return db.NewUserStore(sqlDB), closeDB, nil

	case configs.BackendMongo:
		client, database, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		store := docstore.NewStore(database)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logx.Error(err, "MongoDB disconnect failed")
			}
		}, nil

	default:
		logx.Warn("Using in-memory user store; data is lost on restart")
		return user.NewMemoryStore(), func() {}, nil
	}
}

// newSearcher builds the Google Books client, cached in redis when configured.
func newSearcher(ctx context.Context, cfg *configs.AppConfig) (catalog.Searcher, func()) {
	google := catalog.NewGoogleBooks(catalog.GoogleBooksOptions{
		BaseURL:    cfg.Catalog.BaseURL,
		APIKey:     cfg.Catalog.APIKey,
		Timeout:    cfg.Catalog.Timeout,
		MaxResults: cfg.Catalog.MaxResults,
	})

	if cfg.Catalog.RedisURL == "" {
		return google, func() {}
	}

	opts, err := redis.ParseURL(cfg.Catalog.RedisURL)
	if err != nil {
		logx.Error(err, "Invalid CATALOG_REDIS_URL, search cache disabled")
		return google, func() {}
	}

	rc := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		logx.Warn("Redis unreachable at startup; searches will bypass the cache until it recovers", "error", err.Error())
	}

	return catalog.NewCachedSearcher(google, rc, cfg.Catalog.CacheTTL), func() {
		if err := rc.Close(); err != nil {
			logx.Error(err, "Redis close failed")
		}
	}
}
