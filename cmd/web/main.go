package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/cache"
	"github.com/AdamBeresnev/innerdrive/internal/config"
	"github.com/AdamBeresnev/innerdrive/internal/db"
	"github.com/AdamBeresnev/innerdrive/internal/live"
	"github.com/AdamBeresnev/innerdrive/internal/service"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	database, err := db.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := service.NewStores(database)
	if _, err := service.NewStationService(database, stores).Sync(ctx, cfg.StationCodes, cfg.StationNames); err != nil {
		slog.Error("failed to sync stations", "error", err)
		os.Exit(1)
	}

	hub := live.NewHub()
	go hub.Run(ctx)

	app := newApplication(cfg, database, stores, hub, newLeaderboardCache(ctx, cfg), newSessionManager(cfg, database))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver, "admin", cfg.AdminEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newSessionManager(cfg config.Config, database *sqlx.DB) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	// The sessions table only exists in the SQLite schema
	if cfg.DBDriver == db.DriverSQLite {
		sessionManager.Store = sqlite3store.New(database.DB)
	} else {
		sessionManager.Store = memstore.New()
	}
	return sessionManager
}

// newLeaderboardCache returns nil when redis is not configured or not
// reachable; the leaderboard then reads the view directly.
func newLeaderboardCache(ctx context.Context, cfg config.Config) service.LeaderboardCache {
	if !cfg.CacheEnabled() {
		return nil
	}
	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	c := cache.NewLeaderboardCache(client, cfg.LeaderboardCacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, leaderboard cache disabled", "addr", cfg.RedisAddr, "error", err)
		client.Close()
		return nil
	}
	slog.Info("leaderboard cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.LeaderboardCacheTTL)
	return c
}
