/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave service. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the zap logger
  3. Open SQLite, and MongoDB when LEAVE_STORE=mongo
  4. Pick the verdict cache: Redis when REDIS_ADDR is set, else memory
  5. Seed default holidays into an empty calendar
  6. Configure the HTTP router and start the server

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -reset   Wipe all SQLite tables on startup (development only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the cache sweeper
  4. Close database connections
  5. Exit

SEE ALSO:
  - config/config.go: Every setting and its default
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/api"
	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/cache"
	"github.com/eleave/leave-engine/config"
	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
	"github.com/eleave/leave-engine/store/mongo"
	"github.com/eleave/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	reset := flag.Bool("reset", false, "wipe the SQLite database on startup")
	flag.Parse()
	cfg.Port, cfg.DBPath = *port, *dbPath

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, *reset, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg config.Config, reset bool, logger *zap.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	if reset {
		if cfg.IsProduction() {
			return fmt.Errorf("-reset is not allowed in production")
		}
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
		logger.Warn("database reset", zap.String("path", cfg.DBPath))
	}

	var leaves generic.LeaveStore = store
	if cfg.LeaveStore == "mongo" {
		ms, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer ms.Close(context.Background())
		leaves = ms
		logger.Info("leave records stored in mongo", zap.String("db", cfg.MongoDB))
	}

	// Verdict cache
	var verdicts quota.VerdictCache
	var sweeper *api.SweepScheduler
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, verdict cache will miss", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		verdicts = cache.NewRedis(rdb, cfg.CacheTTL, logger)
	} else {
		mem := cache.NewMemory(cfg.CacheTTL)
		verdicts = mem
		sweeper = api.NewSweepScheduler(mem, logger)
		sweeper.Interval = cfg.SweepInterval
		sweeper.Start()
		defer sweeper.Stop()
	}

	checker := quota.NewChecker(leaves, quota.Policy{MonthlyLimit: cfg.MonthlyLeaveLimit},
		quota.WithCache(verdicts),
		quota.WithBackoff(quota.Backoff{Attempts: cfg.FetchRetries, Initial: cfg.FetchBackoff, Max: 2 * time.Second}),
		quota.WithLogger(logger),
	)

	if err := seedCalendar(ctx, store, checker.Now().Year(), logger); err != nil {
		logger.Warn("holiday seeding failed", zap.Error(err))
	}

	// Initialize handler
	handler := api.NewHandler(api.Deps{
		Users:    store,
		Leaves:   leaves,
		Holidays: store,
		Feedback: store,
		Checker:  checker,
		Issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Logger:   logger,
	})

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.AllowedOrigins})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.Int("monthly_limit", cfg.MonthlyLeaveLimit),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seedCalendar adds the default holidays when the calendar is empty.
func seedCalendar(ctx context.Context, store generic.HolidayStore, year int, logger *zap.Logger) error {
	existing, err := store.ListHolidays(ctx, generic.HolidayFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	added, err := api.SeedHolidays(ctx, store, year)
	if err != nil {
		return err
	}
	logger.Info("seeded default holidays", zap.Int("year", year), zap.Int("added", added))
	return nil
}
