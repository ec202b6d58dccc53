/*
Package config loads process configuration.

SOURCES (later wins):
  1. Defaults
  2. .env file in the working directory, if present
  3. Environment variables
  4. Command-line flags (-port, -db), applied by cmd/server

KEYS:
  APP_ENV              development | production      (development)
  PORT                 HTTP port                     (8080)
  DB_PATH              SQLite path or ":memory:"     (eleave.db)
  JWT_SECRET           HMAC secret, required in production
  JWT_TTL              token lifetime                (24h)
  MONTHLY_LEAVE_LIMIT  approved days per month       (3)
  CACHE_TTL            verdict cache lifetime        (5m)
  REDIS_ADDR           enables the Redis verdict cache
  REDIS_PASSWORD, REDIS_DB
  LEAVE_STORE          sqlite | mongo                (sqlite)
  MONGO_URI, MONGO_DB  used when LEAVE_STORE=mongo   (-, eleave)
  ALLOWED_ORIGINS      comma separated CORS origins
  FETCH_RETRIES        record fetch retries          (2)
  FETCH_BACKOFF        first retry delay             (200ms)
  SWEEP_INTERVAL       in-memory cache sweep period  (1m)
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSecret = "dev-secret-change-me"

type Config struct {
	AppEnv string
	Port   int
	DBPath string

	JWTSecret string
	JWTTTL    time.Duration

	MonthlyLeaveLimit int
	CacheTTL          time.Duration
	FetchRetries      int
	FetchBackoff      time.Duration
	SweepInterval     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LeaveStore string
	MongoURI   string
	MongoDB    string

	AllowedOrigins []string
}

func (c Config) IsProduction() bool { return c.AppEnv == "production" }

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnvInt("PORT", 8080),
		DBPath:            getEnv("DB_PATH", "eleave.db"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            getEnvDuration("JWT_TTL", 24*time.Hour),
		MonthlyLeaveLimit: getEnvInt("MONTHLY_LEAVE_LIMIT", 3),
		CacheTTL:          getEnvDuration("CACHE_TTL", 5*time.Minute),
		FetchRetries:      getEnvInt("FETCH_RETRIES", 2),
		FetchBackoff:      getEnvDuration("FETCH_BACKOFF", 200*time.Millisecond),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Minute),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		LeaveStore:        getEnv("LEAVE_STORE", "sqlite"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "eleave"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devSecret
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required in production")
	}
	if c.MonthlyLeaveLimit <= 0 {
		problems = append(problems, "MONTHLY_LEAVE_LIMIT must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if c.FetchRetries < 0 {
		problems = append(problems, "FETCH_RETRIES must not be negative")
	}
	switch c.LeaveStore {
	case "sqlite":
	case "mongo":
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required when LEAVE_STORE=mongo")
		}
	default:
		problems = append(problems, fmt.Sprintf("LEAVE_STORE %q must be sqlite or mongo", c.LeaveStore))
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
