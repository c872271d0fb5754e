package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/db"
	"github.com/AdamBeresnev/innerdrive/internal/race"
)

type Config struct {
	HTTPAddr    string
	DBDriver    string
	DatabaseURL string

	StationCodes []string
	StationNames []string

	LeaderboardSize     int
	LeaderboardCacheTTL time.Duration
	RedisAddr           string
	RedisPassword       string

	AdminPasswordHash string
	SessionLifetime   time.Duration
	ProxyAPIKey       string

	AppPoints          int
	MerchPointsPerUnit int
	SplitTolerance     time.Duration
}

func FromEnv() (Config, error) {
	var c Config
	var err error

	c.HTTPAddr = envOr("HTTP_ADDR", ":8080")
	c.DBDriver = envOr("DB_DRIVER", db.DriverSQLite)
	if c.DBDriver != db.DriverSQLite && c.DBDriver != db.DriverPostgres {
		return c, fmt.Errorf("DB_DRIVER must be %s or %s, got %q", db.DriverSQLite, db.DriverPostgres, c.DBDriver)
	}
	c.DatabaseURL = envOr("DATABASE_URL", "innerdrive.db?_journal_mode=WAL")

	c.StationCodes = splitList(os.Getenv("STATION_CODES"))
	if len(c.StationCodes) != race.SectorCount {
		return c, fmt.Errorf("STATION_CODES must list %d codes, got %d", race.SectorCount, len(c.StationCodes))
	}
	seen := map[string]bool{}
	for _, code := range c.StationCodes {
		code = race.NormalizeAccessCode(code)
		if seen[code] {
			return c, fmt.Errorf("STATION_CODES contains %q twice", code)
		}
		seen[code] = true
	}
	c.StationNames = splitList(os.Getenv("STATION_NAMES"))

	if c.LeaderboardSize, err = envInt("LEADERBOARD_SIZE", 8); err != nil {
		return c, err
	}
	if c.LeaderboardSize <= 0 {
		return c, fmt.Errorf("LEADERBOARD_SIZE must be positive")
	}
	if c.LeaderboardCacheTTL, err = envDuration("LEADERBOARD_CACHE_TTL", 30*time.Second); err != nil {
		return c, err
	}
	c.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")

	c.AdminPasswordHash = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	if c.SessionLifetime, err = envDuration("SESSION_LIFETIME", 12*time.Hour); err != nil {
		return c, err
	}
	c.ProxyAPIKey = strings.TrimSpace(os.Getenv("PROXY_API_KEY"))

	if c.AppPoints, err = envInt("APP_POINTS", 50); err != nil {
		return c, err
	}
	if c.MerchPointsPerUnit, err = envInt("MERCH_POINTS_PER_UNIT", 1); err != nil {
		return c, err
	}
	if c.SplitTolerance, err = envDuration("SPLIT_TOLERANCE", 10*time.Second); err != nil {
		return c, err
	}

	return c, nil
}

func (c Config) AdminEnabled() bool { return c.AdminPasswordHash != "" }

func (c Config) CacheEnabled() bool { return c.RedisAddr != "" }

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
