package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	DBPath    string
	RedisAddr string

	// ingestion
	FetchInterval      int // minutes
	FeedTimeout        time.Duration
	FeedUserAgent      string
	SchedulerTimezone  string
	DefaultSourceCount int

	// admin panel auth; empty password disables protection
	AdminUser     string
	AdminPassword string

	WebRoot string

	// X (Twitter) API credentials; sharing is disabled when any is missing
	XAPIKey            string
	XAPISecret         string
	XAccessToken       string
	XAccessTokenSecret string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func Load() *Config {
	cfg := &Config{
		AppPort:            getEnv("PORT", "3000"),
		DBPath:             getEnv("DB_PATH", "data/news.db"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		FetchInterval:      getEnvAsInt("FETCH_INTERVAL_MINUTES", 45),
		FeedTimeout:        time.Duration(getEnvAsInt("FEED_TIMEOUT_SECONDS", 10)) * time.Second,
		FeedUserAgent:      getEnv("FEED_USER_AGENT", defaultUserAgent),
		SchedulerTimezone:  getEnv("SCHEDULER_TIMEZONE", "Europe/Istanbul"),
		DefaultSourceCount: getEnvAsInt("DEFAULT_SOURCE_COUNT", -1),
		AdminUser:          getEnv("ADMIN_USER", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		WebRoot:            getEnv("WEB_ROOT", ""),
		XAPIKey:            getEnv("X_API_KEY", ""),
		XAPISecret:         getEnv("X_API_SECRET", ""),
		XAccessToken:       getEnv("X_ACCESS_TOKEN", ""),
		XAccessTokenSecret: getEnv("X_ACCESS_TOKEN_SECRET", ""),
	}

	log.Printf("config loaded: port=%s db=%s interval=%dm tz=%s", cfg.AppPort, cfg.DBPath, cfg.FetchInterval, cfg.SchedulerTimezone)
	return cfg
}

// Location resolves the configured timezone, falling back to UTC when the
// name is unknown. The scheduler and the store's "today" stats share it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		log.Printf("warn: unknown timezone %q, using UTC: %v", c.SchedulerTimezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
