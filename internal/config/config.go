package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	ServerAddr string

	// DatabaseURL enables the Postgres persistence backend when set;
	// empty means the in-memory backend.
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Matching & voting
	VoteWindow     time.Duration
	MatchInterval  time.Duration
	SweepInterval  time.Duration
	BoostIncrement float64
	BoostCap       float64

	// Liveness
	StaleAfter    time.Duration
	OfflineAfter  time.Duration
	CooldownAfter time.Duration

	// CompatRule is an optional govaluate expression applied on top of
	// the built-in preference checks. Empty disables it.
	CompatRule string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	return &Config{
		ServerAddr:     getenv("SERVER_ADDR", "0.0.0.0:8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        parseInt(os.Getenv("REDIS_DB"), 0),
		VoteWindow:     parseDuration(getenv("VOTE_WINDOW", "10s"), 10*time.Second),
		MatchInterval:  parseDuration(getenv("MATCH_INTERVAL", "1s"), time.Second),
		SweepInterval:  parseDuration(getenv("SWEEP_INTERVAL", "2s"), 2*time.Second),
		BoostIncrement: parseFloat(getenv("FAIRNESS_BOOST", "10"), 10),
		BoostCap:       parseFloat(getenv("FAIRNESS_BOOST_CAP", "30"), 30),
		StaleAfter:     parseDuration(getenv("LIVENESS_STALE_AFTER", "5s"), 5*time.Second),
		OfflineAfter:   parseDuration(getenv("LIVENESS_OFFLINE_AFTER", "15s"), 15*time.Second),
		CooldownAfter:  parseDuration(getenv("DISCONNECT_COOLDOWN", "10s"), 10*time.Second),
		CompatRule:     os.Getenv("COMPAT_RULE"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
