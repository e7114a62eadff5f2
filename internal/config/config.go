package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gemcase-backend/internal/economy"
)

// Config is loaded once at startup. Gem-denominated settings are parsed into
// integer minor units here so the rest of the process never sees decimals.
type Config struct {
	Env  string
	Port string

	DatabasePath string
	RedisURL     string
	RedisPass    string
	RedisDB      int

	JWTSecret   string
	APISecret   string
	EventSecret string
	SessionTTL  time.Duration

	StartingGemsCents int64
	EarnRate          float64
	PerOpenCapCents   int64
	DailyCapCents     int64
	SellRate          float64

	OddsRareWeightMult  float64
	OddsDiscount        float64
	EarningsProb        float64
	EarningsGemEarnMult float64
	EarningsStreakMult  float64
	EarningsDiscount    float64

	PoolThresholdsCents []int64
	SchedulerInterval   time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DatabasePath: getEnv("DATABASE_PATH", "data/gemcase.db"),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASS", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		APISecret:   getEnv("API_SECRET", ""),
		EventSecret: getEnv("EVENT_SECRET", "change-me"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 24*time.Hour),

		StartingGemsCents: economy.ToMinorUnits(getEnv("STARTING_GEMS", "15.00")),
		EarnRate:          getEnvFloat("EARN_RATE", 0.25),
		PerOpenCapCents:   economy.ToMinorUnits(getEnv("OPEN_GEM_CAP_PER_OPEN", "50.00")),
		DailyCapCents:     economy.ToMinorUnits(getEnv("DAILY_OPEN_GEM_CAP", "250.00")),
		SellRate:          getEnvFloat("SELL_RATE", 0.60),

		OddsRareWeightMult:  getEnvFloat("ODDS_RARE_WEIGHT_MULT", 2.0),
		OddsDiscount:        getEnvFloat("ODDS_DISCOUNT", 0.10),
		EarningsProb:        getEnvFloat("EARNINGS_BOOST_PROB", 0.15),
		EarningsGemEarnMult: getEnvFloat("EARNINGS_GEM_EARN_MULT", 1.25),
		EarningsStreakMult:  getEnvFloat("EARNINGS_STREAK_MULT", 1.50),
		EarningsDiscount:    getEnvFloat("EARNINGS_DISCOUNT", 0.10),

		SchedulerInterval: getEnvDuration("SCHEDULER_INTERVAL", time.Minute),
	}

	for _, raw := range strings.Split(getEnv("POOL_THRESHOLDS", "0,500,2000,7500,20000"), ",") {
		cfg.PoolThresholdsCents = append(cfg.PoolThresholdsCents, economy.ToMinorUnits(raw))
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Env == "production" && cfg.EventSecret == "change-me" {
		return nil, fmt.Errorf("EVENT_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
