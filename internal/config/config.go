package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	CORSOrigins []string
	SiteURL     string

	// Paystack
	PaystackSecretKey string
	PaystackBaseURL   string

	// Payment verification retry policy
	VerifyAttempts int
	VerifyDelay    time.Duration

	// Currency used when the payment metadata carries no original currency.
	DefaultCurrency string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. It never fails: missing credentials disable the
// corresponding feature at wire-up time.
func Load() *Config {
	return &Config{
		Port:              envInt("PORT", 8080),
		DBPath:            envStr("DB_PATH", "data/kazinest.db"),
		JWTSecret:         envStr("JWT_SECRET", "dev-secret-change-me"),
		CORSOrigins:       envList("CORS_ORIGINS", "*"),
		SiteURL:           envStr("SITE_URL", "http://localhost:3000"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   envStr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		VerifyAttempts:    envInt("PAYSTACK_VERIFY_ATTEMPTS", 5),
		VerifyDelay:       envDuration("PAYSTACK_VERIFY_DELAY", 3*time.Second),
		DefaultCurrency:   envStr("DEFAULT_CURRENCY", "KES"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := envStr(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
