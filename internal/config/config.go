package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNoJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Port           string
	Environment    string
	StoreDriver    string
	MongoURI       string
	MongoDatabase  string
	DatabaseURL    string
	JWTSecret      string
	JWTTTL         time.Duration
	AllowedOrigins []string
	LoginRateRPS   float64
	LoginRateBurst int
	TextbeltAPIKey string
	TextbeltURL    string
	SentryDSN      string
	LogLevel       string
	SeedDemo       bool
	SeedDemoPass   string
	OwnerEmail     string
	OwnerPassword  string
	OwnerName      string
}

func NewConfig() *Config {
	allowedOrigins := []string{"http://localhost:5173"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = allowedOrigins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}

	return &Config{
		Port:           getEnvOrDefault("API_PORT", "8080"),
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		StoreDriver:    getEnvOrDefault("STORE_DRIVER", "mongo"),
		MongoURI:       getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "clinic"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         getDuration("JWT_TTL", 24*time.Hour),
		AllowedOrigins: allowedOrigins,
		LoginRateRPS:   getFloat("LOGIN_RATE_RPS", 1),
		LoginRateBurst: getInt("LOGIN_RATE_BURST", 5),
		TextbeltAPIKey: os.Getenv("TEXTBELT_API_KEY"),
		TextbeltURL:    getEnvOrDefault("TEXTBELT_URL", "https://textbelt.com/text"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		SeedDemo:       getBool("SEED_DEMO", false),
		SeedDemoPass:   os.Getenv("SEED_DEMO_PASSWORD"),
		OwnerEmail:     os.Getenv("OWNER_EMAIL"),
		OwnerPassword:  os.Getenv("OWNER_PASSWORD"),
		OwnerName:      getEnvOrDefault("OWNER_NAME", "Clinic Owner"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrNoJWTSecret
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return errors.New("unknown STORE_DRIVER " + strconv.Quote(c.StoreDriver))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return def
}

func getBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}
