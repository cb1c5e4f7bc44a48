package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the server configuration, assembled from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Stream   StreamConfig
	OTel     OTelConfig

	AllowedOrigins []string
}

// DatabaseConfig selects and addresses the backing store.
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	URL        string
	SQLitePath string
}

// AuthConfig controls session tokens and the cookie that carries them.
type AuthConfig struct {
	JWTSecret  string
	Lifetime   time.Duration
	CookieName string
	Audience   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// StreamConfig tunes the streaming generation endpoint.
type StreamConfig struct {
	MaxSessionsPerUser int
	AdmissionBackend   string // "memory" or "redis"
	MinDelay           time.Duration
	MaxSpeed           float64
}

type OTelConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads a .env file when present and builds the Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8000"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
			URL:        databaseURL(),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "threadfit.db"),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			Lifetime:   time.Duration(getEnvInt("JWT_LIFETIME_SECONDS", 3600)) * time.Second,
			CookieName: getEnvOrDefault("COOKIE_NAME", "threadfit_cookie"),
			Audience:   getEnvOrDefault("JWT_AUDIENCE", "threadfit:auth"),
		},
		Redis: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Stream: StreamConfig{
			MaxSessionsPerUser: getEnvInt("WS_MAX_SESSIONS_PER_USER", 5),
			AdmissionBackend:   strings.ToLower(getEnvOrDefault("WS_ADMISSION_BACKEND", "memory")),
			MinDelay:           time.Duration(getEnvInt("GENERATION_MIN_DELAY_MS", 10)) * time.Millisecond,
			MaxSpeed:           getEnvFloat("GENERATION_MAX_SPEED", 20),
		},
		OTel: OTelConfig{
			Enabled:      getEnvOrDefault("OTEL_ENABLED", "false") == "true",
			Endpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Stream.AdmissionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported WS_ADMISSION_BACKEND %q", c.Stream.AdmissionBackend)
	}
	if c.Stream.MaxSessionsPerUser < 1 {
		return fmt.Errorf("WS_MAX_SESSIONS_PER_USER must be at least 1")
	}
	if c.Stream.MaxSpeed <= 0 {
		return fmt.Errorf("GENERATION_MAX_SPEED must be positive")
	}
	return nil
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		getEnvOrDefault("DB_PASSWORD", ""),
		getEnvOrDefault("DB_NAME", "threadfit"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
