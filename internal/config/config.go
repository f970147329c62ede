package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	HTTPMaxConns int
	CORSOrigins  []string
	LogLevel     string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret string

	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string
	ChatTimeout   time.Duration
	DietTimeout   time.Duration
	AIMaxAttempts int

	ChatHistoryTTL  time.Duration
	ChatMaxSessions int
}

const insecureJWTSecret = "dev-secret-change-me"

// Load reads .env (if present) and the process environment.
// Unparseable numbers and durations fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:     getString("HTTP_ADDR", ":8080"),
		HTTPMaxConns: getInt("HTTP_MAX_CONNS", 256),
		CORSOrigins:  getList("CORS_ORIGINS", []string{"*"}),
		LogLevel:     getString("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(getString("DB_DRIVER", "postgres")),
		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getString("DB_NAME", "lifeai"),
		DBSSLMode:  getString("DB_SSLMODE", "disable"),
		SQLitePath: getString("SQLITE_PATH", "lifeai.db"),

		JWTSecret: getString("JWT_SECRET", insecureJWTSecret),

		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getString("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: getString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ChatTimeout:   getDuration("CHAT_TIMEOUT", 30*time.Second),
		DietTimeout:   getDuration("DIET_TIMEOUT", 120*time.Second),
		AIMaxAttempts: getInt("AI_MAX_ATTEMPTS", 3),

		ChatHistoryTTL:  getDuration("CHAT_HISTORY_TTL", 24*time.Hour),
		ChatMaxSessions: getInt("CHAT_MAX_SESSIONS", 10000),
	}
}

// InsecureSecret reports whether the JWT secret is still the development default.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == insecureJWTSecret
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return filepath.Clean(c.SQLitePath)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
