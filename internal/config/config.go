package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the feed client and simulator.
type Config struct {
	Feed      FeedConfig
	Command   CommandConfig
	Simulator SimulatorConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
}

// FeedConfig holds transport channel configuration.
type FeedConfig struct {
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// CommandConfig holds command API client configuration.
type CommandConfig struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

// SimulatorConfig holds simulator HTTP server configuration.
type SimulatorConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:               getEnv("FEED_URL", "ws://localhost:8080/ws/feed"),
			ReconnectAttempts: getIntEnv("FEED_RECONNECT_ATTEMPTS", 3),
			ReconnectDelay:    getDurationEnv("FEED_RECONNECT_DELAY", 2*time.Second),
		},
		Command: CommandConfig{
			BaseURL: getEnv("COMMAND_BASE_URL", "http://localhost:8080"),
			Timeout: getDurationEnv("COMMAND_TIMEOUT", 10*time.Second),
			Token:   getEnv("COMMAND_TOKEN", ""),
		},
		Simulator: SimulatorConfig{
			Port:         getEnv("SIMULATOR_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SIMULATOR_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SIMULATOR_WRITE_TIMEOUT", 10*time.Second),
			JWTSecret:    getEnv("SIMULATOR_JWT_SECRET", "dev-secret"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "booking-feed-simulator"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
