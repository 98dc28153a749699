package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig
	Exchange    ExchangeConfig
	Pipeline    PipelineConfig
	WebSocket   WebSocketConfig
	Environment string
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// ExchangeConfig represents the upstream exchange API configuration
type ExchangeConfig struct {
	BaseURL       string
	Timeout       time.Duration
	TickerTimeout time.Duration
	StatsTimeout  time.Duration
	RateLimit     int
}

// PipelineConfig represents the aggregation pipeline configuration. The
// fields mirrored in Settings can be changed at runtime; the values here are
// the startup defaults.
type PipelineConfig struct {
	CacheTTL           time.Duration
	MaxHistoryLength   int
	FetchFanoutWidth   int
	StatsFanoutWidth   int
	UpdateInterval     time.Duration
	IntervalMinutes    int
	MaxSymbols         int
	MaxStatsSymbols    int
	MaxCoinsPerGroup   int
	MinVolumeThreshold float64
	MinChangeThreshold float64
}

// WebSocketConfig represents WebSocket broadcast configuration
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", "30s"),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", "30s"),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", "30s"),
			CORSOrigins:     getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Exchange: ExchangeConfig{
			BaseURL:       getEnv("EXCHANGE_BASE_URL", "https://api.exchange.coinbase.com"),
			Timeout:       getEnvAsDuration("EXCHANGE_TIMEOUT", "10s"),
			TickerTimeout: getEnvAsDuration("EXCHANGE_TICKER_TIMEOUT", "1500ms"),
			StatsTimeout:  getEnvAsDuration("EXCHANGE_STATS_TIMEOUT", "3s"),
			RateLimit:     getEnvAsInt("EXCHANGE_RATE_LIMIT", 10),
		},
		Pipeline: PipelineConfig{
			CacheTTL:           getEnvAsDuration("CACHE_TTL", "60s"),
			MaxHistoryLength:   getEnvAsInt("MAX_PRICE_HISTORY", 20),
			FetchFanoutWidth:   getEnvAsInt("FETCH_FANOUT_WIDTH", 10),
			StatsFanoutWidth:   getEnvAsInt("STATS_FANOUT_WIDTH", 15),
			UpdateInterval:     getEnvAsDuration("UPDATE_INTERVAL", "60s"),
			IntervalMinutes:    getEnvAsInt("INTERVAL_MINUTES", 3),
			MaxSymbols:         getEnvAsInt("MAX_SYMBOLS", 50),
			MaxStatsSymbols:    getEnvAsInt("MAX_STATS_SYMBOLS", 30),
			MaxCoinsPerGroup:   getEnvAsInt("MAX_COINS_PER_CATEGORY", 15),
			MinVolumeThreshold: getEnvAsFloat("MIN_VOLUME_THRESHOLD", 1000000),
			MinChangeThreshold: getEnvAsFloat("MIN_CHANGE_THRESHOLD", 1.0),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
			WriteTimeout:    getEnvAsDuration("WS_WRITE_TIMEOUT", "10s"),
		},
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Second * 30 // Fallback
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
