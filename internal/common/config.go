package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Fetch   FetchConfig
	LLM     LLMConfig
	Tracker TrackerConfig
	Batch   BatchConfig
	Cleaner CleanerConfig
	Log     LogConfig
	Server  ServerConfig
}

// FetchConfig holds page fetch configuration
type FetchConfig struct {
	Timeout      time.Duration
	UserAgent    string
	RatePerHost  float64 // requests per second per host; 0 disables limiting
	MaxBodyBytes int64
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxChars    int
}

// TrackerConfig selects and addresses the tabular store.
type TrackerConfig struct {
	Backend         string // xlsx | sqlite | mysql | postgres | notion
	StoreID         string // file path, table name or Notion database id
	Credentials     string // DSN or API token; empty for file backends
	CreateIfMissing bool
}

// BatchConfig holds batch coordinator configuration
type BatchConfig struct {
	MaxConcurrency int
}

// CleanerConfig holds content cleaner configuration
type CleanerConfig struct {
	RulesFile string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // json | text
	File   string // rotated through lumberjack when set
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first; real environment variables win over it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Fetch: FetchConfig{
			Timeout:      getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
			UserAgent:    getEnv("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; jobs-tracker/1.0)"),
			RatePerHost:  getEnvAsFloat64("FETCH_RATE_PER_HOST", 0),
			MaxBodyBytes: int64(getEnvAsInt("FETCH_MAX_BODY_BYTES", 5*1024*1024)),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxChars:    getEnvAsInt("EXTRACT_MAX_CHARS", 8000),
		},
		Tracker: TrackerConfig{
			Backend:         strings.ToLower(getEnv("TRACKER_BACKEND", "xlsx")),
			StoreID:         getEnv("TRACKER_STORE_ID", "job_tracker.xlsx"),
			Credentials:     getEnv("TRACKER_CREDENTIALS", ""),
			CreateIfMissing: getEnvAsBool("TRACKER_CREATE", true),
		},
		Batch: BatchConfig{
			MaxConcurrency: getEnvAsInt("BATCH_MAX_CONCURRENCY", 5),
		},
		Cleaner: CleanerConfig{
			RulesFile: getEnv("CLEANER_RULES_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8082"),
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Tracker credentials are not checked
// here: a missing credential is reported per job by the save stage.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Fetch.Timeout <= 0 {
		return NewAppError(CodeConfig, "FETCH_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.LLM.MaxChars <= 0 {
		return NewAppError(CodeConfig, "EXTRACT_MAX_CHARS must be positive", ErrInvalidInput)
	}
	if c.Tracker.StoreID == "" {
		return NewAppError(CodeConfig, "TRACKER_STORE_ID is required", ErrInvalidInput)
	}
	return nil
}

// Mask hides all but the edges of a secret for startup logs.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
