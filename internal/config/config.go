package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	DB        DBConfig
	Redis     RedisConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type AIConfig struct {
	Provider     string // "gemini" or "openai"
	GeminiAPIKey string
	OpenAIAPIKey string
}

type AuthConfig struct {
	// Base URL of the identity service that verifies bearer tokens.
	URL string
	// Public (anon) key sent alongside token verification calls. Never a
	// service-role key; the gateway only validates tokens, it never mints them.
	AnonKey string
}

type RateLimitConfig struct {
	ChatLimit      int
	ChatWindow     time.Duration
	AnalysisLimit  int
	AnalysisWindow time.Duration
}

type DBConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Enabled bool
	Host    string
	Port    string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "8080"),
			RequestTimeout: time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gemini")),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Auth: AuthConfig{
			URL:     strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
			AnonKey: os.Getenv("AUTH_ANON_KEY"),
		},
		RateLimit: RateLimitConfig{
			ChatLimit:      getEnvIntOrDefault("RATE_LIMIT_CHAT", 30),
			ChatWindow:     time.Duration(getEnvIntOrDefault("RATE_LIMIT_CHAT_WINDOW_SECONDS", 60)) * time.Second,
			AnalysisLimit:  getEnvIntOrDefault("RATE_LIMIT_ANALYSIS", 20),
			AnalysisWindow: time.Duration(getEnvIntOrDefault("RATE_LIMIT_ANALYSIS_WINDOW_SECONDS", 60)) * time.Second,
		},
		DB: DBConfig{
			Enabled:  os.Getenv("DB_HOST") != "",
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "nutritrack_gateway"),
		},
		Redis: RedisConfig{
			Enabled: os.Getenv("REDIS_HOST") != "",
			Host:    os.Getenv("REDIS_HOST"),
			Port:    getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider)
	}

	if c.Auth.URL == "" {
		return fmt.Errorf("AUTH_URL is required")
	}
	if c.Auth.AnonKey == "" {
		return fmt.Errorf("AUTH_ANON_KEY is required")
	}
	return nil
}
