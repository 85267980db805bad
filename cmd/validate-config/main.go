package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/config"
)

func main() {
	fmt.Println("Checking gateway configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid.")
	fmt.Printf("  - AI provider: %s\n", cfg.AI.Provider)
	fmt.Printf("  - Gemini API key: %s\n", maskToken(cfg.AI.GeminiAPIKey))
	fmt.Printf("  - OpenAI API key: %s\n", maskToken(cfg.AI.OpenAIAPIKey))
	fmt.Printf("  - Auth URL: %s\n", cfg.Auth.URL)
	fmt.Printf("  - Auth anon key: %s\n", maskToken(cfg.Auth.AnonKey))
	fmt.Printf("  - Chat limit: %d req / %s\n", cfg.RateLimit.ChatLimit, cfg.RateLimit.ChatWindow)
	fmt.Printf("  - Analysis limit: %d req / %s\n", cfg.RateLimit.AnalysisLimit, cfg.RateLimit.AnalysisWindow)
	fmt.Printf("  - Database enabled: %v\n", cfg.DB.Enabled)
	fmt.Printf("  - Redis enabled: %v\n", cfg.Redis.Enabled)
	fmt.Printf("  - Log level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
