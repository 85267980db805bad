package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ai"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/auth"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/config"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ratelimit"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/server"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	logger.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence is optional: without DB_HOST the gateway runs fully
	// stateless except for in-memory rate limit counters.
	var db *gorm.DB
	if cfg.DB.Enabled {
		db, err = database.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
	}

	var store ratelimit.Store
	if cfg.Redis.Enabled {
		redisStore, err := ratelimit.NewRedisStore(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("Rate limit counters shared via Redis")
	} else {
		store = ratelimit.NewMemoryStore()
		logger.Info("Rate limit counters are process-local")
	}

	limiter := ratelimit.NewLimiter(store, map[string]ratelimit.Policy{
		ratelimit.EndpointChat:     {MaxRequests: cfg.RateLimit.ChatLimit, Window: cfg.RateLimit.ChatWindow},
		ratelimit.EndpointAnalysis: {MaxRequests: cfg.RateLimit.AnalysisLimit, Window: cfg.RateLimit.AnalysisWindow},
	})

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		logger.Fatalf("Failed to create AI service: %v", err)
	}
	defer aiService.Close()

	verifier := auth.NewVerifier(cfg.Auth.URL, cfg.Auth.AnonKey)
	analysisService := services.NewAnalysisService(aiService, db)
	chatService := services.NewChatService(aiService)
	usageService := services.NewUsageService(db)
	logger.Info("Services initialized successfully")

	srv := server.New(server.Options{
		Port:            cfg.Server.Port,
		RequestTimeout:  cfg.Server.RequestTimeout,
		Logger:          logger.GetLogger(),
		Verifier:        verifier,
		Limiter:         limiter,
		AnalysisService: analysisService,
		ChatService:     chatService,
		UsageService:    usageService,
		Provider:        aiService.Provider(),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Fatalf("Server stopped with error: %v", err)
	}
	logger.Info("Server stopped")
}
