package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/config"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database/migrations"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

// RequestLog is one metered gateway request. Only the opaque user ID is
// stored, never the resolved identity or any request payload.
type RequestLog struct {
	gorm.Model
	UserID     string `gorm:"index"`
	Endpoint   string `gorm:"index"`
	Status     int
	DurationMs int64
	Provider   string
	ErrorCode  string
}

// AnalysisRecord is a stored food analysis result, kept so the app can
// show users their analysis history.
type AnalysisRecord struct {
	gorm.Model
	UserID       string `gorm:"index"`
	FoodName     string
	PortionGrams float64
	Calories     float64
	ProteinG     float64
	CarbsG       float64
	FatG         float64
	FiberG       float64
	SodiumMg     float64
	Confidence   float64
	MealType     string
	UsedProvider string
}

// NewPostgresDB connects to PostgreSQL and brings the schema up to date.
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&RequestLog{}, &AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Registered migrations refine the auto-migrated schema, so they run
	// after the tables exist.
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed")
	return db, nil
}
