package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

// UsageService meters completed gateway requests. All writes are
// best-effort: metering must never slow down or fail a request.
type UsageService struct {
	db *gorm.DB // nil when persistence is disabled
}

// NewUsageService creates the usage service. db may be nil.
func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// Record stores one request log entry asynchronously.
func (s *UsageService) Record(entry database.RequestLog) {
	if s.db == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			logger.Error("failed to save request log", "error", err, "endpoint", entry.Endpoint)
		}
	}()
}
