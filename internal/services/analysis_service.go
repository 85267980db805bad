package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ai"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

// AnalysisService runs food photo analysis and optionally stores the
// result for the user's history.
type AnalysisService struct {
	aiService *ai.Service
	db        *gorm.DB // nil when persistence is disabled
}

// NewAnalysisService creates the analysis service. db may be nil.
func NewAnalysisService(aiService *ai.Service, db *gorm.DB) *AnalysisService {
	return &AnalysisService{
		aiService: aiService,
		db:        db,
	}
}

// Analyze sends the image to the model provider and returns the validated
// result. mealType must already be sanitized. Persistence failures are
// logged but never fail the request; the analysis itself is the product.
func (s *AnalysisService) Analyze(ctx context.Context, userID string, imageData []byte, mealType string) (*domain.AnalysisResult, error) {
	result, err := s.aiService.AnalyzeFoodImage(ctx, imageData, mealType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze food image: %w", err)
	}

	if s.db != nil {
		record := &database.AnalysisRecord{
			UserID:       userID,
			FoodName:     result.FoodName,
			PortionGrams: result.PortionGrams,
			Calories:     result.Nutrition.Calories,
			ProteinG:     result.Nutrition.ProteinG,
			CarbsG:       result.Nutrition.CarbsG,
			FatG:         result.Nutrition.FatG,
			FiberG:       result.Nutrition.FiberG,
			SodiumMg:     result.Nutrition.SodiumMg,
			Confidence:   result.Confidence,
			MealType:     mealType,
			UsedProvider: s.aiService.Provider(),
		}
		if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
			logger.Error("failed to save analysis record", "error", err, "user_id", userID)
		}
	}

	return result, nil
}

// History returns the user's stored analyses, newest first. Without a
// database there is no history and the result is empty.
func (s *AnalysisService) History(ctx context.Context, userID string) ([]domain.StoredAnalysis, error) {
	if s.db == nil {
		return []domain.StoredAnalysis{}, nil
	}
	var records []database.AnalysisRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get user analyses: %w", err)
	}

	analyses := make([]domain.StoredAnalysis, 0, len(records))
	for _, r := range records {
		analyses = append(analyses, domain.StoredAnalysis{
			AnalysisResult: domain.AnalysisResult{
				FoodName:     r.FoodName,
				PortionGrams: r.PortionGrams,
				Nutrition: domain.Nutrition{
					Calories: r.Calories,
					ProteinG: r.ProteinG,
					CarbsG:   r.CarbsG,
					FatG:     r.FatG,
					FiberG:   r.FiberG,
					SodiumMg: r.SodiumMg,
				},
				Confidence: r.Confidence,
			},
			MealType:  r.MealType,
			CreatedAt: r.CreatedAt,
		})
	}
	return analyses, nil
}
