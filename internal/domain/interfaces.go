package domain

import (
	"context"
)

// TokenVerifier resolves a bearer token to an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// FoodAnalysisService handles food photo analysis operations.
type FoodAnalysisService interface {
	Analyze(ctx context.Context, userID string, imageData []byte, mealType string) (*AnalysisResult, error)
	// History returns the user's stored analyses, newest first. An empty
	// slice is returned when persistence is disabled.
	History(ctx context.Context, userID string) ([]StoredAnalysis, error)
}

// ChatService handles conversational nutrition questions.
type ChatService interface {
	Reply(ctx context.Context, userID string, message string, history []ChatTurn, profile ChatContext) (string, error)
}
