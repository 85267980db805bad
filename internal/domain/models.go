package domain

import "time"

// Identity is the authenticated caller resolved from a verified bearer
// token. It lives for a single request and is never persisted by the
// gateway.
type Identity struct {
	UserID string
	Email  string
}

// Nutrition holds the nutrient estimate for one analyzed portion.
type Nutrition struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein"`
	CarbsG   float64 `json:"carbs"`
	FatG     float64 `json:"fat"`
	FiberG   float64 `json:"fiber"`
	SodiumMg float64 `json:"sodium"`
}

// Clarification is an optional follow-up question the model may ask when
// the photo is ambiguous (e.g. "is this fried or grilled?").
type Clarification struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// AnalysisResult is the validated outcome of a food photo analysis.
// Confidence is always within [0,1] and nutrition values are non-negative
// after parsing.
type AnalysisResult struct {
	FoodName      string         `json:"food_name"`
	PortionGrams  float64        `json:"portion_size_grams"`
	Nutrition     Nutrition      `json:"nutrition"`
	Confidence    float64        `json:"confidence"`
	Clarification *Clarification `json:"clarification,omitempty"`
}

// StoredAnalysis is one saved analysis as returned from the history
// endpoint. Clarifications are not stored, only the final estimate.
type StoredAnalysis struct {
	AnalysisResult
	MealType  string    `json:"meal_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatTurn is one message of the conversation history supplied by the
// client. The gateway reads it, it never stores it.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat turn roles accepted from the client.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatContext carries the user's nutrition profile so replies can be
// personalized without any server-side session state.
type ChatContext struct {
	Goal          string   `json:"goal,omitempty"`
	Restrictions  []string `json:"dietary_restrictions,omitempty"`
	CalorieTarget float64  `json:"daily_calorie_target,omitempty"`
}
