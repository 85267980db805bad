package ai

import (
	"encoding/json"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
)

// rawAnalysis mirrors the JSON shape the model is instructed to emit.
type rawAnalysis struct {
	FoodName     string  `json:"food_name"`
	PortionGrams float64 `json:"portion_size_grams"`
	Nutrition    struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fat      float64 `json:"fat"`
		Fiber    float64 `json:"fiber"`
		Sodium   float64 `json:"sodium"`
	} `json:"nutrition"`
	Confidence    float64 `json:"confidence"`
	Clarification *struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	} `json:"clarification"`
}

// ParseAnalysis extracts a validated analysis from raw model output. The
// model is instructed to emit bare JSON but may wrap it in explanatory
// prose or code fences, so the first balanced JSON object in the text is
// taken as the candidate. Only structural validity is enforced here;
// semantically implausible values (a 9000-calorie apple) pass through.
func ParseAnalysis(raw string) (*domain.AnalysisResult, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return nil, apperrors.ErrMalformedResponse
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, apperrors.NewMalformedResponseError(err)
	}

	if parsed.FoodName == "" {
		return nil, apperrors.ErrMalformedResponse
	}

	result := &domain.AnalysisResult{
		FoodName:     parsed.FoodName,
		PortionGrams: nonNegative(parsed.PortionGrams),
		Nutrition: domain.Nutrition{
			Calories: nonNegative(parsed.Nutrition.Calories),
			ProteinG: nonNegative(parsed.Nutrition.Protein),
			CarbsG:   nonNegative(parsed.Nutrition.Carbs),
			FatG:     nonNegative(parsed.Nutrition.Fat),
			FiberG:   nonNegative(parsed.Nutrition.Fiber),
			SodiumMg: nonNegative(parsed.Nutrition.Sodium),
		},
		Confidence: clamp01(parsed.Confidence),
	}

	// Clarification only passes through when both parts are present.
	if parsed.Clarification != nil && parsed.Clarification.Question != "" && len(parsed.Clarification.Options) > 0 {
		result.Clarification = &domain.Clarification{
			Question: parsed.Clarification.Question,
			Options:  parsed.Clarification.Options,
		}
	}

	return result, nil
}

// extractJSON returns the first balanced {...} substring of s, honoring
// JSON string literals and escapes, or "" if none exists.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
