package ai

import (
	"errors"
	"testing"

	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
)

func TestParseAnalysis_WrappedInProse(t *testing.T) {
	raw := "Here you go:\n{\"food_name\":\"apple\",\"portion_size_grams\":150,\"nutrition\":{\"calories\":80,\"protein\":0,\"carbs\":21,\"fat\":0,\"fiber\":4,\"sodium\":1},\"confidence\":0.9}\nEnjoy!"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis returned error: %v", err)
	}
	if result.FoodName != "apple" {
		t.Errorf("FoodName = %q, want %q", result.FoodName, "apple")
	}
	if result.PortionGrams != 150 {
		t.Errorf("PortionGrams = %v, want 150", result.PortionGrams)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}
	if result.Nutrition.Calories != 80 || result.Nutrition.CarbsG != 21 || result.Nutrition.FiberG != 4 {
		t.Errorf("unexpected nutrition: %+v", result.Nutrition)
	}
	if result.Clarification != nil {
		t.Error("expected no clarification")
	}
}

func TestParseAnalysis_CodeFence(t *testing.T) {
	raw := "```json\n{\"food_name\":\"ramen\",\"portion_size_grams\":400,\"nutrition\":{\"calories\":550,\"protein\":20,\"carbs\":70,\"fat\":18,\"fiber\":3,\"sodium\":1800},\"confidence\":0.7}\n```"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis returned error: %v", err)
	}
	if result.FoodName != "ramen" {
		t.Errorf("FoodName = %q, want %q", result.FoodName, "ramen")
	}
}

func TestParseAnalysis_NoJSONObject(t *testing.T) {
	_, err := ParseAnalysis("I could not identify any food in this image.")
	if err == nil {
		t.Fatal("expected error for text without JSON")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeMalformed {
		t.Errorf("expected malformed_response error, got %v", err)
	}
}

func TestParseAnalysis_InvalidJSON(t *testing.T) {
	_, err := ParseAnalysis("{\"food_name\": \"apple\", \"portion_size_grams\": }")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseAnalysis_MissingFoodName(t *testing.T) {
	_, err := ParseAnalysis("{\"portion_size_grams\":150,\"nutrition\":{\"calories\":80},\"confidence\":0.9}")
	if err == nil {
		t.Fatal("expected error when food_name is missing")
	}
}

func TestParseAnalysis_CoercesNegativesAndClampsConfidence(t *testing.T) {
	raw := "{\"food_name\":\"mystery\",\"portion_size_grams\":-10,\"nutrition\":{\"calories\":-5,\"protein\":1,\"carbs\":2,\"fat\":3,\"fiber\":-1,\"sodium\":4},\"confidence\":1.7}"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis returned error: %v", err)
	}
	if result.PortionGrams != 0 {
		t.Errorf("PortionGrams = %v, want 0", result.PortionGrams)
	}
	if result.Nutrition.Calories != 0 || result.Nutrition.FiberG != 0 {
		t.Errorf("negative nutrition not coerced: %+v", result.Nutrition)
	}
	if result.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", result.Confidence)
	}
}

func TestParseAnalysis_ClarificationPassthrough(t *testing.T) {
	raw := "{\"food_name\":\"curry\",\"portion_size_grams\":300,\"nutrition\":{\"calories\":450,\"protein\":15,\"carbs\":40,\"fat\":22,\"fiber\":5,\"sodium\":900},\"confidence\":0.5,\"clarification\":{\"question\":\"Is this chicken or vegetable curry?\",\"options\":[\"chicken\",\"vegetable\"]}}"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis returned error: %v", err)
	}
	if result.Clarification == nil {
		t.Fatal("expected clarification to pass through")
	}
	if result.Clarification.Question == "" || len(result.Clarification.Options) != 2 {
		t.Errorf("unexpected clarification: %+v", result.Clarification)
	}
}

func TestParseAnalysis_PartialClarificationDropped(t *testing.T) {
	raw := "{\"food_name\":\"soup\",\"portion_size_grams\":250,\"nutrition\":{\"calories\":120,\"protein\":4,\"carbs\":15,\"fat\":5,\"fiber\":2,\"sodium\":700},\"confidence\":0.6,\"clarification\":{\"question\":\"What kind of soup?\"}}"

	result, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseAnalysis returned error: %v", err)
	}
	if result.Clarification != nil {
		t.Error("clarification without options must be dropped")
	}
}

func TestExtractJSON_BalancedNestedObject(t *testing.T) {
	got := extractJSON("noise {\"a\": {\"b\": 1}} trailing {\"c\": 2}")
	if got != "{\"a\": {\"b\": 1}}" {
		t.Errorf("extractJSON = %q", got)
	}
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	got := extractJSON("{\"note\": \"use {curly} braces\"}")
	if got != "{\"note\": \"use {curly} braces\"}" {
		t.Errorf("extractJSON = %q", got)
	}
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	if got := extractJSON("{\"never\": \"closed\""); got != "" {
		t.Errorf("extractJSON = %q, want empty", got)
	}
	if got := extractJSON("no braces at all"); got != "" {
		t.Errorf("extractJSON = %q, want empty", got)
	}
}
