package ai

import (
	"fmt"
	"strings"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
)

const analysisPromptBase = `You are a certified nutritionist specializing in food photo analysis.
You will analyze the food in the image and estimate its nutritional content per visible portion.

TASK:
1. Identify the main dish in the image
2. Estimate the portion size in grams
3. Estimate calories, protein, carbs, fat, fiber and sodium based on standard nutritional databases
4. Assess your confidence in this estimation as a number between 0 and 1
5. If the photo is ambiguous, add one clarification question with short answer options

REQUIREMENTS:
- Consider plate/bowl size when estimating the portion
- Include likely hidden ingredients (oil, sugar, sauces)
- If the image contains nutritional information or packaging, prioritize that data
- All nutrition values must be non-negative numbers

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object
- Do not include any markdown formatting or explanatory text before or after the JSON
- The JSON must have these exact fields:
  {
    "food_name": "string",
    "portion_size_grams": 123,
    "nutrition": {
      "calories": 123,
      "protein": 12.3,
      "carbs": 12.3,
      "fat": 12.3,
      "fiber": 1.2,
      "sodium": 123
    },
    "confidence": 0.85,
    "clarification": {"question": "string", "options": ["a", "b"]}
  }
- The "clarification" field is optional; omit it when the photo is clear`

// analysisPrompt builds the vision prompt, embedding the sanitized meal
// type hint when present.
func analysisPrompt(mealType string) string {
	if mealType == "" {
		return analysisPromptBase
	}
	return analysisPromptBase + fmt.Sprintf("\n\nMEAL CONTEXT:\n- The user tagged this photo as %q; use it to resolve ambiguous dishes", mealType)
}

// chatSystemPrompt builds the chat instructions from the user's profile.
// Profile values arrive from the client and are embedded as structured
// bullet points, never as free-form instructions.
func chatSystemPrompt(profile domain.ChatContext) string {
	var sb strings.Builder
	sb.WriteString(`You are a friendly nutrition assistant for a food tracking app.
Answer questions about nutrition, healthy eating and the user's logged meals.
Keep answers concise and practical. Do not give medical diagnoses; suggest
consulting a professional for medical concerns.`)

	if profile.Goal != "" {
		sb.WriteString(fmt.Sprintf("\n- The user's goal: %s", profile.Goal))
	}
	if len(profile.Restrictions) > 0 {
		sb.WriteString(fmt.Sprintf("\n- Dietary restrictions: %s", strings.Join(profile.Restrictions, ", ")))
	}
	if profile.CalorieTarget > 0 {
		sb.WriteString(fmt.Sprintf("\n- Daily calorie target: %.0f kcal", profile.CalorieTarget))
	}
	return sb.String()
}
