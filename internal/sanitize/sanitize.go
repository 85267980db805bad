// Package sanitize constrains untrusted free-text fields before they are
// embedded into a model prompt. It never rejects a request; a field that
// cannot be made safe is simply dropped.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	// MaxFieldLength bounds short hint fields such as meal type.
	MaxFieldLength = 50
	// MaxMessageLength bounds free chat text.
	MaxMessageLength = 2000
)

// mealTypes is the closed set of meal category values. Membership
// short-circuits to the canonical lowercase value without any stripping.
var mealTypes = map[string]string{
	"breakfast": "breakfast",
	"lunch":     "lunch",
	"dinner":    "dinner",
	"snack":     "snack",
}

// injectionMarkers matches tokens commonly used to escape or override
// prompt instructions. Stripping them is best-effort mitigation, not a
// guarantee; the allow-list above is the primary defense.
var injectionMarkers = regexp.MustCompile("(?i)```|###|---|[<>{}\\[\\]]|\\b(system|assistant|developer)\\s*:|ignore\\s+(all\\s+)?(previous|above)\\s+instructions")

var whitespace = regexp.MustCompile(`\s+`)

// MealType returns the canonical meal category for s, a defanged free-text
// hint if s is not a known category, or "" if nothing safe remains.
func MealType(s string) string {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := mealTypes[trimmed]; ok {
		return canonical
	}
	return Defang(s, MaxFieldLength)
}

// ChatMessage defangs free chat text for prompt embedding.
func ChatMessage(s string) string {
	return Defang(s, MaxMessageLength)
}

// Defang strips injection markers, collapses whitespace and truncates to
// maxLen runes. An empty result means the field should be treated as absent.
func Defang(s string, maxLen int) string {
	s = injectionMarkers.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}
