package meal

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults used when a section leaves a field empty.
const (
	DefaultDescription = "Healthy meal suggestion based on your preferences"
	DefaultCalories    = "Not specified"
	DefaultInstruction = "Follow your preferred cooking method with the available ingredients."

	FallbackName        = "AI Generated Meal Suggestion"
	FallbackDescription = "Based on the items you took from your fridge"
	FallbackCalories    = "Calories not calculated"
)

var (
	mealMarker        = regexp.MustCompile(`(?i)meal \d+:`)
	instructionMarker = regexp.MustCompile(`^(?:\d+\.\s*|-\s*)`)
	ingredientMarker  = regexp.MustCompile(`^-\s*`)
	numberedLine      = regexp.MustCompile(`^\d+\.`)
)

type field int

const (
	fieldName field = iota
	fieldDescription
	fieldCalories
	fieldIngredients
	fieldInstructions
)

// sectionState accumulates one meal while its lines are folded.
type sectionState struct {
	field        field
	name         string
	description  string
	calories     string
	ingredients  []string
	instructions []string
}

// Parse converts a generated text block into meal suggestions. It never fails:
// unstructured or empty input yields a single fallback suggestion.
func Parse(rawText string, takenItems []string) []MealSuggestion {
	var meals []MealSuggestion
	for i, section := range splitSections(rawText) {
		meals = append(meals, parseSection(i, section, takenItems))
	}

	if len(meals) == 0 {
		meals = append(meals, MealSuggestion{
			Name:         FallbackName,
			Description:  FallbackDescription,
			Calories:     FallbackCalories,
			Ingredients:  copyItems(takenItems),
			Instructions: []string{rawText},
			TakenItems:   copyItems(takenItems),
		})
	}
	return meals
}

// splitSections splits on "MEAL N:" markers and drops blank sections.
func splitSections(rawText string) []string {
	var sections []string
	for _, s := range mealMarker.Split(rawText, -1) {
		if strings.TrimSpace(s) != "" {
			sections = append(sections, s)
		}
	}
	return sections
}

func parseSection(index int, section string, takenItems []string) MealSuggestion {
	st := sectionState{
		field:       fieldName,
		description: DefaultDescription,
		calories:    DefaultCalories,
	}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		st = st.step(index == 0, line)
	}

	m := MealSuggestion{
		Name:         st.name,
		Description:  st.description,
		Calories:     st.calories,
		Ingredients:  st.ingredients,
		Instructions: st.instructions,
		TakenItems:   copyItems(takenItems),
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("Meal %d", index+1)
	}
	if len(m.Ingredients) == 0 {
		m.Ingredients = copyItems(takenItems)
	}
	if len(m.Instructions) == 0 {
		m.Instructions = []string{DefaultInstruction}
	}
	return m
}

// step classifies one trimmed, non-empty line and returns the next state.
func (st sectionState) step(firstSection bool, line string) sectionState {
	lower := strings.ToLower(line)
	label := isLabel(line, lower)

	switch {
	case st.field == fieldName && firstSection && !label:
		if st.name == "" {
			st.name = line
		}
	case hasPrefixFold(line, "description:"):
		st.description = strings.TrimSpace(line[len("description:"):])
		st.field = fieldDescription
	case hasPrefixFold(line, "calories:"):
		st.calories = strings.TrimSpace(line[len("calories:"):])
		st.field = fieldCalories
	case strings.Contains(lower, "ingredients:"):
		st.field = fieldIngredients
	case strings.Contains(lower, "instructions:"):
		st.field = fieldInstructions
	case st.field == fieldIngredients && strings.HasPrefix(line, "-"):
		st.ingredients = append(st.ingredients, ingredientMarker.ReplaceAllString(line, ""))
	case st.field == fieldInstructions && (numberedLine.MatchString(line) || strings.HasPrefix(line, "-")):
		st.instructions = append(st.instructions, instructionMarker.ReplaceAllString(line, ""))
	}
	return st
}

// isLabel reports whether a line opens a labelled field.
func isLabel(line, lower string) bool {
	return hasPrefixFold(line, "description:") ||
		hasPrefixFold(line, "calories:") ||
		strings.Contains(lower, "ingredients:") ||
		strings.Contains(lower, "instructions:")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func copyItems(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
