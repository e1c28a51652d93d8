package meal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutriflow/internal/profile"
)

// ErrNoGenerator is returned when meal text is needed but no generator is configured.
var ErrNoGenerator = errors.New("no meal generator configured")

// Generator produces a free-text meal suggestion block for the taken items.
type Generator interface {
	GenerateMealText(ctx context.Context, items TakenItems, p profile.Profile) (string, error)
}

const promptTemplate = `
You are a smart health-focused AI meal planner. The following food items were just taken out of the fridge: %[1]s.

The person has DNA data suggesting a higher risk of %[2]s, is allergic to %[3]s, and prefers %[4]s as well as they like %[5]s cuisines.

They are %[6]d years old. Their name is %[7]s.

Please suggest 3 healthy meal ideas using ONLY the ingredients taken out, tailored to these needs and based on the time of day.

Format your response EXACTLY like this:

MEAL 1: [Meal Name]
DESCRIPTION: [One sentence description]
CALORIES: [estimated calories per serving]
INGREDIENTS:
- [ingredient 1]
- [ingredient 2]
- [ingredient 3]
INSTRUCTIONS:
1. [step 1]
2. [step 2]
3. [step 3]

MEAL 2: [Meal Name]
DESCRIPTION: [One sentence description]
CALORIES: [estimated calories per serving]
INGREDIENTS:
- [ingredient 1]
- [ingredient 2]
INSTRUCTIONS:
1. [step 1]
2. [step 2]

MEAL 3: [Meal Name]
DESCRIPTION: [One sentence description]
CALORIES: [estimated calories per serving]
INGREDIENTS:
- [ingredient 1]
- [ingredient 2]
INSTRUCTIONS:
1. [step 1]
2. [step 2]

Make sure to:
- Avoid any allergens (%[3]s)
- Focus on health benefits for %[2]s
- Include estimated calories per serving
- Use only the ingredients that were taken out
- Make recipes suitable for someone who is %[6]d years old
`

// BuildPrompt renders the meal planning prompt for the taken items and profile.
func BuildPrompt(items TakenItems, p profile.Profile) string {
	counted := make([]string, 0, len(items))
	for _, item := range items {
		counted = append(counted, fmt.Sprintf("%d %s", item.Count, item.Name))
	}

	return fmt.Sprintf(promptTemplate,
		strings.Join(counted, ", "),
		listOrNone(p.RiskFactors),
		listOrNone(p.Allergies),
		listOrNone(p.PreferredItems),
		listOrNone(p.FoodCuisine),
		p.Age,
		p.Name,
	)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
