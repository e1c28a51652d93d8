package profile

import (
	"fmt"
	"strings"
	"time"
)

// Profile is the dietary profile the fridge backend and meal prompts work with.
// FoodCuisine keeps the backend's "food_cusine" wire name.
type Profile struct {
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Allergies      []string `json:"allergies"`
	PreferredItems []string `json:"preferred_items"`
	RiskFactors    []string `json:"risk_factors"`
	FoodCuisine    []string `json:"food_cusine"`
}

// Default returns the profile used when a user has not completed onboarding.
func Default() Profile {
	return Profile{
		Name:           "John",
		Age:            30,
		Allergies:      []string{"peanuts", "lactose"},
		PreferredItems: []string{"low-carb", "high-protein", "vegetables"},
		RiskFactors:    []string{"heart disease", "diabetes"},
		FoodCuisine:    []string{"Italian", "Mexican", "Indian"},
	}
}

// OnboardingForm is the questionnaire submitted by the onboarding wizard.
type OnboardingForm struct {
	FullName            string   `json:"fullName" binding:"required"`
	Birthday            string   `json:"birthday" binding:"required"`
	Allergies           []string `json:"allergies"`
	OtherAllergies      string   `json:"otherAllergies"`
	PreferredItems      []string `json:"preferredItems"`
	OtherPreferredItems string   `json:"otherPreferredItems"`
	RiskFactors         []string `json:"riskFactors"`
	OtherRiskFactors    string   `json:"otherRiskFactors"`
	FoodCuisines        []string `json:"foodCuisines"`
	OtherFoodCuisines   string   `json:"otherFoodCuisines"`
}

// Normalize turns the questionnaire into a Profile. Each list is the selected
// options followed by the comma separated "other" entries, blanks dropped.
func (f OnboardingForm) Normalize(now time.Time) (Profile, error) {
	birthday, err := time.Parse("2006-01-02", strings.TrimSpace(f.Birthday))
	if err != nil {
		return Profile{}, fmt.Errorf("invalid birthday %q: %w", f.Birthday, err)
	}

	return Profile{
		Name:           strings.TrimSpace(f.FullName),
		Age:            now.Year() - birthday.Year(),
		Allergies:      mergeOptions(f.Allergies, f.OtherAllergies),
		PreferredItems: mergeOptions(f.PreferredItems, f.OtherPreferredItems),
		RiskFactors:    mergeOptions(f.RiskFactors, f.OtherRiskFactors),
		FoodCuisine:    mergeOptions(f.FoodCuisines, f.OtherFoodCuisines),
	}, nil
}

func mergeOptions(selected []string, other string) []string {
	merged := make([]string, 0, len(selected))
	for _, s := range selected {
		if s = strings.TrimSpace(s); s != "" {
			merged = append(merged, s)
		}
	}
	if other == "" {
		return merged
	}
	for _, s := range strings.Split(other, ",") {
		if s = strings.TrimSpace(s); s != "" {
			merged = append(merged, s)
		}
	}
	return merged
}
