package profile

import (
	"fmt"
	"strings"
)

// AllergyWarning flags a taken item that conflicts with a user's allergies.
type AllergyWarning struct {
	Item    string `json:"item"`
	Allergy string `json:"allergy"`
	Warning string `json:"warning"`
}

// allergens maps common fridge items to the allergens they carry.
var allergens = map[string][]string{
	"milk":   {"lactose", "dairy"},
	"cheese": {"lactose", "dairy"},
	"butter": {"lactose", "dairy"},
	"yogurt": {"lactose", "dairy"},
	"bread":  {"gluten", "wheat"},
	"pasta":  {"gluten", "wheat"},
	"nuts":   {"peanuts", "tree nuts"},
	"peanut": {"peanuts"},
	"fish":   {"fish"},
	"salmon": {"fish"},
	"tuna":   {"fish"},
	"shrimp": {"shellfish"},
	"crab":   {"shellfish"},
	"eggs":   {"eggs"},
}

// CheckAllergies returns a warning for every item that matches one of the
// allergies, either by name or through the allergen table.
func CheckAllergies(items []string, allergies []string) []AllergyWarning {
	userAllergies := make([]string, 0, len(allergies))
	for _, a := range allergies {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			userAllergies = append(userAllergies, a)
		}
	}

	warnings := []AllergyWarning{}
	for _, item := range items {
		lower := strings.ToLower(strings.TrimSpace(item))
		if lower == "" {
			continue
		}

		for _, allergy := range userAllergies {
			if strings.Contains(lower, allergy) || strings.Contains(allergy, lower) {
				warnings = append(warnings, AllergyWarning{
					Item:    item,
					Allergy: allergy,
					Warning: fmt.Sprintf("WARNING: %s may contain %s which you're allergic to!", item, allergy),
				})
			}
		}

		for _, allergen := range allergens[lower] {
			for _, allergy := range userAllergies {
				if allergen == allergy {
					warnings = append(warnings, AllergyWarning{
						Item:    item,
						Allergy: allergen,
						Warning: fmt.Sprintf("WARNING: %s contains %s which you're allergic to!", item, allergen),
					})
				}
			}
		}
	}
	return warnings
}
