package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriflow/internal/platform/database"
)

func TestNormalize(t *testing.T) {
	form := OnboardingForm{
		FullName:            " Jane Doe ",
		Birthday:            "1990-05-17",
		Allergies:           []string{"peanuts", ""},
		OtherAllergies:      "shellfish, , sesame ",
		PreferredItems:      []string{"low-carb"},
		RiskFactors:         nil,
		OtherRiskFactors:    "diabetes",
		FoodCuisines:        []string{"Italian", "Indian"},
		OtherFoodCuisines:   "",
		OtherPreferredItems: "vegetables,high-protein",
	}

	p, err := form.Normalize(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, 35, p.Age)
	assert.Equal(t, []string{"peanuts", "shellfish", "sesame"}, p.Allergies)
	assert.Equal(t, []string{"low-carb", "vegetables", "high-protein"}, p.PreferredItems)
	assert.Equal(t, []string{"diabetes"}, p.RiskFactors)
	assert.Equal(t, []string{"Italian", "Indian"}, p.FoodCuisine)
}

func TestNormalize_BadBirthday(t *testing.T) {
	_, err := OnboardingForm{FullName: "Jane", Birthday: "17/05/1990"}.Normalize(time.Now())
	assert.Error(t, err)
}

func TestCheckAllergies(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		allergies []string
		want      []AllergyWarning
	}{
		{
			name:      "direct match",
			items:     []string{"Peanut butter"},
			allergies: []string{"peanut"},
			want: []AllergyWarning{
				{Item: "Peanut butter", Allergy: "peanut", Warning: "WARNING: Peanut butter may contain peanut which you're allergic to!"},
			},
		},
		{
			name:      "mapped allergen",
			items:     []string{"cheese", "tomato"},
			allergies: []string{"Lactose"},
			want: []AllergyWarning{
				{Item: "cheese", Allergy: "lactose", Warning: "WARNING: cheese contains lactose which you're allergic to!"},
			},
		},
		{
			name:      "direct and mapped",
			items:     []string{"eggs"},
			allergies: []string{"eggs"},
			want: []AllergyWarning{
				{Item: "eggs", Allergy: "eggs", Warning: "WARNING: eggs may contain eggs which you're allergic to!"},
				{Item: "eggs", Allergy: "eggs", Warning: "WARNING: eggs contains eggs which you're allergic to!"},
			},
		},
		{
			name:      "no allergies",
			items:     []string{"milk", "bread"},
			allergies: nil,
			want:      []AllergyWarning{},
		},
		{
			name:      "blank item ignored",
			items:     []string{" "},
			allergies: []string{"gluten"},
			want:      []AllergyWarning{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAllergies(tt.items, tt.allergies))
		})
	}
}

func TestStores(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	sqlStore, err := NewSQLStore(db)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    sqlStore,
	}
	ctx := context.Background()

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(ctx, "user-1")
			require.NoError(t, err)
			assert.Nil(t, got)

			p := Default()
			require.NoError(t, store.Put(ctx, "user-1", p))

			got, err = store.Get(ctx, "user-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, p, *got)

			p.Age = 41
			p.Allergies = []string{"fish"}
			require.NoError(t, store.Put(ctx, "user-1", p))

			got, err = store.Get(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, 41, got.Age)
			assert.Equal(t, []string{"fish"}, got.Allergies)
		})
	}
}
