package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func garlicChicken() Recipe {
	return Recipe{
		Name:        "Garlic Chicken and Rice",
		Description: "Seared chicken with garlic over rice.",
		Servings:    2,
		Ingredients: []Ingredient{
			{Name: "Chicken breast", Quantity: 2, Unit: "pieces"},
			{Name: "Garlic", Quantity: 3, Unit: "cloves", Preparation: ptr("minced")},
			{Name: "Olive oil", Quantity: 2, Unit: "tbsp"},
			{Name: "Salt", Quantity: 1, Unit: "tsp"},
			{Name: "Rice", Quantity: 1, Unit: "cup"},
		},
		Instructions: []Instruction{
			{StepNumber: 1, Instruction: "Dice the chicken and mince the garlic.", Ingredients: []string{"chicken", "garlic"}, Equipment: []string{"Knife", "Cutting board"}},
			{StepNumber: 2, Instruction: "Heat olive oil in a skillet and sear the chicken.", Ingredients: []string{"olive oil", "chicken"}, Equipment: []string{"Skillet"}},
			{StepNumber: 3, Instruction: "Boil the rice in a saucepan.", Ingredients: []string{"rice"}, Equipment: []string{"Saucepan"}},
			{StepNumber: 4, Instruction: "Season with salt and serve."},
		},
		CookingTools: []string{"Knife", "Cutting board", "Skillet", "Saucepan", "Tongs", "Baking sheet"},
	}
}

func ingredientNames(ings []Ingredient) []string {
	out := make([]string, 0, len(ings))
	for _, ing := range ings {
		out = append(out, ing.Name)
	}
	return out
}

func TestClassifyStep(t *testing.T) {
	tests := []struct {
		text string
		want StepKind
	}{
		{text: "Chop the onions finely.", want: StepPrecook},
		{text: "Bake for 20 minutes.", want: StepCook},
		{text: "Sauté the shallots.", want: StepCook},
		{text: "Combine the onions and sauté until soft.", want: StepBoth},
		{text: "Serve immediately.", want: StepNeither},
		{text: "MARINATE overnight", want: StepPrecook},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStep(tt.text))
		})
	}
}

func TestClassifyTool(t *testing.T) {
	assert.Equal(t, PhasePrecook, ClassifyTool("Chef's knife"))
	assert.Equal(t, PhasePrecook, ClassifyTool("Mixing Bowl"))
	assert.Equal(t, PhaseCook, ClassifyTool("Cast iron skillet"))
	assert.Equal(t, PhaseCook, ClassifyTool("Baking sheet"))
	assert.Equal(t, PhasePrecook, ClassifyTool("Tongs"), "unknown tools default to precook")
}

func TestOrganizeIntoPhases(t *testing.T) {
	t.Run("tagged steps drive assignment", func(t *testing.T) {
		phases := OrganizeIntoPhases(garlicChicken())

		assert.Equal(t, PhasePrecook, phases.Precook.Name)
		assert.Equal(t, PhaseCook, phases.Cook.Name)
		assert.Equal(t, []string{"Chicken breast", "Garlic", "Salt"}, ingredientNames(phases.Precook.Ingredients))
		assert.Equal(t, []string{"Olive oil", "Rice"}, ingredientNames(phases.Cook.Ingredients))
		assert.Equal(t, []string{"Cutting board", "Knife", "Tongs"}, phases.Precook.Tools)
		assert.Equal(t, []string{"Baking sheet", "Saucepan", "Skillet"}, phases.Cook.Tools)
		assert.NotEmpty(t, phases.Precook.Description)
		assert.NotEmpty(t, phases.Cook.Description)
	})

	t.Run("step order follows step numbers", func(t *testing.T) {
		r := garlicChicken()
		// Reverse the slice; step 1 still claims the chicken for precook.
		for i, j := 0, len(r.Instructions)-1; i < j; i, j = i+1, j-1 {
			r.Instructions[i], r.Instructions[j] = r.Instructions[j], r.Instructions[i]
		}
		phases := OrganizeIntoPhases(r)
		assert.Contains(t, ingredientNames(phases.Precook.Ingredients), "Chicken breast")
	})

	t.Run("a step matching both keyword sets is treated as precook", func(t *testing.T) {
		r := Recipe{
			Servings:    1,
			Ingredients: []Ingredient{{Name: "Onion", Quantity: 1}, {Name: "Butter", Quantity: 1}},
			Instructions: []Instruction{
				{StepNumber: 1, Instruction: "Combine the onions and sauté until soft.", Ingredients: []string{"onion"}},
				{StepNumber: 2, Instruction: "Melt butter and fry.", Ingredients: []string{"butter"}},
			},
		}
		phases := OrganizeIntoPhases(r)
		assert.Equal(t, []string{"Onion"}, ingredientNames(phases.Precook.Ingredients))
		assert.Equal(t, []string{"Butter"}, ingredientNames(phases.Cook.Ingredients))
	})

	t.Run("equipment on an unclassified step is sorted by tool name", func(t *testing.T) {
		r := Recipe{
			Servings:    1,
			Ingredients: []Ingredient{{Name: "Bread", Quantity: 2}},
			Instructions: []Instruction{
				{StepNumber: 1, Instruction: "Toast the bread.", Equipment: []string{"Oven"}},
				{StepNumber: 2, Instruction: "Serve on a plate.", Equipment: []string{"Plate", "Frying pan"}},
			},
		}
		phases := OrganizeIntoPhases(r)
		assert.Equal(t, []string{"Plate"}, phases.Precook.Tools)
		assert.Equal(t, []string{"Frying pan", "Oven"}, phases.Cook.Tools)
		assert.Equal(t, []string{"Bread"}, ingredientNames(phases.Precook.Ingredients), "unassigned ingredients default to precook")
	})

	t.Run("tools are deduplicated case-insensitively", func(t *testing.T) {
		r := Recipe{
			Servings:    1,
			Ingredients: []Ingredient{{Name: "Egg", Quantity: 2}},
			Instructions: []Instruction{
				{StepNumber: 1, Instruction: "Whisk the egg.", Ingredients: []string{"egg"}, Equipment: []string{"Whisk", "whisk"}},
			},
			CookingTools: []string{"WHISK"},
		}
		phases := OrganizeIntoPhases(r)
		assert.Equal(t, []string{"Whisk"}, phases.Precook.Tools)
		assert.Empty(t, phases.Cook.Tools)
	})

	t.Run("recipes without step tags use the fallback", func(t *testing.T) {
		r := garlicChicken()
		for i := range r.Instructions {
			r.Instructions[i].Ingredients = nil
			r.Instructions[i].Equipment = nil
		}
		assert.Equal(t, FallbackPhases(r), OrganizeIntoPhases(r))
	})
}

func TestFallbackPhases(t *testing.T) {
	t.Run("seasonings and prepared ingredients are precook", func(t *testing.T) {
		r := Recipe{
			Servings: 4,
			Ingredients: []Ingredient{
				{Name: "Salt", Quantity: 1},
				{Name: "Onion", Quantity: 1, Preparation: ptr("diced")},
				{Name: "Beef", Quantity: 500},
				{Name: "Water", Quantity: 2},
			},
			CookingTools: []string{"Knife", "Stockpot", "Ladle"},
		}
		phases := FallbackPhases(r)
		assert.Equal(t, []string{"Salt", "Onion"}, ingredientNames(phases.Precook.Ingredients))
		assert.Equal(t, []string{"Beef", "Water"}, ingredientNames(phases.Cook.Ingredients))
		assert.Equal(t, []string{"Knife", "Ladle"}, phases.Precook.Tools)
		assert.Equal(t, []string{"Stockpot"}, phases.Cook.Tools)
	})

	t.Run("one-sided split falls back to halves", func(t *testing.T) {
		r := Recipe{
			Servings:    2,
			Ingredients: []Ingredient{{Name: "Beef"}, {Name: "Water"}, {Name: "Rice"}},
		}
		phases := FallbackPhases(r)
		assert.Equal(t, []string{"Beef", "Water"}, ingredientNames(phases.Precook.Ingredients))
		assert.Equal(t, []string{"Rice"}, ingredientNames(phases.Cook.Ingredients))
	})

	t.Run("blank preparation note does not count", func(t *testing.T) {
		r := Recipe{Ingredients: []Ingredient{{Name: "Salt"}, {Name: "Beef", Preparation: ptr("  ")}}}
		phases := FallbackPhases(r)
		assert.Equal(t, []string{"Beef"}, ingredientNames(phases.Cook.Ingredients))
	})

	t.Run("empty recipe yields two empty phases", func(t *testing.T) {
		phases := FallbackPhases(Recipe{})
		require.Len(t, phases.All(), 2)
		assert.Empty(t, phases.Precook.Ingredients)
		assert.Empty(t, phases.Cook.Ingredients)
		assert.Empty(t, phases.Precook.Tools)
	})
}

func TestOrganizeIntoPhases_Partition(t *testing.T) {
	withDuplicates := garlicChicken()
	withDuplicates.Ingredients = append(withDuplicates.Ingredients, Ingredient{Name: "Salt", Quantity: 0.5, Unit: "tsp"})

	untagged := sampleRecipe()
	for i := range untagged.Instructions {
		untagged.Instructions[i].Ingredients = nil
		untagged.Instructions[i].Equipment = nil
	}

	recipes := []Recipe{garlicChicken(), sampleRecipe(), withDuplicates, untagged, {}}

	for _, r := range recipes {
		phases := OrganizeIntoPhases(r)
		assert.Len(t, phases.All(), 2)
		assert.Equal(t, PhasePrecook, phases.All()[0].Name)

		all := append(append([]Ingredient{}, phases.Precook.Ingredients...), phases.Cook.Ingredients...)
		assert.Len(t, all, len(r.Ingredients), "recipe %q", r.Name)
		assert.ElementsMatch(t, r.Ingredients, all, "recipe %q", r.Name)
	}
}
