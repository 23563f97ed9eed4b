package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrychef/recipe"
	"pantrychef/storage"
)

func omelette() recipe.Recipe {
	return recipe.Recipe{
		Name:        "Omelette",
		Description: "A quick French omelette.",
		Servings:    1,
		Tags:        []string{"breakfast", "vegetarian"},
		Ingredients: []recipe.Ingredient{
			{Name: "Eggs", Quantity: 3, Unit: "count"},
			{Name: "Butter", Quantity: 1, Unit: "tbsp"},
			{Name: "Salt", Quantity: 0.25, Unit: "tsp"},
		},
		Instructions: []recipe.Instruction{
			{StepNumber: 1, Instruction: "Whisk the eggs with salt.", Ingredients: []string{"Eggs", "Salt"}, Equipment: []string{"Whisk"}},
			{StepNumber: 2, Instruction: "Melt butter in a pan and cook the eggs.", Ingredients: []string{"Butter"}, Equipment: []string{"Pan"}},
		},
		UserID: "u1",
	}
}

// recipeInput mirrors what a model sends: plain JSON values.
func recipeInput(t *testing.T, r recipe.Recipe) map[string]any {
	t.Helper()
	m, err := toMap(r)
	require.NoError(t, err)
	return m
}

func TestRecipeScale_Run(t *testing.T) {
	tool := NewRecipeScale()

	t.Run("scales quantities", func(t *testing.T) {
		out, err := tool.Run(context.Background(), map[string]any{
			"recipe":   recipeInput(t, omelette()),
			"servings": 2.0,
		})
		require.NoError(t, err)

		got := out["recipe"].(map[string]any)
		assert.Equal(t, 2.0, got["servings"])
		assert.Equal(t, true, got["isScaled"])
		assert.Equal(t, "1 servings", got["scaledFrom"])
		first := got["ingredients"].([]any)[0].(map[string]any)
		assert.Equal(t, 6.0, first["quantity"])
	})

	tests := []struct {
		name  string
		input map[string]any
	}{
		{name: "missing recipe", input: map[string]any{"servings": 2.0}},
		{name: "fractional servings", input: map[string]any{"recipe": map[string]any{"servings": 1.0}, "servings": 2.5}},
		{name: "zero servings", input: map[string]any{"recipe": map[string]any{"servings": 1.0}, "servings": 0.0}},
		{name: "recipe is not an object", input: map[string]any{"recipe": "omelette", "servings": 2.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Run(context.Background(), tt.input)
			assert.Error(t, err)
		})
	}

	t.Run("zero servings is the scale error", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{"recipe": recipeInput(t, omelette()), "servings": 0.0})
		assert.ErrorIs(t, err, recipe.ErrInvalidServings)
	})
}

func TestRecipePhases_Run(t *testing.T) {
	out, err := NewRecipePhases().Run(context.Background(), map[string]any{"recipe": recipeInput(t, omelette())})
	require.NoError(t, err)

	phases := out["phases"].([]any)
	require.Len(t, phases, 2)

	precook := phases[0].(map[string]any)
	assert.Equal(t, recipe.PhasePrecook, precook["name"])
	assert.Equal(t, []any{"Whisk"}, precook["tools"])
	assert.Len(t, precook["ingredients"], 2)

	cook := phases[1].(map[string]any)
	assert.Equal(t, recipe.PhaseCook, cook["name"])
	assert.Equal(t, []any{"Pan"}, cook["tools"])
	assert.Len(t, cook["ingredients"], 1)
}

func TestRecipeGet_Run(t *testing.T) {
	ctx := context.Background()
	book := storage.NewRecipeBook(storage.NewMemoryDocument(nil))

	_, err := book.Save(ctx, omelette())
	require.NoError(t, err)
	stew := omelette()
	stew.Name = "Beef stew"
	stew.Tags = []string{"Dinner"}
	_, err = book.Save(ctx, stew)
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     map[string]any
		wantNames []string
	}{
		{name: "no filter", input: map[string]any{}, wantNames: []string{"Beef stew", "Omelette"}},
		{name: "single tag", input: map[string]any{"tags": []any{"breakfast"}}, wantNames: []string{"Omelette"}},
		{name: "case-insensitive", input: map[string]any{"tags": []any{"DINNER"}}, wantNames: []string{"Beef stew"}},
		{name: "no matches", input: map[string]any{"tags": []any{"dessert"}}, wantNames: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewRecipeGet(book, "u1").Run(ctx, tt.input)
			require.NoError(t, err)

			names := []string{}
			for _, r := range out["recipes"].([]any) {
				names = append(names, r.(map[string]any)["name"].(string))
			}
			assert.ElementsMatch(t, tt.wantNames, names)
		})
	}

	t.Run("book failure", func(t *testing.T) {
		broken := storage.NewRecipeBook(storage.NewMemoryDocumentWithError(errors.New("offline")))
		_, err := NewRecipeGet(broken, "u1").Run(ctx, map[string]any{})
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("without a recipe book", func(t *testing.T) {
		reg := NewRegistry(storage.NewMemoryStore(), nil, "u1")
		var names []string
		for _, tool := range reg.GetTools() {
			names = append(names, tool.Name())
		}
		assert.Equal(t, []string{"pantry_get", "recipe_phases", "recipe_scale"}, names)
	})

	t.Run("with a recipe book", func(t *testing.T) {
		reg := NewRegistry(storage.NewMemoryStore(), storage.NewRecipeBook(storage.NewMemoryDocument(nil)), "u1")
		tool, err := reg.GetTool("recipe_get")
		require.NoError(t, err)
		assert.Equal(t, "Get Saved Recipes", tool.Title())
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := NewRegistry(storage.NewMemoryStore(), nil, "u1").GetTool("oven_preheat")
		assert.ErrorContains(t, err, `"oven_preheat" not found`)
	})
}
