package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"pantrychef/recipe"
)

type RecipeScale struct{}

func NewRecipeScale() *RecipeScale { return &RecipeScale{} }

func (t *RecipeScale) Name() string  { return "recipe_scale" }
func (t *RecipeScale) Title() string { return "Scale Recipe" }
func (t *RecipeScale) Description() string {
	return "Rescales a recipe's ingredient quantities to a new number of servings."
}

func (t *RecipeScale) InputSchema() *jsonschema.Schema {
	minServings := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe":   {Type: "object"},
			"servings": {Type: "integer", Minimum: &minServings},
		},
		Required: []string{"recipe", "servings"},
	}
}

func (t *RecipeScale) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": {Type: "object"},
		},
		Required: []string{"recipe"},
	}
}

func (t *RecipeScale) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var r recipe.Recipe
	if err := decodeField(input, "recipe", &r); err != nil {
		return nil, err
	}
	servings, ok := input["servings"].(float64)
	if !ok || servings != float64(int(servings)) {
		return nil, fmt.Errorf("servings must be a whole number")
	}

	scaled, err := recipe.Scale(r, int(servings))
	if err != nil {
		return nil, err
	}
	return toMap(map[string]any{"recipe": scaled})
}
