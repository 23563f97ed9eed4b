package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"pantrychef/recipe"
)

type RecipePhases struct{}

func NewRecipePhases() *RecipePhases { return &RecipePhases{} }

func (t *RecipePhases) Name() string  { return "recipe_phases" }
func (t *RecipePhases) Title() string { return "Organize Recipe Phases" }
func (t *RecipePhases) Description() string {
	return "Splits a recipe's ingredients and tools into a Precook (prep) phase and a Cook (heat) phase."
}

func (t *RecipePhases) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": {Type: "object"},
		},
		Required: []string{"recipe"},
	}
}

func (t *RecipePhases) OutputSchema() *jsonschema.Schema {
	phase := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":        {Type: "string"},
			"ingredients": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
			"tools":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"description": {Type: "string"},
		},
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"phases": {Type: "array", Items: phase},
		},
		Required: []string{"phases"},
	}
}

func (t *RecipePhases) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var r recipe.Recipe
	if err := decodeField(input, "recipe", &r); err != nil {
		return nil, err
	}
	return toMap(map[string]any{"phases": recipe.OrganizeIntoPhases(r).All()})
}
