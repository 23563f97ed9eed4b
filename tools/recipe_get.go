package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"pantrychef/recipe"
)

// RecipeLister lists a user's saved recipes.
type RecipeLister interface {
	List(ctx context.Context, userID string) ([]recipe.Recipe, error)
}

type RecipeGet struct {
	book   RecipeLister
	userID string
}

func NewRecipeGet(book RecipeLister, userID string) *RecipeGet {
	return &RecipeGet{book: book, userID: userID}
}

func (t *RecipeGet) Name() string  { return "recipe_get" }
func (t *RecipeGet) Title() string { return "Get Saved Recipes" }
func (t *RecipeGet) Description() string {
	return "Gets the user's saved recipes, optionally filtered by tags (e.g. breakfast, vegetarian)."
}

func (t *RecipeGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"tags": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
	}
}

func (t *RecipeGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
				},
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *RecipeGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	recipes, err := t.book.List(ctx, t.userID)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}

	want := map[string]bool{}
	raw, _ := input["tags"].([]any)
	for _, v := range raw {
		if s, _ := v.(string); strings.TrimSpace(s) != "" {
			want[strings.ToLower(strings.TrimSpace(s))] = true
		}
	}

	out := make([]recipe.Recipe, 0, len(recipes))
	for _, rec := range recipes {
		if len(want) == 0 || hasAnyTag(rec, want) {
			out = append(out, rec)
		}
	}
	return toMap(map[string]any{"recipes": out})
}

func hasAnyTag(r recipe.Recipe, want map[string]bool) bool {
	for _, tag := range r.Tags {
		if want[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}
