package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrychef/pantry"
	"pantrychef/recipe"
	"pantrychef/recipesearch"
	"pantrychef/storage"
)

type fakeSearch struct {
	summaries []recipesearch.RecipeSummary
	details   recipesearch.RecipeDetails
	err       error
}

func (f *fakeSearch) SearchByIngredients(ctx context.Context, names []string, limit int) ([]recipesearch.RecipeSummary, error) {
	return f.summaries, f.err
}

func (f *fakeSearch) GetDetails(ctx context.Context, id int) (recipesearch.RecipeDetails, error) {
	return f.details, f.err
}

type recordingNotifier struct {
	messages []string
	cards    []recipe.Recipe
}

func (n *recordingNotifier) PostMessage(ctx context.Context, channel, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) PostConfirmation(ctx context.Context, channel string, res pantry.Result) error {
	return n.PostMessage(ctx, channel, res.Message)
}

func (n *recordingNotifier) PostRecipeCard(ctx context.Context, channel string, r recipe.Recipe) error {
	n.cards = append(n.cards, r)
	return nil
}

func writeRecipe(t *testing.T, r recipe.Recipe) string {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "recipe.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func soup() recipe.Recipe {
	return recipe.Recipe{
		Name:        "Tomato Soup",
		Description: "Simple soup.",
		Servings:    2,
		Ingredients: []recipe.Ingredient{
			{Name: "Tomatoes", Quantity: 4, Unit: "pieces"},
			{Name: "Salt", Quantity: 1, Unit: "tsp"},
		},
		Instructions: []recipe.Instruction{
			{StepNumber: 1, Instruction: "Chop the tomatoes.", Ingredients: []string{"Tomatoes"}},
			{StepNumber: 2, Instruction: "Simmer with salt.", Ingredients: []string{"Salt"}, Equipment: []string{"saucepan"}},
		},
	}
}

func newTestApp(search *fakeSearch) (*app, *bytes.Buffer, *recordingNotifier, *storage.RecipeBook) {
	out := &bytes.Buffer{}
	notifier := &recordingNotifier{}
	book := storage.NewRecipeBook(storage.NewMemoryDocument(nil))
	return &app{
		search:   search,
		book:     book,
		notifier: notifier,
		channel:  "#pantry",
		userID:   "u1",
		out:      out,
	}, out, notifier, book
}

func TestRun_FromFile(t *testing.T) {
	a, out, notifier, _ := newTestApp(&fakeSearch{})
	path := writeRecipe(t, soup())

	require.NoError(t, a.run(context.Background(), []string{path, "4"}))

	assert.Contains(t, out.String(), "Serves 4 (scaled from 2 servings)")
	assert.Contains(t, out.String(), "8 pieces Tomatoes")
	assert.Contains(t, out.String(), "Tools: saucepan")
	require.Len(t, notifier.cards, 1)
	assert.Equal(t, 4, notifier.cards[0].Servings)
	assert.Equal(t, 8.0, notifier.cards[0].Ingredients[0].Quantity)
}

func TestRun_Errors(t *testing.T) {
	path := writeRecipe(t, soup())
	invalid := soup()
	invalid.Ingredients = nil
	invalidPath := writeRecipe(t, invalid)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "no args", args: nil, errContains: "usage"},
		{name: "too many args", args: []string{path, "2", "3"}, errContains: "usage"},
		{name: "bad servings", args: []string{path, "two"}, errContains: "whole number"},
		{name: "zero servings", args: []string{path, "0"}, errContains: "invalid servings"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.json")}, errContains: "failed to read recipe"},
		{name: "invalid recipe", args: []string{invalidPath}, errContains: "invalid recipe"},
		{name: "bad search id", args: []string{"search:abc"}, errContains: "invalid recipe id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, notifier, _ := newTestApp(&fakeSearch{})
			err := a.run(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Empty(t, notifier.cards)
		})
	}
}

func TestRun_FromSearch(t *testing.T) {
	search := &fakeSearch{details: recipesearch.RecipeDetails{
		ID:                  7,
		Title:               "Scrambled Eggs",
		Servings:            1,
		ReadyInMinutes:      10,
		ExtendedIngredients: []recipesearch.DetailIngredient{{Name: "eggs", Amount: 2}},
		AnalyzedInstructions: []recipesearch.AnalyzedInstruction{{Steps: []recipesearch.Step{
			{Number: 1, Step: "Whisk the eggs.", Ingredients: []recipesearch.NamedItem{{Name: "eggs"}}},
			{Number: 2, Step: "Cook gently in a pan.", Equipment: []recipesearch.NamedItem{{Name: "pan"}}},
		}}},
	}}
	a, out, _, book := newTestApp(search)

	require.NoError(t, a.run(context.Background(), []string{"search:7"}))
	assert.Contains(t, out.String(), "*Scrambled Eggs*")

	saved, err := book.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "search-7", saved[0].ID)
}

func TestRun_Find(t *testing.T) {
	search := &fakeSearch{summaries: []recipesearch.RecipeSummary{
		{ID: 11, Title: "Shakshuka", UsedIngredientCount: 2, MissedIngredientCount: 1},
	}}
	a, out, _, _ := newTestApp(search)

	require.NoError(t, a.run(context.Background(), []string{"find", "eggs", "tomatoes"}))
	assert.Equal(t, "search:11\tShakshuka (uses 2, needs 1 more)\n", out.String())

	a, out, _, _ = newTestApp(&fakeSearch{})
	require.NoError(t, a.run(context.Background(), []string{"find", "eggs"}))
	assert.Equal(t, "No recipes found.\n", out.String())

	a, _, _, _ = newTestApp(&fakeSearch{err: errors.New("quota exceeded")})
	assert.Error(t, a.run(context.Background(), []string{"find", "eggs"}))
}
