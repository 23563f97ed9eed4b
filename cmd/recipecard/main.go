package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"

	"pantrychef"
	"pantrychef/recipe"
	"pantrychef/recipesearch"
	"pantrychef/slack"
	"pantrychef/storage"
)

const usage = `usage:
  recipecard <recipe.json | search:<id>> [servings]
  recipecard find <ingredient> [ingredient...]`

type searcher interface {
	SearchByIngredients(ctx context.Context, names []string, limit int) ([]recipesearch.RecipeSummary, error)
	GetDetails(ctx context.Context, id int) (recipesearch.RecipeDetails, error)
}

type recipeSaver interface {
	Save(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error)
}

type app struct {
	search   searcher
	book     recipeSaver
	notifier pantrychef.Notifier
	channel  string
	userID   string
	out      io.Writer
}

func main() {
	ctx := context.Background()

	var agentConfig pantrychef.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var searchConfig pantrychef.RecipeSearchConfig
	if err := envdecode.Decode(&searchConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	search, err := recipesearch.NewClient(searchConfig.BaseURL, searchConfig.APIKey, http.DefaultClient)
	if err != nil {
		log.Fatalf("SETUP: Failed to create recipe search client: %s", err)
	}

	a := app{
		search:  search,
		book:    storage.NewRecipeBook(storage.NewFileDocument(agentConfig.ArtifactsRecipesPath)),
		channel: agentConfig.SlackChannel,
		userID:  agentConfig.UserID,
		out:     os.Stdout,
	}
	if agentConfig.SlackWebhookURL != "" {
		a.notifier = slack.NewClient(agentConfig.SlackWebhookURL, http.DefaultClient)
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	if args[0] == "find" {
		return a.find(ctx, args[1:])
	}
	if len(args) > 2 {
		return errors.New(usage)
	}

	r, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}
	if err := recipe.Validate(r); err != nil {
		return err
	}

	if len(args) == 2 {
		servings, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("servings must be a whole number: %q", args[1])
		}
		if r, err = recipe.Scale(r, servings); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.out, slack.FormatRecipeCard(r, recipe.OrganizeIntoPhases(r)))

	if a.notifier != nil {
		if err := a.notifier.PostRecipeCard(ctx, a.channel, r); err != nil {
			slog.Error("Failed to post recipe card to Slack", "error", err)
		}
	}
	return nil
}

// load reads a recipe file, or fetches "search:<id>" from the recipe API
// and saves it to the recipe book.
func (a *app) load(ctx context.Context, src string) (recipe.Recipe, error) {
	if idText, ok := strings.CutPrefix(src, "search:"); ok {
		id, err := strconv.Atoi(idText)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("invalid recipe id %q", idText)
		}
		details, err := a.search.GetDetails(ctx, id)
		if err != nil {
			return recipe.Recipe{}, err
		}
		r := recipesearch.Adapt(details, a.userID)
		saved, err := a.book.Save(ctx, r)
		if err != nil {
			slog.Warn("RECIPE_CARD: Recipe not saved", "recipe", r.Name, "error", err)
			return r, nil
		}
		slog.Info("RECIPE_CARD: Recipe saved", "recipe", saved.Name, "id", saved.ID)
		return saved, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to read recipe: %w", err)
	}
	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to decode recipe %s: %w", src, err)
	}
	return r, nil
}

func (a *app) find(ctx context.Context, names []string) error {
	results, err := a.search.SearchByIngredients(ctx, names, 0)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(a.out, "No recipes found.")
		return nil
	}
	for _, res := range results {
		fmt.Fprintf(a.out, "search:%d\t%s (uses %d, needs %d more)\n",
			res.ID, res.Title, res.UsedIngredientCount, res.MissedIngredientCount)
	}
	return nil
}
