package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"pantrychef/recipe"
)

type recipeDocument struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

// RecipeBook keeps the recipes users chose to save in a Document.
type RecipeBook struct {
	doc   Document
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewRecipeBook(doc Document) *RecipeBook {
	return &RecipeBook{doc: doc, now: time.Now, newID: uuid.NewString}
}

// Save validates r, stamps it with an id (when missing) and SavedAt, and
// stores it, replacing any saved recipe with the same id.
func (b *RecipeBook) Save(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error) {
	if err := recipe.Validate(r); err != nil {
		return recipe.Recipe{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if r.ID == "" {
		r.ID = b.newID()
	}
	r.SavedAt = b.now()

	i := slices.IndexFunc(all, func(saved recipe.Recipe) bool { return saved.ID == r.ID })
	if i >= 0 {
		all[i] = r
	} else {
		all = append(all, r)
	}
	if err := b.save(ctx, all); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

// List returns the user's saved recipes, most recently saved first.
func (b *RecipeBook) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]recipe.Recipe, 0, len(all))
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(x, y recipe.Recipe) int { return y.SavedAt.Compare(x.SavedAt) })
	return out, nil
}

func (b *RecipeBook) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(all, func(saved recipe.Recipe) bool { return saved.ID == id })
	if i < 0 {
		return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	return b.save(ctx, slices.Delete(all, i, i+1))
}

func (b *RecipeBook) load(ctx context.Context) ([]recipe.Recipe, error) {
	data, err := b.doc.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var d recipeDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return d.Recipes, nil
}

func (b *RecipeBook) save(ctx context.Context, all []recipe.Recipe) error {
	data, err := json.MarshalIndent(recipeDocument{Recipes: all}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}
	if err := b.doc.Save(ctx, data); err != nil {
		return fmt.Errorf("write recipes: %w", err)
	}
	return nil
}
