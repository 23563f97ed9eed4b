package pantry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pantrychef/quantity"
	"pantrychef/recipe"
)

// ApplyConsumption returns ing with used subtracted, floored at zero. An
// ingredient that reaches exactly zero is marked trashed.
func ApplyConsumption(ing Ingredient, used float64, at time.Time) Ingredient {
	ing.Quantity = quantity.Sanitize(quantity.Sanitize(ing.Quantity) - quantity.Sanitize(used))
	ing.UpdatedAt = at
	if ing.Quantity == 0 {
		ing.IsTrashed = true
		trashedAt := at
		ing.TrashedAt = &trashedAt
	}
	return ing
}

// Consumption reports what ConsumeRecipe did with each recipe ingredient.
type Consumption struct {
	Used    []Ingredient // pantry items after the update
	Missing []string     // recipe ingredients with no pantry match
	Skipped []string     // matched but in a different unit
}

// ConsumeRecipe subtracts a cooked recipe's ingredient quantities from the
// user's pantry. Units are compared case-insensitively and never converted;
// a unit mismatch leaves the pantry item alone. The first store error stops
// the run.
func ConsumeRecipe(ctx context.Context, store Store, userID string, r recipe.Recipe, at time.Time) (Consumption, error) {
	var out Consumption

	ingredients, err := store.FetchIngredients(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("fetch pantry: %w", err)
	}

	for _, need := range r.Ingredients {
		have, ok := MatchForRecipe(ingredients, need.Name)
		if !ok {
			out.Missing = append(out.Missing, need.Name)
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(have.Unit), strings.TrimSpace(need.Unit)) {
			out.Skipped = append(out.Skipped, need.Name)
			continue
		}

		updated := ApplyConsumption(have, need.Quantity, at)
		if err := store.Update(ctx, updated); err != nil {
			return out, fmt.Errorf("update %s: %w", have.Name, err)
		}
		out.Used = append(out.Used, updated)

		// Later lines naming the same item see the reduced quantity.
		for i := range ingredients {
			if ingredients[i].ID == updated.ID {
				ingredients[i] = updated
			}
		}
	}

	slog.Info("PANTRY: Recipe consumed", "recipe", r.Name, "used", len(out.Used), "missing", len(out.Missing), "skipped", len(out.Skipped))
	return out, nil
}
