package recipe

import (
	"errors"
	"fmt"
	"slices"

	"pantrychef/quantity"
)

// ErrInvalidServings is returned when a serving count is not positive.
var ErrInvalidServings = errors.New("invalid servings")

// Scale returns a copy of r sized for target servings. Every ingredient
// quantity is multiplied by target/r.Servings; names, units and preparation
// notes are kept. Instructions are copied as-is, so quantities written into
// the step text keep their original values.
//
// When target equals r.Servings, r is returned untouched, provenance included.
func Scale(r Recipe, target int) (Recipe, error) {
	if target <= 0 {
		return r, fmt.Errorf("scale %q to %d: %w", r.Name, target, ErrInvalidServings)
	}
	if r.Servings <= 0 {
		return r, fmt.Errorf("scale %q from %d: %w", r.Name, r.Servings, ErrInvalidServings)
	}
	if target == r.Servings {
		return r, nil
	}

	factor := float64(target) / float64(r.Servings)

	out := r
	out.Tags = slices.Clone(r.Tags)
	out.Instructions = cloneInstructions(r.Instructions)
	out.CookingTools = slices.Clone(r.CookingTools)
	out.Ingredients = make([]Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity = quantity.Sanitize(quantity.Sanitize(ing.Quantity) * factor)
		out.Ingredients[i] = ing
	}

	out.Servings = target
	adjusted := target
	out.AdjustedFor = &adjusted
	out.IsScaled = true
	// Keep the first provenance when rescaling an already scaled recipe.
	if !r.IsScaled || r.ScaledFrom == "" {
		out.ScaledFrom = fmt.Sprintf("%d servings", r.Servings)
	}
	return out, nil
}

func cloneInstructions(in []Instruction) []Instruction {
	if in == nil {
		return nil
	}
	out := make([]Instruction, len(in))
	for i, ins := range in {
		ins.Ingredients = slices.Clone(ins.Ingredients)
		ins.Equipment = slices.Clone(ins.Equipment)
		out[i] = ins
	}
	return out
}
