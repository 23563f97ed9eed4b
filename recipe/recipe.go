// Package recipe holds the recipe model and the pure functions derived from
// it: serving-size scaling, duration parsing and prep/cook phase grouping.
// Everything here is side-effect free and safe for concurrent callers.
package recipe

import (
	"slices"
	"time"
)

// Recipe is a generated or adapted recipe. Values are treated as immutable;
// Scale returns a new Recipe instead of editing one in place.
type Recipe struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"name" validate:"required"`
	Description  string        `json:"description" validate:"required"`
	PrepTime     string        `json:"prepTime,omitempty"`
	CookTime     string        `json:"cookTime,omitempty"`
	TotalTime    string        `json:"totalTime,omitempty"`
	Servings     int           `json:"servings" validate:"gt=0"`
	Difficulty   string        `json:"difficulty,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Ingredients  []Ingredient  `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []Instruction `json:"instructions" validate:"required,min=1,dive"`
	CookingTools []string      `json:"cookingTools,omitempty"`

	// Scaling provenance.
	AdjustedFor *int   `json:"adjustedFor,omitempty"`
	IsScaled    bool   `json:"isScaled,omitempty"`
	ScaledFrom  string `json:"scaledFrom,omitempty"`

	SavedAt time.Time `json:"savedAt,omitzero"`
	UserID  string    `json:"userId,omitempty"`
}

// Ingredient is a single recipe line. Name is free text and is matched
// loosely against pantry ingredients.
type Ingredient struct {
	Name        string  `json:"name" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit"`
	Preparation *string `json:"preparation,omitempty"`
}

// Instruction is one numbered step. Ingredients and Equipment are the names
// the step explicitly references, when the generator supplied them.
type Instruction struct {
	StepNumber  int      `json:"stepNumber" validate:"gt=0"`
	Instruction string   `json:"instruction" validate:"required"`
	Duration    *int     `json:"duration,omitempty"`
	Tip         *string  `json:"tip,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Equipment   []string `json:"equipment,omitempty"`
}

// SortedInstructions returns a copy of the instructions ordered by StepNumber.
func (r Recipe) SortedInstructions() []Instruction {
	out := slices.Clone(r.Instructions)
	slices.SortStableFunc(out, func(a, b Instruction) int { return a.StepNumber - b.StepNumber })
	return out
}

// StepsAreContiguous reports whether the step numbers run 1..n without gaps
// or repeats once sorted.
func (r Recipe) StepsAreContiguous() bool {
	for i, ins := range r.SortedInstructions() {
		if ins.StepNumber != i+1 {
			return false
		}
	}
	return true
}

// TotalMinutes is the parsed TotalTime, or prep plus cook time when TotalTime
// yields nothing.
func (r Recipe) TotalMinutes() int {
	if total := ParseMinutes(r.TotalTime); total > 0 {
		return total
	}
	return ParseMinutes(r.PrepTime) + ParseMinutes(r.CookTime)
}
