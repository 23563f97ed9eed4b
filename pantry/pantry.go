// Package pantry turns assistant replies into pantry mutations: it extracts
// an embedded JSON action, resolves the ingredient it names and applies it
// through a Store.
package pantry

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("ingredient not found")
	ErrBusy     = errors.New("a pantry action is already in progress")
)

// Ingredient is a pantry item owned by a user. The store holds the
// authoritative copy; this package reads it and writes updated copies back.
type Ingredient struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	Category       string     `json:"category"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	IsTrashed      bool       `json:"isTrashed"`
	TrashedAt      *time.Time `json:"trashedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	UserID         string     `json:"userId"`
}

// Store is the external pantry store.
type Store interface {
	FetchIngredients(ctx context.Context, userID string) ([]Ingredient, error)
	Add(ctx context.Context, ing Ingredient) error
	Update(ctx context.Context, ing Ingredient) error
	Trash(ctx context.Context, id string) error
}

// FindByName returns the first non-trashed ingredient whose trimmed name
// equals name ignoring case.
func FindByName(ingredients []Ingredient, name string) (Ingredient, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return Ingredient{}, false
	}
	for _, ing := range ingredients {
		if !ing.IsTrashed && strings.ToLower(strings.TrimSpace(ing.Name)) == want {
			return ing, true
		}
	}
	return Ingredient{}, false
}

// MatchForRecipe finds the pantry item a recipe ingredient draws from. An
// exact FindByName match wins; otherwise every word of the recipe name must
// appear as a whole word in the pantry name, so "milk" matches "Whole milk"
// but "salt" never matches "Unsalted Butter".
func MatchForRecipe(ingredients []Ingredient, name string) (Ingredient, bool) {
	if ing, ok := FindByName(ingredients, name); ok {
		return ing, true
	}
	want := nameWords(name)
	if len(want) == 0 {
		return Ingredient{}, false
	}
	for _, ing := range ingredients {
		if ing.IsTrashed {
			continue
		}
		have := nameWords(ing.Name)
		if containsWords(have, want) {
			return ing, true
		}
	}
	return Ingredient{}, false
}

func nameWords(name string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func containsWords(have, want map[string]bool) bool {
	for w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}
