package recipesearch

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"pantrychef/quantity"
	"pantrychef/recipe"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Adapt turns recipe details into a recipe owned by userID. Steps from
// every instruction block are numbered 1..n in order, and the ingredients
// and equipment each step references are kept for phase grouping.
func Adapt(d RecipeDetails, userID string) recipe.Recipe {
	r := recipe.Recipe{
		ID:          fmt.Sprintf("search-%d", d.ID),
		Name:        strings.TrimSpace(d.Title),
		Description: summaryText(d),
		PrepTime:    minutes(d.PreparationMinutes),
		CookTime:    minutes(d.CookingMinutes),
		TotalTime:   minutes(d.ReadyInMinutes),
		Servings:    max(d.Servings, 1),
		Difficulty:  difficulty(d.ReadyInMinutes),
		Tags:        tags(d),
		UserID:      userID,
	}

	for _, ing := range d.ExtendedIngredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:     name,
			Quantity: quantity.Sanitize(ing.Amount),
			Unit:     strings.TrimSpace(ing.Unit),
		})
	}

	var equipment []string
	for _, block := range d.AnalyzedInstructions {
		for _, s := range block.Steps {
			text := strings.TrimSpace(s.Step)
			if text == "" {
				continue
			}
			ins := recipe.Instruction{
				StepNumber:  len(r.Instructions) + 1,
				Instruction: text,
				Ingredients: names(s.Ingredients),
				Equipment:   names(s.Equipment),
			}
			if s.Length != nil && s.Length.Number > 0 && strings.HasPrefix(strings.ToLower(s.Length.Unit), "min") {
				n := s.Length.Number
				ins.Duration = &n
			}
			r.Instructions = append(r.Instructions, ins)
			equipment = append(equipment, ins.Equipment...)
		}
	}

	slices.Sort(equipment)
	r.CookingTools = slices.Compact(equipment)
	return r
}

func summaryText(d RecipeDetails) string {
	s := strings.Join(strings.Fields(htmlTag.ReplaceAllString(d.Summary, "")), " ")
	if s == "" {
		return strings.TrimSpace(d.Title)
	}
	// Keep the first sentence; the rest is marketing copy.
	if i := strings.Index(s, ". "); i > 0 {
		return s[:i+1]
	}
	return s
}

func minutes(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", n)
}

func difficulty(ready int) string {
	switch {
	case ready <= 0:
		return ""
	case ready <= 30:
		return "Easy"
	case ready <= 60:
		return "Medium"
	default:
		return "Hard"
	}
}

func tags(d RecipeDetails) []string {
	var out []string
	seen := map[string]bool{}
	for _, group := range [][]string{d.DishTypes, d.Cuisines, d.Diets} {
		for _, t := range group {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func names(items []NamedItem) []string {
	var out []string
	for _, it := range items {
		if n := strings.TrimSpace(it.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
