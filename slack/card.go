package slack

import (
	"fmt"
	"strings"

	"pantrychef/quantity"
	"pantrychef/recipe"
)

// FormatRecipeCard renders a recipe and its phases as Slack mrkdwn.
func FormatRecipeCard(r recipe.Recipe, phases recipe.Phases) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "_%s_\n", r.Description)
	}

	meta := []string{fmt.Sprintf("Serves %d", r.Servings)}
	if r.IsScaled && r.ScaledFrom != "" {
		meta[0] += fmt.Sprintf(" (scaled from %s)", r.ScaledFrom)
	}
	if total := r.TotalMinutes(); total > 0 {
		meta = append(meta, fmt.Sprintf("%d min", total))
	}
	if r.Difficulty != "" {
		meta = append(meta, r.Difficulty)
	}
	b.WriteString(strings.Join(meta, " | "))
	b.WriteString("\n")

	for _, p := range phases.All() {
		fmt.Fprintf(&b, "\n*%s*\n", p.Name)
		for _, ing := range p.Ingredients {
			fmt.Fprintf(&b, "• %s\n", ingredientLine(ing))
		}
		if len(p.Tools) > 0 {
			fmt.Fprintf(&b, "Tools: %s\n", strings.Join(p.Tools, ", "))
		}
	}

	if steps := r.SortedInstructions(); len(steps) > 0 {
		b.WriteString("\n*Steps*\n")
		for _, s := range steps {
			fmt.Fprintf(&b, "%d. %s\n", s.StepNumber, s.Instruction)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func ingredientLine(ing recipe.Ingredient) string {
	parts := []string{quantity.Format(ing.Quantity)}
	if ing.Unit != "" {
		parts = append(parts, ing.Unit)
	}
	parts = append(parts, ing.Name)
	line := strings.Join(parts, " ")
	if ing.Preparation != nil && *ing.Preparation != "" {
		line += ", " + *ing.Preparation
	}
	return line
}
