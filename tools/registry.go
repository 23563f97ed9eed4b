package tools

import (
	"fmt"
	"sort"

	"pantrychef/pantry"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry with the pantry and recipe tools for userID.
// book may be nil, in which case recipe_get is not offered.
func NewRegistry(store pantry.Store, book RecipeLister, userID string) *Registry {
	tools := map[string]Tool{}
	for _, t := range []Tool{
		NewPantryGet(store, userID),
		NewRecipeScale(),
		NewRecipePhases(),
	} {
		tools[t.Name()] = t
	}
	if book != nil {
		tools["recipe_get"] = NewRecipeGet(book, userID)
	}

	registry := Registry(tools)
	return &registry
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
