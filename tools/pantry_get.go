package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"pantrychef/pantry"
	"pantrychef/quantity"
)

type PantryGet struct {
	store  pantry.Store
	userID string
	now    func() time.Time
}

// NewPantryGet returns the pantry listing tool bound to userID. The model
// cannot choose whose pantry it reads.
func NewPantryGet(store pantry.Store, userID string) *PantryGet {
	return &PantryGet{store: store, userID: userID, now: time.Now}
}

func (t *PantryGet) Name() string  { return "pantry_get" }
func (t *PantryGet) Title() string { return "Get Pantry (with freshness)" }
func (t *PantryGet) Description() string {
	return "Returns the user's pantry ingredients with quantities, units, categories and days_left until expiration when known."
}

func (t *PantryGet) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}

func (t *PantryGet) OutputSchema() *jsonschema.Schema {
	minQty := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"pantry": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"ingredients": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type: "object",
							Properties: map[string]*jsonschema.Schema{
								"name":      {Type: "string"},
								"quantity":  {Type: "number", Minimum: &minQty},
								"unit":      {Type: "string"},
								"category":  {Type: "string"},
								"days_left": {Type: "integer"},
							},
							Required: []string{"name", "quantity", "unit"},
						},
					},
				},
				Required: []string{"ingredients"},
			},
		},
		Required: []string{"pantry"},
	}
}

func (t *PantryGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	ingredients, err := t.store.FetchIngredients(ctx, t.userID)
	if err != nil {
		return nil, fmt.Errorf("read pantry: %w", err)
	}

	type outIng struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
		Category string  `json:"category,omitempty"`
		DaysLeft *int    `json:"days_left,omitempty"`
	}
	out := struct {
		Pantry struct {
			Ingredients []outIng `json:"ingredients"`
		} `json:"pantry"`
	}{}

	// Initialize ingredients slice to prevent nil when empty
	out.Pantry.Ingredients = make([]outIng, 0)

	today := t.now()
	for _, it := range ingredients {
		if it.IsTrashed {
			continue
		}
		out.Pantry.Ingredients = append(out.Pantry.Ingredients, outIng{
			Name:     it.Name,
			Quantity: quantity.Sanitize(it.Quantity),
			Unit:     it.Unit,
			Category: it.Category,
			DaysLeft: daysLeft(it.ExpirationDate, today),
		})
	}

	return toMap(out)
}

// daysLeft counts whole calendar days from today until the expiration date,
// negative once it has passed.
func daysLeft(expires *time.Time, today time.Time) *int {
	if expires == nil {
		return nil
	}
	y, m, d := expires.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return &days
}
