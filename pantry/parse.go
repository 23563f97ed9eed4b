package pantry

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"pantrychef/quantity"
)

const dateLayout = "2006-01-02"

// wireAction is the loose shape of the JSON object the assistant embeds.
type wireAction struct {
	Action         string  `json:"action"`
	Name           *string `json:"name"`
	NewName        *string `json:"newName"`
	Quantity       any     `json:"quantity"`
	Unit           *string `json:"unit"`
	Category       *string `json:"category"`
	ExpirationDate *string `json:"expirationDate"`
}

// ParseAction extracts a pantry action from free-form assistant text. It
// returns false when there is no JSON object, the object does not decode, the
// action is unknown, or a required field is missing or malformed. Callers
// treat false as "this reply is conversation only".
//
// The object is taken from the first '{' to the first '}' after it, so a
// payload containing nested objects is not recognised.
func ParseAction(text string) (Action, bool) {
	start, end, ok := objectSpan(text)
	if !ok {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start:end])))
	dec.UseNumber()
	var w wireAction
	if err := dec.Decode(&w); err != nil {
		return nil, false
	}

	switch ActionType(strings.ToLower(strings.TrimSpace(w.Action))) {
	case ActionAddIngredient:
		if w.Name == nil || w.Unit == nil || w.Category == nil {
			return nil, false
		}
		qty, ok := quantity.Parse(w.Quantity)
		if !ok {
			return nil, false
		}
		return AddIngredient{
			Name:           *w.Name,
			Quantity:       qty,
			Unit:           *w.Unit,
			Category:       *w.Category,
			ExpirationDate: parseDate(w.ExpirationDate),
		}, true

	case ActionEditIngredient:
		if w.Name == nil {
			return nil, false
		}
		edit := EditIngredient{
			CurrentName:    *w.Name,
			NewName:        w.NewName,
			Unit:           w.Unit,
			Category:       w.Category,
			ExpirationDate: parseDate(w.ExpirationDate),
		}
		if qty, ok := quantity.Parse(w.Quantity); ok {
			edit.Quantity = &qty
		}
		return edit, true

	case ActionDeleteIngredient:
		if w.Name == nil {
			return nil, false
		}
		return DeleteIngredient{Name: *w.Name}, true

	case ActionUpdateQuantity:
		if w.Name == nil {
			return nil, false
		}
		qty, ok := quantity.Parse(w.Quantity)
		if !ok {
			return nil, false
		}
		return UpdateQuantity{Name: *w.Name, NewQuantity: qty}, true
	}

	return nil, false
}

// StripAction removes the embedded action object from text and returns the
// conversational remainder, trimmed. Text without an object is returned
// trimmed.
func StripAction(text string) string {
	start, end, ok := objectSpan(text)
	if !ok {
		return strings.TrimSpace(text)
	}
	before := strings.TrimSpace(text[:start])
	after := strings.TrimSpace(text[end:])
	switch {
	case before == "":
		return after
	case after == "":
		return before
	}
	return before + " " + after
}

// objectSpan returns the byte range from the first '{' through the first
// '}' after it.
func objectSpan(text string) (start, end int, ok bool) {
	start = strings.Index(text, "{")
	if start < 0 {
		return 0, 0, false
	}
	n := strings.Index(text[start:], "}")
	if n < 0 {
		return 0, 0, false
	}
	return start, start + n + 1, true
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}
