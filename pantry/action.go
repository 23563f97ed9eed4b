package pantry

import "time"

// ActionType is the literal "action" field the assistant emits.
type ActionType string

const (
	ActionAddIngredient    ActionType = "add_ingredient"
	ActionEditIngredient   ActionType = "edit_ingredient"
	ActionDeleteIngredient ActionType = "delete_ingredient"
	ActionUpdateQuantity   ActionType = "update_quantity"
)

// Action is one of AddIngredient, EditIngredient, DeleteIngredient or
// UpdateQuantity. It lives for a single turn and is never persisted.
type Action interface {
	Type() ActionType
	// Target is the ingredient name the action is about.
	Target() string
}

type AddIngredient struct {
	Name           string
	Quantity       float64
	Unit           string
	Category       string
	ExpirationDate *time.Time
}

// EditIngredient changes the fields that are set and leaves nil ones alone.
type EditIngredient struct {
	CurrentName    string
	NewName        *string
	Quantity       *float64
	Unit           *string
	Category       *string
	ExpirationDate *time.Time
}

type DeleteIngredient struct {
	Name string
}

type UpdateQuantity struct {
	Name        string
	NewQuantity float64
}

func (AddIngredient) Type() ActionType    { return ActionAddIngredient }
func (EditIngredient) Type() ActionType   { return ActionEditIngredient }
func (DeleteIngredient) Type() ActionType { return ActionDeleteIngredient }
func (UpdateQuantity) Type() ActionType   { return ActionUpdateQuantity }

func (a AddIngredient) Target() string    { return a.Name }
func (a EditIngredient) Target() string   { return a.CurrentName }
func (a DeleteIngredient) Target() string { return a.Name }
func (a UpdateQuantity) Target() string   { return a.Name }
