package pantry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pantrychef/quantity"
)

// State is where an Executor is in handling an action.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateMutating  State = "mutating"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Outcome classifies how an action ended.
type Outcome string

const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeResolutionFailed Outcome = "resolution_failed"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeStoreFailed      Outcome = "store_failed"
)

// Result is what the user is told about an executed action.
type Result struct {
	Action     ActionType  `json:"action"`
	Outcome    Outcome     `json:"outcome"`
	Message    string      `json:"message"`
	Ingredient *Ingredient `json:"ingredient,omitempty"`
}

// Succeeded reports whether the store accepted the mutation.
func (r Result) Succeeded() bool { return r.Outcome == OutcomeSucceeded }

const storeFailureMessage = "Something went wrong updating your pantry. Please try again."

// Executor applies parsed actions for one user. Only one action may run at a
// time; an overlapping Execute returns ErrBusy. Actions are never retried.
type Executor struct {
	store  Store
	userID string
	now    func() time.Time
	newID  func() string

	mu    sync.Mutex
	busy  bool
	state State
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// WithIDGenerator overrides the id assigned to added ingredients.
func WithIDGenerator(newID func() string) ExecutorOption {
	return func(e *Executor) { e.newID = newID }
}

// NewExecutor creates an executor acting on behalf of userID.
func NewExecutor(store Store, userID string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:  store,
		userID: userID,
		now:    time.Now,
		newID:  uuid.NewString,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the state of the current or most recent action.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Execute runs action to completion. The returned error is only ever
// ErrBusy; every other failure is reported through the Result.
func (e *Executor) Execute(ctx context.Context, action Action) (Result, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return Result{}, ErrBusy
	}
	e.busy = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
	}()

	e.transition(StateIdle, action)

	var res Result
	switch a := action.(type) {
	case AddIngredient:
		res = e.add(ctx, a)
	case EditIngredient:
		res = e.edit(ctx, a)
	case DeleteIngredient:
		res = e.delete(ctx, a)
	case UpdateQuantity:
		res = e.updateQuantity(ctx, a)
	default:
		res = Result{Outcome: OutcomeValidationFailed, Message: "I didn't understand that pantry change."}
	}
	if action != nil {
		res.Action = action.Type()
	}

	if res.Succeeded() {
		e.transition(StateSucceeded, action)
	} else {
		e.transition(StateFailed, action)
	}
	slog.Info("EXECUTOR: Action finished", "action", res.Action, "outcome", res.Outcome)
	return res, nil
}

func (e *Executor) transition(s State, action Action) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	if action != nil {
		slog.Debug("EXECUTOR: State change", "state", s, "action", action.Type(), "target", action.Target())
	}
}

func (e *Executor) add(ctx context.Context, a AddIngredient) Result {
	name := strings.TrimSpace(a.Name)
	unit := strings.TrimSpace(a.Unit)
	if name == "" || unit == "" {
		return validationFailure("I need both a name and a unit to add an ingredient.")
	}
	if !quantity.IsSafe(a.Quantity) || a.Quantity <= 0 {
		return validationFailure(fmt.Sprintf("I couldn't add %s: the quantity needs to be more than zero.", name))
	}

	e.transition(StateMutating, a)
	now := e.now()
	ing := Ingredient{
		ID:             e.newID(),
		Name:           name,
		Quantity:       a.Quantity,
		Unit:           unit,
		Category:       strings.TrimSpace(a.Category),
		ExpirationDate: a.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
		UserID:         e.userID,
	}
	if err := e.store.Add(ctx, ing); err != nil {
		return storeFailure("add", name, err)
	}
	return Result{
		Outcome:    OutcomeSucceeded,
		Message:    fmt.Sprintf("Added %s %s of %s to your pantry.", quantity.Format(ing.Quantity), ing.Unit, ing.Name),
		Ingredient: &ing,
	}
}

func (e *Executor) edit(ctx context.Context, a EditIngredient) Result {
	if a.Quantity != nil && !quantity.IsSafe(*a.Quantity) {
		return validationFailure(fmt.Sprintf("I couldn't update %s: the quantity can't be negative.", a.CurrentName))
	}
	ing, res, ok := e.resolve(ctx, a)
	if !ok {
		return res
	}

	oldName := ing.Name
	if a.NewName != nil && strings.TrimSpace(*a.NewName) != "" {
		ing.Name = strings.TrimSpace(*a.NewName)
	}
	if a.Quantity != nil {
		ing.Quantity = *a.Quantity
	}
	if a.Unit != nil && strings.TrimSpace(*a.Unit) != "" {
		ing.Unit = strings.TrimSpace(*a.Unit)
	}
	if a.Category != nil && strings.TrimSpace(*a.Category) != "" {
		ing.Category = strings.TrimSpace(*a.Category)
	}
	if a.ExpirationDate != nil {
		ing.ExpirationDate = a.ExpirationDate
	}
	ing.UpdatedAt = e.now()

	e.transition(StateMutating, a)
	if err := e.store.Update(ctx, ing); err != nil {
		return storeFailure("edit", oldName, err)
	}
	msg := fmt.Sprintf("Updated %s in your pantry.", ing.Name)
	if ing.Name != oldName {
		msg = fmt.Sprintf("Updated %s (now %s) in your pantry.", oldName, ing.Name)
	}
	return Result{Outcome: OutcomeSucceeded, Message: msg, Ingredient: &ing}
}

func (e *Executor) delete(ctx context.Context, a DeleteIngredient) Result {
	ing, res, ok := e.resolve(ctx, a)
	if !ok {
		return res
	}

	e.transition(StateMutating, a)
	if err := e.store.Trash(ctx, ing.ID); err != nil {
		return storeFailure("delete", ing.Name, err)
	}
	return Result{
		Outcome:    OutcomeSucceeded,
		Message:    fmt.Sprintf("Removed %s from your pantry.", ing.Name),
		Ingredient: &ing,
	}
}

func (e *Executor) updateQuantity(ctx context.Context, a UpdateQuantity) Result {
	if !quantity.IsSafe(a.NewQuantity) {
		return validationFailure(fmt.Sprintf("I couldn't update %s: the quantity can't be negative.", a.Name))
	}
	ing, res, ok := e.resolve(ctx, a)
	if !ok {
		return res
	}

	ing.Quantity = a.NewQuantity
	ing.UpdatedAt = e.now()

	e.transition(StateMutating, a)
	if err := e.store.Update(ctx, ing); err != nil {
		return storeFailure("update quantity", ing.Name, err)
	}
	return Result{
		Outcome:    OutcomeSucceeded,
		Message:    fmt.Sprintf("Updated %s to %s %s.", ing.Name, quantity.Format(ing.Quantity), ing.Unit),
		Ingredient: &ing,
	}
}

// resolve looks the action's target up in the user's current pantry.
func (e *Executor) resolve(ctx context.Context, a Action) (Ingredient, Result, bool) {
	e.transition(StateResolving, a)

	name := strings.TrimSpace(a.Target())
	if name == "" {
		return Ingredient{}, validationFailure("Which ingredient did you mean?"), false
	}

	ingredients, err := e.store.FetchIngredients(ctx, e.userID)
	if err != nil {
		return Ingredient{}, storeFailure("fetch", name, err), false
	}
	ing, ok := FindByName(ingredients, name)
	if !ok {
		slog.Info("EXECUTOR: Ingredient not found", "name", name, "action", a.Type())
		return Ingredient{}, Result{
			Outcome: OutcomeResolutionFailed,
			Message: fmt.Sprintf("I couldn't find %s in your pantry.", name),
		}, false
	}
	return ing, Result{}, true
}

func validationFailure(msg string) Result {
	return Result{Outcome: OutcomeValidationFailed, Message: msg}
}

func storeFailure(op, name string, err error) Result {
	if errors.Is(err, ErrNotFound) {
		slog.Warn("EXECUTOR: Ingredient vanished before write", "op", op, "name", name, "error", err)
		return Result{
			Outcome: OutcomeResolutionFailed,
			Message: fmt.Sprintf("I couldn't find %s in your pantry.", name),
		}
	}
	slog.Error("EXECUTOR: Store operation failed", "op", op, "name", name, "error", err)
	return Result{Outcome: OutcomeStoreFailed, Message: storeFailureMessage}
}
