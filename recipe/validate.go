package recipe

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks that a recipe has a name, a description, at least one
// ingredient and instruction, and a positive serving count.
func Validate(r Recipe) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid recipe %q: %w", r.Name, err)
	}
	return nil
}

// IsValid is Validate as a predicate.
func IsValid(r Recipe) bool {
	return Validate(r) == nil
}
