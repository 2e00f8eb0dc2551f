package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/recipe-catalog/internal/constants"
)

// Error kinds. Every error returned by RecipeService wraps one of them, so
// callers can branch with errors.Is on the kind or on a specific sentinel.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
)

var (
	ErrUserNotFound           = newKindError(ErrInvalidInput, "user not found")
	ErrInvalidTitle           = newKindError(ErrInvalidInput, fmt.Sprintf("title must not be blank and must be shorter than %d characters", constants.MaxTitleLength))
	ErrDuplicateTitle         = newKindError(ErrConflict, "a recipe with this title already exists for this user")
	ErrInvalidCategory        = newKindError(ErrInvalidInput, "category must be one of "+strings.Join(AllowedCategories, ", "))
	ErrInvalidDifficulty      = newKindError(ErrInvalidInput, "difficulty must be one of Easy, Medium, Hard")
	ErrInvalidDuration        = newKindError(ErrInvalidInput, "prep time and cook time must be positive numbers of minutes")
	ErrInvalidInstructions    = newKindError(ErrInvalidInput, fmt.Sprintf("instructions must not be blank and must be shorter than %d characters", constants.MaxInstructionsLength))
	ErrIngredientListMismatch = newKindError(ErrInvalidInput, "ingredient names, quantities and units must be lists of the same length")
	ErrInvalidIngredient      = newKindError(ErrInvalidInput, fmt.Sprintf("ingredient names, quantities and units are limited to %d, %d and %d characters", constants.MaxIngredientNameLength, constants.MaxQuantityLength, constants.MaxUnitLength))
	ErrInvalidPageRequest     = newKindError(ErrInvalidInput, "page must not be negative and size must be positive")
	ErrBlankName              = newKindError(ErrInvalidInput, "name must not be blank")
	ErrRecipeNotFound         = newKindError(ErrNotFound, "recipe not found")
	ErrNotRecipeOwner         = newKindError(ErrUnauthorized, "only the owner can delete this recipe")
)

// kindError is a sentinel with a human-readable message that unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func storageError(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorage, action, err)
}
