package services

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukikurage/recipe-catalog/internal/models"
	"github.com/yukikurage/recipe-catalog/internal/repository"
)

// Resolver turns display names into persisted categories and ingredients,
// creating rows on first use and never creating two rows for one name.
type Resolver struct {
	store repository.Store
}

// NewResolver creates a new Resolver
func NewResolver(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveCategory returns the category named raw, creating it if needed
func (r *Resolver) ResolveCategory(ctx context.Context, raw string) (*models.Category, error) {
	name := NormalizeCategoryName(raw)
	if name == "" {
		return nil, ErrBlankName
	}

	category, err := r.store.Categories().FindOrCreate(ctx, name, nameKey(name))
	if err != nil {
		return nil, storageError("resolve category", err)
	}
	return category, nil
}

// ResolveIngredient returns the ingredient named raw, creating it if needed
func (r *Resolver) ResolveIngredient(ctx context.Context, raw string) (*models.Ingredient, error) {
	name := NormalizeIngredientName(raw)
	if name == "" {
		return nil, ErrBlankName
	}

	ingredient, err := r.store.Ingredients().FindOrCreate(ctx, name, nameKey(name))
	if err != nil {
		return nil, storageError("resolve ingredient", err)
	}
	return ingredient, nil
}

// withStore returns a Resolver bound to store, typically a transaction
func (r *Resolver) withStore(store repository.Store) *Resolver {
	return &Resolver{store: store}
}

// NormalizeCategoryName trims, collapses internal whitespace and upper-cases the first letter
func NormalizeCategoryName(raw string) string {
	name := collapseWhitespace(raw)
	first, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return ""
	}
	return string(unicode.ToTitle(first)) + name[size:]
}

// NormalizeIngredientName trims surrounding whitespace only
func NormalizeIngredientName(raw string) string {
	return strings.TrimSpace(raw)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nameKey(name string) string {
	return strings.ToLower(name)
}
