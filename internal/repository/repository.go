package repository

import (
	"context"

	"github.com/yukikurage/recipe-catalog/internal/models"
)

// Store gives access to every repository over one connection or transaction.
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Ingredients() IngredientRepository
	Recipes() RecipeRepository

	// Transaction runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// FindByKey finds a category by its lower-cased name
	FindByKey(ctx context.Context, key string) (*models.Category, error)

	// FindOrCreate returns the category stored under key, inserting one named
	// name if none exists. Concurrent callers with the same key get the same row.
	FindOrCreate(ctx context.Context, name, key string) (*models.Category, error)
}

// IngredientRepository defines the interface for ingredient data access
type IngredientRepository interface {
	// FindByKey finds an ingredient by its lower-cased name
	FindByKey(ctx context.Context, key string) (*models.Ingredient, error)

	// FindOrCreate returns the ingredient stored under key, inserting one named
	// name if none exists. Concurrent callers with the same key get the same row.
	FindOrCreate(ctx context.Context, name, key string) (*models.Ingredient, error)
}

// RecipeRepository defines the interface for recipe data access
type RecipeRepository interface {
	// Create inserts a recipe row without touching its associations
	Create(ctx context.Context, recipe *models.Recipe) error

	// AddIngredient inserts one recipe/ingredient association
	AddIngredient(ctx context.Context, link *models.RecipeIngredient) error

	// FindByID finds a recipe by ID with owner, category and ingredients loaded
	FindByID(ctx context.Context, id uint64) (*models.Recipe, error)

	// ExistsForOwner reports whether userID already owns a recipe with titleKey
	ExistsForOwner(ctx context.Context, userID uint64, titleKey string) (bool, error)

	// List retrieves recipes newest first with filtering and optional pagination
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)

	// Delete removes a recipe and its ingredient associations
	Delete(ctx context.Context, id uint64) error
}

// RecipeFilter holds filtering options for listing recipes. Zero values do
// not filter; PageSize 0 returns every matching row.
type RecipeFilter struct {
	UserID      *uint64
	CategoryKey *string
	Search      string
	Page        int
	PageSize    int
}
