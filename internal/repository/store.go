package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository { return NewUserRepository(s.db) }
func (s *GormStore) Categories() CategoryRepository { return NewCategoryRepository(s.db) }
func (s *GormStore) Ingredients() IngredientRepository { return NewIngredientRepository(s.db) }
func (s *GormStore) Recipes() RecipeRepository { return NewRecipeRepository(s.db) }

// Transaction runs fn inside a database transaction. Nested calls use savepoints.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
