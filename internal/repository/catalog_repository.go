package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/recipe-catalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCategoryRepository is a GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByKey finds a category by its lower-cased name
func (r *GormCategoryRepository) FindByKey(ctx context.Context, key string) (*models.Category, error) {
	return findByNameKey[models.Category](ctx, r.db, key)
}

// FindOrCreate returns the category stored under key, creating it if needed
func (r *GormCategoryRepository) FindOrCreate(ctx context.Context, name, key string) (*models.Category, error) {
	return findOrCreateByNameKey(ctx, r.db, key, &models.Category{Name: name, NameKey: key})
}

// GormIngredientRepository is a GORM implementation of IngredientRepository
type GormIngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new IngredientRepository
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &GormIngredientRepository{db: db}
}

// FindByKey finds an ingredient by its lower-cased name
func (r *GormIngredientRepository) FindByKey(ctx context.Context, key string) (*models.Ingredient, error) {
	return findByNameKey[models.Ingredient](ctx, r.db, key)
}

// FindOrCreate returns the ingredient stored under key, creating it if needed
func (r *GormIngredientRepository) FindOrCreate(ctx context.Context, name, key string) (*models.Ingredient, error) {
	return findOrCreateByNameKey(ctx, r.db, key, &models.Ingredient{Name: name, NameKey: key})
}

func findByNameKey[T any](ctx context.Context, db *gorm.DB, key string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where("name_key = ?", key).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// findCommittedByNameKey reads with FOR SHARE. A locking read sees the latest
// committed row even inside a REPEATABLE READ transaction whose snapshot
// predates the winner's commit. SQLite drops the clause.
func findCommittedByNameKey[T any](ctx context.Context, db *gorm.DB, key string) (*T, error) {
	var row T
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Where("name_key = ?", key).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// findOrCreateByNameKey looks the key up, and on a miss inserts row with
// ON CONFLICT DO NOTHING. When the insert loses a race to another writer the
// winner's row is re-read with a locking read, so no caller ever sees a
// second row for one key.
// DO NOTHING keeps a PostgreSQL transaction usable after the conflict.
func findOrCreateByNameKey[T any](ctx context.Context, db *gorm.DB, key string, row *T) (*T, error) {
	existing, err := findByNameKey[T](ctx, db, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name_key"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil && !isUniqueViolation(result.Error) {
		return nil, result.Error
	}
	if result.Error == nil && result.RowsAffected > 0 {
		return row, nil
	}

	return findCommittedByNameKey[T](ctx, db, key)
}
