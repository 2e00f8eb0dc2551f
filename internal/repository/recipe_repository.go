package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/recipe-catalog/internal/database"
	"github.com/yukikurage/recipe-catalog/internal/models"
	"github.com/yukikurage/recipe-catalog/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes a user term match literally inside LIKE ... ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// GormRecipeRepository is a GORM implementation of RecipeRepository
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &GormRecipeRepository{db: db}
}

// Create inserts a recipe row without touching its associations
func (r *GormRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return err
	}
	return nil
}

// AddIngredient inserts one recipe/ingredient association
func (r *GormRecipeRepository) AddIngredient(ctx context.Context, link *models.RecipeIngredient) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return err
	}
	return nil
}

// FindByID finds a recipe by ID with owner, category and ingredients loaded
func (r *GormRecipeRepository) FindByID(ctx context.Context, id uint64) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ExistsForOwner reports whether userID already owns a recipe with titleKey
func (r *GormRecipeRepository) ExistsForOwner(ctx context.Context, userID uint64, titleKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("user_id = ? AND title_key = ?", userID, titleKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves recipes newest first with filtering and optional pagination
func (r *GormRecipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.UserID != nil {
		query = query.Where("recipes.user_id = ?", *filter.UserID)
	}
	if filter.CategoryKey != nil {
		categorySubQuery := r.db.Model(&models.Category{}).
			Select("1").
			Where("categories.id = recipes.category_id").
			Where("categories.name_key = ?", *filter.CategoryKey)
		query = query.Where("EXISTS (?)", categorySubQuery)
	}
	if filter.Search != "" {
		query = query.Where(r.searchCondition(filter.Search))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("recipes.id DESC")
	if filter.PageSize > 0 {
		page := utils.PageRequest{Page: filter.Page, Size: filter.PageSize}
		if page.PastEnd(total) {
			return []models.Recipe{}, total, nil
		}
		listQuery = listQuery.Scopes(database.Paginate(page))
	}

	recipes := []models.Recipe{}
	if err := withDetails(listQuery).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

// searchCondition matches term case-insensitively against the title, the
// instructions, the category name and any ingredient name. Each source is an
// EXISTS sub-query so a recipe matching on several ingredients appears once.
func (r *GormRecipeRepository) searchCondition(term string) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"

	categoryMatch := r.db.Model(&models.Category{}).
		Select("1").
		Where("categories.id = recipes.category_id").
		Where("categories.name_key LIKE ? ESCAPE '!'", pattern)

	ingredientMatch := r.db.Model(&models.RecipeIngredient{}).
		Select("1").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id = recipes.id").
		Where("ingredients.name_key LIKE ? ESCAPE '!'", pattern)

	return r.db.
		Where("LOWER(recipes.title) LIKE ? ESCAPE '!'", pattern).
		Or("LOWER(recipes.instructions) LIKE ? ESCAPE '!'", pattern).
		Or("EXISTS (?)", categoryMatch).
		Or("EXISTS (?)", ingredientMatch)
}

// Delete removes a recipe and its ingredient associations in a transaction
func (r *GormRecipeRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Recipe{}, id).Error
	})
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Category").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.position ASC")
		}).
		Preload("Ingredients.Ingredient")
}
