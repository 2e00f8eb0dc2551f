package dto

import (
	"time"

	"github.com/yukikurage/recipe-catalog/internal/models"
	"github.com/yukikurage/recipe-catalog/internal/services"
	"github.com/yukikurage/recipe-catalog/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

// CategoryDTO represents a category in API responses
type CategoryDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// RecipeIngredientDTO represents one ingredient line of a recipe
type RecipeIngredientDTO struct {
	IngredientID uint64 `json:"ingredient_id"`
	Name         string `json:"name"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit"`
}

// RecipeDTO represents a recipe in API responses
type RecipeDTO struct {
	ID           uint64                `json:"id"`
	Title        string                `json:"title"`
	PrepTime     int                   `json:"prep_time"`
	CookTime     int                   `json:"cook_time"`
	Difficulty   models.Difficulty     `json:"difficulty"`
	Instructions string                `json:"instructions"`
	ImageRef     *string               `json:"image_ref"`
	UserID       uint64                `json:"user_id"`
	CategoryID   uint64                `json:"category_id"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Owner        *UserDTO              `json:"owner,omitempty"`
	Category     *CategoryDTO          `json:"category,omitempty"`
	Ingredients  []RecipeIngredientDTO `json:"ingredients,omitempty"`
}

// RecipeListItemDTO represents a recipe in list responses (minimal data)
type RecipeListItemDTO struct {
	ID         uint64            `json:"id"`
	Title      string            `json:"title"`
	PrepTime   int               `json:"prep_time"`
	CookTime   int               `json:"cook_time"`
	Difficulty models.Difficulty `json:"difficulty"`
	ImageRef   *string           `json:"image_ref"`
	UserID     uint64            `json:"user_id"`
	CategoryID uint64            `json:"category_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RecipeListResponse represents an unpaged list of recipes
type RecipeListResponse struct {
	Recipes []RecipeListItemDTO `json:"recipes"`
}

// RecipePageResponse represents a paginated list of recipes
type RecipePageResponse struct {
	Recipes    []RecipeListItemDTO      `json:"recipes"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CreateRecipeResponse is returned after a recipe is created
type CreateRecipeResponse struct {
	ID uint64 `json:"id"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

// ToRecipeDTO converts a Recipe model with its relations to RecipeDTO
func ToRecipeDTO(recipe models.Recipe) RecipeDTO {
	dto := RecipeDTO{
		ID:           recipe.ID,
		Title:        recipe.Title,
		PrepTime:     recipe.PrepTime,
		CookTime:     recipe.CookTime,
		Difficulty:   recipe.Difficulty,
		Instructions: recipe.Instructions,
		ImageRef:     recipe.ImageRef,
		UserID:       recipe.UserID,
		CategoryID:   recipe.CategoryID,
		CreatedAt:    recipe.CreatedAt,
		UpdatedAt:    recipe.UpdatedAt,
	}

	if recipe.User != nil {
		owner := ToUserDTO(*recipe.User)
		// email is private to its owner
		owner.Email = nil
		dto.Owner = &owner
	}
	if recipe.Category != nil {
		dto.Category = &CategoryDTO{ID: recipe.Category.ID, Name: recipe.Category.Name}
	}
	if len(recipe.Ingredients) > 0 {
		dto.Ingredients = make([]RecipeIngredientDTO, len(recipe.Ingredients))
		for i, link := range recipe.Ingredients {
			line := RecipeIngredientDTO{
				IngredientID: link.IngredientID,
				Quantity:     link.Quantity,
				Unit:         link.Unit,
			}
			if link.Ingredient != nil {
				line.Name = link.Ingredient.Name
			}
			dto.Ingredients[i] = line
		}
	}

	return dto
}

// ToRecipeListItemDTO converts a Recipe model to RecipeListItemDTO
func ToRecipeListItemDTO(recipe models.Recipe) RecipeListItemDTO {
	return RecipeListItemDTO{
		ID:         recipe.ID,
		Title:      recipe.Title,
		PrepTime:   recipe.PrepTime,
		CookTime:   recipe.CookTime,
		Difficulty: recipe.Difficulty,
		ImageRef:   recipe.ImageRef,
		UserID:     recipe.UserID,
		CategoryID: recipe.CategoryID,
		CreatedAt:  recipe.CreatedAt,
	}
}

// ToRecipeListResponse converts recipes to RecipeListResponse
func ToRecipeListResponse(recipes []models.Recipe) RecipeListResponse {
	return RecipeListResponse{Recipes: toListItems(recipes)}
}

// ToRecipePageResponse converts a page of recipes to RecipePageResponse
func ToRecipePageResponse(page *services.RecipePage) RecipePageResponse {
	return RecipePageResponse{
		Recipes: toListItems(page.Recipes),
		Pagination: utils.PaginationResponse{
			Page:       page.Page,
			Size:       page.Size,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
}

func toListItems(recipes []models.Recipe) []RecipeListItemDTO {
	items := make([]RecipeListItemDTO, len(recipes))
	for i, recipe := range recipes {
		items[i] = ToRecipeListItemDTO(recipe)
	}
	return items
}
