package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/recipe-catalog/internal/constants"
	"github.com/yukikurage/recipe-catalog/internal/models"
	"github.com/yukikurage/recipe-catalog/internal/repository"
	"github.com/yukikurage/recipe-catalog/internal/storage"
	"github.com/yukikurage/recipe-catalog/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AllowedCategories is the fixed set of categories a recipe can be filed under.
var AllowedCategories = []string{"Dinner", "Lunch", "Breakfast", "Dessert", "Salad"}

var (
	categoryRule   = "required,oneof=" + strings.Join(AllowedCategories, " ")
	difficultyRule = fmt.Sprintf("required,oneof=%s %s %s", models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard)
	durationRule   = "required,gt=0"
	titleRule      = fmt.Sprintf("required,max=%d", constants.MaxTitleLength-1)
)

// RecipeCatalog is the write, read and delete surface of the recipe catalog.
type RecipeCatalog interface {
	CreateRecipe(ctx context.Context, input CreateRecipeInput) (uint64, error)
	GetRecipe(ctx context.Context, id uint64) (*models.Recipe, error)
	ListLatest(ctx context.Context) ([]models.Recipe, error)
	ListLatestPage(ctx context.Context, req utils.PageRequest) (*RecipePage, error)
	ListByCategory(ctx context.Context, name string) ([]models.Recipe, error)
	ListByOwner(ctx context.Context, userID uint64) ([]models.Recipe, error)
	Search(ctx context.Context, query string, req utils.PageRequest) (*RecipePage, error)
	DeleteRecipe(ctx context.Context, recipeID, requesterID uint64) error
}

var _ RecipeCatalog = (*RecipeService)(nil)

// RecipeService handles recipe business logic
type RecipeService struct {
	store    repository.Store
	resolver *Resolver
	blobs    storage.BlobStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRecipeService creates a new RecipeService. blobs may be nil, in which
// case uploaded images are dropped with a warning.
func NewRecipeService(store repository.Store, blobs storage.BlobStore, logger *zap.Logger) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		store:    store,
		resolver: NewResolver(store),
		blobs:    blobs,
		validate: validator.New(),
		logger:   logger,
	}
}

// ImageUpload is an image file sent along with a new recipe
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CreateRecipeInput represents input for creating a recipe. The three
// ingredient lists are parallel; nil means the list was not supplied.
type CreateRecipeInput struct {
	Title           string
	PrepTime        *int
	CookTime        *int
	Difficulty      *string
	Instructions    string
	IngredientNames []string
	Quantities      []string
	Units           []string
	CategoryName    string
	Image           *ImageUpload
	OwnerUsername   string
}

// RecipePage is one page of recipes plus the totals for the whole result
type RecipePage struct {
	Recipes    []models.Recipe
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

type ingredientLine struct {
	name     string
	quantity string
	unit     string
}

// CreateRecipe validates input, then persists the recipe and its ingredient
// associations in one transaction and returns the new recipe ID.
func (s *RecipeService) CreateRecipe(ctx context.Context, input CreateRecipeInput) (uint64, error) {
	owner, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(input.OwnerUsername))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, storageError("find user", err)
	}

	title := collapseWhitespace(input.Title)
	if s.validate.Var(title, titleRule) != nil {
		return 0, ErrInvalidTitle
	}
	titleKey := strings.ToLower(title)

	exists, err := s.store.Recipes().ExistsForOwner(ctx, owner.ID, titleKey)
	if err != nil {
		return 0, storageError("check title", err)
	}
	if exists {
		return 0, ErrDuplicateTitle
	}

	categoryName := canonicalCategory(input.CategoryName)
	if s.validate.Var(categoryName, categoryRule) != nil {
		return 0, ErrInvalidCategory
	}

	if input.Difficulty == nil || s.validate.Var(*input.Difficulty, difficultyRule) != nil {
		return 0, ErrInvalidDifficulty
	}

	if s.validate.Var(input.PrepTime, durationRule) != nil || s.validate.Var(input.CookTime, durationRule) != nil {
		return 0, ErrInvalidDuration
	}

	if strings.TrimSpace(input.Instructions) == "" || utf8.RuneCountInString(input.Instructions) >= constants.MaxInstructionsLength {
		return 0, ErrInvalidInstructions
	}

	lines, err := ingredientLines(input.IngredientNames, input.Quantities, input.Units)
	if err != nil {
		return 0, err
	}

	category, err := s.resolver.ResolveCategory(ctx, categoryName)
	if err != nil {
		return 0, err
	}

	imageRef := s.storeImage(ctx, input.Image)

	recipe := &models.Recipe{
		UserID:       owner.ID,
		CategoryID:   category.ID,
		Title:        title,
		TitleKey:     titleKey,
		PrepTime:     *input.PrepTime,
		CookTime:     *input.CookTime,
		Difficulty:   models.Difficulty(*input.Difficulty),
		Instructions: input.Instructions,
		ImageRef:     imageRef,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Recipes().Create(ctx, recipe); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrDuplicateTitle
			}
			return storageError("create recipe", err)
		}

		resolver := s.resolver.withStore(tx)
		for i, line := range lines {
			ingredient, err := resolver.ResolveIngredient(ctx, line.name)
			if err != nil {
				return err
			}
			link := &models.RecipeIngredient{
				RecipeID:     recipe.ID,
				IngredientID: ingredient.ID,
				Position:     i,
				Quantity:     line.quantity,
				Unit:         line.unit,
			}
			if err := tx.Recipes().AddIngredient(ctx, link); err != nil {
				return storageError("link ingredient", err)
			}
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, imageRef)
		return 0, err
	}

	s.logger.Info("recipe created",
		zap.Uint64("recipe_id", recipe.ID),
		zap.Uint64("user_id", owner.ID),
		zap.Int("ingredients", len(lines)),
	)

	return recipe.ID, nil
}

// canonicalCategory returns the allow-listed spelling of raw when their keys
// match, otherwise the normalized name.
func canonicalCategory(raw string) string {
	name := NormalizeCategoryName(raw)
	key := nameKey(name)
	for _, allowed := range AllowedCategories {
		if nameKey(allowed) == key {
			return allowed
		}
	}
	return name
}

// ingredientLines pairs the parallel lists by position. Blank names are
// skipped, as is any name already seen earlier in the list. Kept lines must
// fit their columns.
func ingredientLines(names, quantities, units []string) ([]ingredientLine, error) {
	if names == nil || quantities == nil || units == nil ||
		len(names) != len(quantities) || len(names) != len(units) {
		return nil, ErrIngredientListMismatch
	}

	lines := make([]ingredientLine, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, raw := range names {
		name := NormalizeIngredientName(raw)
		if name == "" {
			continue
		}
		key := nameKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		line := ingredientLine{
			name:     name,
			quantity: strings.TrimSpace(quantities[i]),
			unit:     strings.TrimSpace(units[i]),
		}
		if utf8.RuneCountInString(line.name) > constants.MaxIngredientNameLength ||
			utf8.RuneCountInString(line.quantity) > constants.MaxQuantityLength ||
			utf8.RuneCountInString(line.unit) > constants.MaxUnitLength {
			return nil, ErrInvalidIngredient
		}
		seen[key] = struct{}{}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *RecipeService) storeImage(ctx context.Context, image *ImageUpload) *string {
	if image == nil || len(image.Data) == 0 {
		return nil
	}
	if s.blobs == nil {
		s.logger.Warn("image dropped: no blob store configured", zap.String("filename", image.Filename))
		return nil
	}

	ref, err := s.blobs.Put(ctx, image.Filename, image.Data)
	if err != nil {
		s.logger.Warn("failed to store recipe image, saving recipe without it",
			zap.String("filename", image.Filename),
			zap.Error(err),
		)
		return nil
	}
	return &ref
}

func (s *RecipeService) discardImage(ctx context.Context, ref *string) {
	if ref == nil || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, *ref); err != nil {
		s.logger.Warn("failed to delete orphaned recipe image", zap.String("ref", *ref), zap.Error(err))
	}
}

// GetRecipe returns a recipe with owner, category and ingredients
func (s *RecipeService) GetRecipe(ctx context.Context, id uint64) (*models.Recipe, error) {
	if id == 0 {
		return nil, ErrRecipeNotFound
	}

	recipe, err := s.store.Recipes().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, storageError("find recipe", err)
	}
	return recipe, nil
}

// ListLatest returns every recipe, newest first
func (s *RecipeService) ListLatest(ctx context.Context) ([]models.Recipe, error) {
	return s.list(ctx, repository.RecipeFilter{})
}

// ListLatestPage returns one page of recipes, newest first
func (s *RecipeService) ListLatestPage(ctx context.Context, req utils.PageRequest) (*RecipePage, error) {
	return s.page(ctx, repository.RecipeFilter{}, req)
}

// ListByCategory returns the recipes filed under the named category, newest first
func (s *RecipeService) ListByCategory(ctx context.Context, name string) ([]models.Recipe, error) {
	name = collapseWhitespace(name)
	if name == "" {
		return []models.Recipe{}, nil
	}
	key := nameKey(name)
	return s.list(ctx, repository.RecipeFilter{CategoryKey: &key})
}

// ListByOwner returns the recipes owned by userID, newest first
func (s *RecipeService) ListByOwner(ctx context.Context, userID uint64) ([]models.Recipe, error) {
	if userID == 0 {
		return []models.Recipe{}, nil
	}
	return s.list(ctx, repository.RecipeFilter{UserID: &userID})
}

// Search returns one page of recipes whose title, instructions, category or
// any ingredient contains query, ignoring case. A blank query lists the latest recipes.
func (s *RecipeService) Search(ctx context.Context, query string, req utils.PageRequest) (*RecipePage, error) {
	return s.page(ctx, repository.RecipeFilter{Search: strings.TrimSpace(query)}, req)
}

func (s *RecipeService) list(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	recipes, _, err := s.store.Recipes().List(ctx, filter)
	if err != nil {
		return nil, storageError("list recipes", err)
	}
	return recipes, nil
}

func (s *RecipeService) page(ctx context.Context, filter repository.RecipeFilter, req utils.PageRequest) (*RecipePage, error) {
	if !req.Valid() {
		return nil, ErrInvalidPageRequest
	}

	filter.Page = req.Page
	filter.PageSize = req.Size
	recipes, total, err := s.store.Recipes().List(ctx, filter)
	if err != nil {
		return nil, storageError("list recipes", err)
	}

	return &RecipePage{
		Recipes:    recipes,
		Page:       req.Page,
		Size:       req.Size,
		Total:      total,
		TotalPages: req.TotalPages(total),
	}, nil
}

// DeleteRecipe removes the recipe if requesterID owns it. A missing recipe or
// a different owner is a no-op, so repeated calls are safe.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, requesterID uint64) error {
	if recipeID == 0 || requesterID == 0 {
		return nil
	}

	recipe, err := s.store.Recipes().FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return storageError("find recipe", err)
	}

	if recipe.UserID != requesterID {
		s.logger.Debug("recipe delete ignored",
			zap.Uint64("recipe_id", recipeID),
			zap.Uint64("requester_id", requesterID),
			zap.Error(ErrNotRecipeOwner),
		)
		return nil
	}

	if err := s.store.Recipes().Delete(ctx, recipeID); err != nil {
		return storageError("delete recipe", err)
	}

	s.logger.Info("recipe deleted", zap.Uint64("recipe_id", recipeID), zap.Uint64("user_id", requesterID))
	return nil
}
