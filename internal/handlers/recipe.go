package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/recipe-catalog/internal/constants"
	"github.com/yukikurage/recipe-catalog/internal/dto"
	apierrors "github.com/yukikurage/recipe-catalog/internal/errors"
	"github.com/yukikurage/recipe-catalog/internal/middleware"
	"github.com/yukikurage/recipe-catalog/internal/services"
	"github.com/yukikurage/recipe-catalog/internal/utils"
	"go.uber.org/zap"
)

var errImageTooLarge = fmt.Errorf("image must be at most %d bytes", constants.MaxImageBytes)

// RecipeHandler serves the recipe catalog over HTTP. The caller's identity
// comes from the session and is passed to the catalog explicitly.
type RecipeHandler struct {
	catalog     services.RecipeCatalog
	authService *services.AuthService
	logger      *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(catalog services.RecipeCatalog, authService *services.AuthService, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{
		catalog:     catalog,
		authService: authService,
		logger:      logger,
	}
}

// ListRecipes returns the latest recipes, paged when page or size is given
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	if !utils.HasPaginationParams(c) {
		recipes, err := h.catalog.ListLatest(c.Request.Context())
		if err != nil {
			h.respondRecipeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToRecipeListResponse(recipes))
		return
	}

	req, err := utils.GetPageRequest(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	page, err := h.catalog.ListLatestPage(c.Request.Context(), req)
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecipePageResponse(page))
}

// SearchRecipes returns one page of recipes matching the q parameter
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	req, err := utils.GetPageRequest(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	page, err := h.catalog.Search(c.Request.Context(), c.Query("q"), req)
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecipePageResponse(page))
}

// GetRecipe returns a recipe with its owner, category and ingredients
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := middleware.GetRecipeID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid recipe ID")
		return
	}

	recipe, err := h.catalog.GetRecipe(c.Request.Context(), recipeID)
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecipeDTO(*recipe))
}

// ListCategoryRecipes returns the recipes filed under the :name category
func (h *RecipeHandler) ListCategoryRecipes(c *gin.Context) {
	recipes, err := h.catalog.ListByCategory(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecipeListResponse(recipes))
}

// ListUserRecipes returns the recipes owned by the :id user
func (h *RecipeHandler) ListUserRecipes(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	recipes, err := h.catalog.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRecipeListResponse(recipes))
}

// CreateRecipe creates a recipe owned by the current user from a multipart form
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.Unauthorized(c, "Not authenticated")
			return
		}
		h.respondRecipeError(c, err)
		return
	}

	input := services.CreateRecipeInput{
		Title:         c.PostForm("title"),
		PrepTime:      optionalInt(c.PostForm("prep_time")),
		CookTime:      optionalInt(c.PostForm("cook_time")),
		Instructions:  c.PostForm("instructions"),
		CategoryName:  c.PostForm("category"),
		OwnerUsername: user.Username,
	}
	if difficulty, ok := c.GetPostForm("difficulty"); ok {
		input.Difficulty = &difficulty
	}

	names, hasNames := c.GetPostFormArray("ingredient")
	quantities, hasQuantities := c.GetPostFormArray("quantity")
	units, hasUnits := c.GetPostFormArray("unit")
	if !hasNames && !hasQuantities && !hasUnits {
		names, quantities, units = []string{}, []string{}, []string{}
	}
	input.IngredientNames = names
	input.Quantities = quantities
	input.Units = units

	image, err := readImage(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	input.Image = image

	recipeID, err := h.catalog.CreateRecipe(c.Request.Context(), input)
	if err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateRecipeResponse{ID: recipeID})
}

// DeleteRecipe deletes the recipe if the current user owns it. The response
// is 204 whether or not anything was removed.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	recipeID, ok := middleware.GetRecipeID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid recipe ID")
		return
	}

	if err := h.catalog.DeleteRecipe(c.Request.Context(), recipeID, userID); err != nil {
		h.respondRecipeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) respondRecipeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		if field := invalidField(err); field != "" {
			apierrors.BadRequestWithDetails(c, err.Error(), gin.H{"field": field})
			return
		}
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.Unauthorized(c, err.Error())
	default:
		h.logger.Error("recipe request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		apierrors.StorageFailure(c)
	}
}

// invalidField names the create form field a validation error refers to.
func invalidField(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidTitle):
		return "title"
	case errors.Is(err, services.ErrInvalidCategory):
		return "category"
	case errors.Is(err, services.ErrInvalidDifficulty):
		return "difficulty"
	case errors.Is(err, services.ErrInvalidDuration):
		return "prep_time,cook_time"
	case errors.Is(err, services.ErrInvalidInstructions):
		return "instructions"
	case errors.Is(err, services.ErrIngredientListMismatch), errors.Is(err, services.ErrInvalidIngredient):
		return "ingredient"
	}
	return ""
}

func optionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func readImage(c *gin.Context) (*services.ImageUpload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid image upload: %w", err)
	}
	if header.Size > constants.MaxImageBytes {
		return nil, errImageTooLarge
	}

	data, err := readFileHeader(header)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &services.ImageUpload{Filename: header.Filename, Data: data}, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > constants.MaxImageBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}
