package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/recipe-catalog/internal/constants"
	apierrors "github.com/yukikurage/recipe-catalog/internal/errors"
)

// RequireRecipeID parses the :id path parameter into the request context
func RequireRecipeID() gin.HandlerFunc {
	return func(c *gin.Context) {
		recipeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || recipeID == 0 {
			apierrors.BadRequest(c, "Invalid recipe ID")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyRecipeID, recipeID)
		c.Next()
	}
}

// GetRecipeID retrieves the recipe ID set by RequireRecipeID
func GetRecipeID(c *gin.Context) (uint64, bool) {
	recipeID, exists := c.Get(constants.ContextKeyRecipeID)
	if !exists {
		return 0, false
	}
	id, ok := recipeID.(uint64)
	return id, ok
}
