package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/recipe-catalog/internal/constants"
	apierrors "github.com/yukikurage/recipe-catalog/internal/errors"
)

// RequireAuth resolves the caller's user ID from the session and stores it in
// the request context. Requests without a usable ID get a 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := toUserID(sessions.Default(c).Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(value)
}

// toUserID accepts the integer types a session codec may hand back.
func toUserID(value interface{}) (uint64, bool) {
	var id uint64
	switch v := value.(type) {
	case uint64:
		id = v
	case uint:
		id = uint64(v)
	case int64:
		if v < 0 {
			return 0, false
		}
		id = uint64(v)
	case int:
		if v < 0 {
			return 0, false
		}
		id = uint64(v)
	default:
		return 0, false
	}
	return id, id != 0
}
