package constants

// Session
const (
	SessionCookieName  = "recipe_session"
	ContextKeyUserID   = "user_id"
	ContextKeyRecipeID = "recipe_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Recipe limits
const (
	MaxTitleLength          = 100
	MaxInstructionsLength   = 500000
	MaxImageBytes           = 10 << 20
	MaxIngredientNameLength = 255
	MaxQuantityLength       = 100
	MaxUnitLength           = 50
)
