package models

// RecipeIngredient links a recipe to an ingredient. The composite primary key
// keeps each (recipe, ingredient) pair unique.
type RecipeIngredient struct {
	RecipeID     uint64 `gorm:"primarykey" json:"recipe_id"`
	IngredientID uint64 `gorm:"primarykey" json:"ingredient_id"`
	Position     int    `gorm:"not null;default:0" json:"position"`
	Quantity     string `gorm:"type:varchar(100)" json:"quantity"`
	Unit         string `gorm:"type:varchar(50)" json:"unit"`

	// Relations
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
