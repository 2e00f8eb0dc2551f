package models

import (
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Recipe is owned by exactly one user and filed under exactly one category.
// TitleKey is the lower-cased title; (UserID, TitleKey) is unique.
type Recipe struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	UserID       uint64     `gorm:"not null;uniqueIndex:idx_recipes_user_title_key,priority:1" json:"user_id"`
	CategoryID   uint64     `gorm:"not null" json:"category_id"`
	Title        string     `gorm:"type:varchar(100);not null" json:"title"`
	TitleKey     string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_recipes_user_title_key,priority:2" json:"-"`
	PrepTime     int        `gorm:"not null" json:"prep_time"`
	CookTime     int        `gorm:"not null" json:"cook_time"`
	Difficulty   Difficulty `gorm:"type:varchar(10);not null" json:"difficulty"`
	Instructions string     `gorm:"size:500000;not null" json:"instructions"`
	ImageRef     *string    `gorm:"type:varchar(512)" json:"image_ref"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	User        *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category    *Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}
