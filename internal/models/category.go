package models

import "time"

// Category names are unique case-insensitively through NameKey.
type Category struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Recipes []Recipe `gorm:"foreignKey:CategoryID" json:"-"`
}
