package models

import "time"

type Ingredient struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
