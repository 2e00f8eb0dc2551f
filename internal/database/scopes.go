package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/recipe-catalog/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(req utils.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.Size)
	}
}
