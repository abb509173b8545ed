package database

import "circles/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Circle{},
		&models.CircleMembership{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}
