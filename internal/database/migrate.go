// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import "gorm.io/gorm"

// Migrate runs GORM auto-migration for the given models.
func Migrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(models...)
}
