// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/postpin/backend/internal/models"
)

// defaultCostRules are the points prices seeded on first boot.
var defaultCostRules = []models.PointsCostRule{
	{Action: "generate_image", Size: "512x512", Feature: "base", CostPoints: 10, Enabled: true},
	{Action: "generate_image", Size: "512x512", Feature: "hd", CostPoints: 20, Enabled: true},
	{Action: "generate_image", Size: "1024x1024", Feature: "base", CostPoints: 20, Enabled: true},
	{Action: "generate_image", Size: "1024x1024", Feature: "hd", CostPoints: 40, Enabled: true},
	{Action: "remove_bg", Size: "any", Feature: "base", CostPoints: 5, Enabled: true},
}

// defaultRechargePlans are the points bundles seeded on first boot.
var defaultRechargePlans = []models.RechargePlan{
	{Name: "starter", PriceCNY: 5.0, Points: 100, Enabled: true},
	{Name: "value", PriceCNY: 12.0, Points: 300, Enabled: true},
	{Name: "pro", PriceCNY: 45.0, Points: 1200, Enabled: true},
}

// Seed inserts the default cost rules and recharge plans. It is idempotent:
// rules are keyed by their (action, size, feature) triple, plans by name.
func Seed(db *gorm.DB) error {
	for _, rule := range defaultCostRules {
		var existing models.PointsCostRule
		err := db.Where("action = ? AND size = ? AND feature = ?", rule.Action, rule.Size, rule.Feature).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&rule).Error; err != nil {
			return err
		}
	}

	for _, plan := range defaultRechargePlans {
		var existing models.RechargePlan
		err := db.Where("name = ?", plan.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}

	return nil
}
