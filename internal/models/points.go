// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Transaction and payment order statuses.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PointsTransaction is one append-only ledger entry. The sum of all deltas
// for a user equals that user's current balance.
type PointsTransaction struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Delta     int64     `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"not null" json:"reason"`
	Status    string    `gorm:"not null;default:success;index" json:"status"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// PointsCostRule prices a consume request by its (action, size, feature)
// triple. At most one enabled rule exists per triple.
type PointsCostRule struct { //nolint:govet // fieldalignment not critical for models
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     string `gorm:"not null;uniqueIndex:idx_rule_triple" json:"action"`
	Size       string `gorm:"not null;uniqueIndex:idx_rule_triple" json:"size"`
	Feature    string `gorm:"not null;uniqueIndex:idx_rule_triple" json:"feature"`
	CostPoints int64  `gorm:"not null" json:"cost_points"`
	Enabled    bool   `gorm:"not null;default:true" json:"enabled"`
}

// RechargePlan is a purchasable points bundle.
type RechargePlan struct { //nolint:govet // fieldalignment not critical for models
	ID       int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	PriceCNY float64 `gorm:"not null" json:"price_cny"`
	Points   int64   `gorm:"not null" json:"points"`
	Enabled  bool    `gorm:"not null;default:true" json:"enabled"`
}

// PaymentOrder tracks a recharge purchase. Orders are created pending and
// settled exactly once, keyed on the external trade reference.
type PaymentOrder struct { //nolint:govet // fieldalignment not critical for models
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64     `gorm:"not null;index" json:"user_id"`
	Channel         string    `gorm:"not null;index" json:"channel"`
	PlanID          int64     `gorm:"not null" json:"plan_id"`
	Amount          float64   `gorm:"not null" json:"amount"`
	Status          string    `gorm:"not null;default:pending;index" json:"status"`
	ExternalTradeNo *string   `gorm:"uniqueIndex" json:"external_trade_no,omitempty"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
