// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/postpin/backend/internal/models"
)

// GetEnabledCostRule retrieves the enabled cost rule for an exact
// (action, size, feature) triple.
func (r *Repository) GetEnabledCostRule(ctx context.Context, action, size, feature string) (*models.PointsCostRule, error) {
	var rule models.PointsCostRule
	err := r.db.WithContext(ctx).
		Where("action = ? AND size = ? AND feature = ? AND enabled = ?", action, size, feature, true).
		First(&rule).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &rule, nil
}

// CreateTransaction appends a ledger entry.
func (r *Repository) CreateTransaction(ctx context.Context, t *models.PointsTransaction) error {
	return wrapError(r.db.WithContext(ctx).Create(t).Error)
}

// ListTransactions returns a user's ledger entries, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.PointsTransaction, error) {
	var transactions []models.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// SumTransactionDeltas returns the sum of all ledger deltas for a user.
// Always equal to the user's balance when the ledger invariant holds.
func (r *Repository) SumTransactionDeltas(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// GetRechargePlan retrieves a recharge plan by ID.
func (r *Repository) GetRechargePlan(ctx context.Context, id int64) (*models.RechargePlan, error) {
	var plan models.RechargePlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, wrapError(err)
	}
	return &plan, nil
}

// ListEnabledRechargePlans returns all enabled recharge plans.
func (r *Repository) ListEnabledRechargePlans(ctx context.Context) ([]models.RechargePlan, error) {
	var plans []models.RechargePlan
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// CreatePaymentOrder persists a new payment order.
func (r *Repository) CreatePaymentOrder(ctx context.Context, order *models.PaymentOrder) error {
	return wrapError(r.db.WithContext(ctx).Create(order).Error)
}

// GetPaymentOrder retrieves a payment order by ID.
func (r *Repository) GetPaymentOrder(ctx context.Context, id int64) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, wrapError(err)
	}
	return &order, nil
}

// SettlePaymentOrder transitions a pending order to success and records the
// external trade reference. The update is conditional on status = pending so
// settlement is idempotent; it reports false when the order was already
// settled.
func (r *Repository) SettlePaymentOrder(ctx context.Context, id int64, tradeNo string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]any{
			"status":            models.StatusSuccess,
			"external_trade_no": tradeNo,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPaymentOrders returns all payment orders, newest first.
func (r *Repository) ListPaymentOrders(ctx context.Context) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
