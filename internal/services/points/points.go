// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package points manages the points ledger: balances, cost-rule priced
// consumption and recharges.
package points

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/postpin/backend/internal/models"
	"github.com/postpin/backend/internal/repository"
)

var (
	ErrRuleNotFound        = errors.New("no cost rule for request")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrPlanNotFound        = errors.New("recharge plan not found")
	ErrOrderAlreadySettled = errors.New("order already settled")
)

// Transaction listing limits.
const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 50
)

// Service manages points balances and the transaction ledger.
type Service struct {
	repo *repository.Repository
}

// NewService creates a new points service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Balance returns the user's current points balance.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

// Consume deducts the points priced for (action, size, feature) and appends
// the matching ledger entry in one transaction. The deduction is conditional
// on a sufficient balance, so concurrent consumes never drive the balance
// negative. Returns the remaining balance.
func (s *Service) Consume(ctx context.Context, userID int64, action, size, feature string) (int64, error) {
	rule, err := s.repo.GetEnabledCostRule(ctx, action, size, feature)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrRuleNotFound
		}
		return 0, fmt.Errorf("failed to look up cost rule: %w", err)
	}

	var remaining int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.TryDeductPoints(ctx, userID, rule.CostPoints)
		if err != nil {
			return fmt.Errorf("failed to deduct points: %w", err)
		}
		if !ok {
			return ErrInsufficientBalance
		}

		entry := &models.PointsTransaction{
			UserID: userID,
			Delta:  -rule.CostPoints,
			Reason: fmt.Sprintf("%s_%s_%s", action, size, feature),
			Status: models.StatusSuccess,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		remaining = user.Points
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("points_consumed", "user_id", userID, "cost", rule.CostPoints, "reason", fmt.Sprintf("%s_%s_%s", action, size, feature), "remaining", remaining)
	return remaining, nil
}

// Transactions returns the user's ledger entries, newest first. limit values
// outside 1..50 fall back to 50.
func (s *Service) Transactions(ctx context.Context, userID int64, limit int) ([]models.PointsTransaction, error) {
	if limit <= 0 || limit > maxTransactionLimit {
		limit = defaultTransactionLimit
	}
	return s.repo.ListTransactions(ctx, userID, limit)
}

// Plans returns the enabled recharge plans.
func (s *Service) Plans(ctx context.Context) ([]models.RechargePlan, error) {
	return s.repo.ListEnabledRechargePlans(ctx)
}

// Recharge purchases a plan for the user through the given payment channel.
// The order is created pending and settled in the same call; the settlement
// step is factored out and idempotent so an asynchronous payment callback can
// drive it instead. Returns the settled order and the new balance.
func (s *Service) Recharge(ctx context.Context, userID int64, planID int64, channel string) (*models.PaymentOrder, int64, error) {
	plan, err := s.repo.GetRechargePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrPlanNotFound
		}
		return nil, 0, fmt.Errorf("failed to look up plan: %w", err)
	}
	if !plan.Enabled {
		return nil, 0, ErrPlanNotFound
	}

	order := &models.PaymentOrder{
		UserID:  userID,
		Channel: channel,
		PlanID:  plan.ID,
		Amount:  plan.PriceCNY,
		Status:  models.StatusPending,
	}
	if err := s.repo.CreatePaymentOrder(ctx, order); err != nil {
		return nil, 0, fmt.Errorf("failed to create order: %w", err)
	}

	remaining, err := s.settleOrder(ctx, order, plan, uuid.NewString())
	if err != nil {
		return nil, 0, err
	}

	slog.Info("recharge_success", "user_id", userID, "order_id", order.ID, "plan_id", plan.ID, "points", plan.Points, "remaining", remaining)
	return order, remaining, nil
}

// settleOrder marks the order paid and credits the plan's points, all in one
// transaction. Settling an already settled order returns
// ErrOrderAlreadySettled without crediting again.
func (s *Service) settleOrder(ctx context.Context, order *models.PaymentOrder, plan *models.RechargePlan, tradeNo string) (int64, error) {
	var remaining int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.SettlePaymentOrder(ctx, order.ID, tradeNo)
		if err != nil {
			return fmt.Errorf("failed to settle order: %w", err)
		}
		if !ok {
			return ErrOrderAlreadySettled
		}

		if err := tx.AddUserPoints(ctx, order.UserID, plan.Points); err != nil {
			return fmt.Errorf("failed to credit points: %w", err)
		}

		entry := &models.PointsTransaction{
			UserID: order.UserID,
			Delta:  plan.Points,
			Reason: fmt.Sprintf("recharge_%d", plan.ID),
			Status: models.StatusSuccess,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		user, err := tx.GetUserByID(ctx, order.UserID)
		if err != nil {
			return err
		}
		remaining = user.Points
		return nil
	})
	if err != nil {
		return 0, err
	}

	order.Status = models.StatusSuccess
	order.ExternalTradeNo = &tradeNo
	return remaining, nil
}
