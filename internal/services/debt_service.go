package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/planner"
)

// DebtService orchestrates debt operations: CRUD, monthly interest
// application, and payoff planning.
type DebtService struct {
	store ledger.Store
}

func NewDebtService(store ledger.Store) *DebtService {
	return &DebtService{store: store}
}

func (s *DebtService) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	return s.store.ListDebts(ctx, userID)
}

func (s *DebtService) CreateDebt(ctx context.Context, debt core.Debt) (core.Debt, error) {
	if err := debt.Validate(); err != nil {
		return core.Debt{}, err
	}
	if debt.BalanceCents == 0 {
		debt.BalanceCents = debt.TotalAmountCents
	}
	return s.store.CreateDebt(ctx, debt)
}

func (s *DebtService) DeleteDebt(ctx context.Context, userID, debtID int64) error {
	return s.store.DeleteDebt(ctx, userID, debtID)
}

// ApplyMonthlyInterest accrues one month of interest on every debt the
// user holds. The store rejects a second application for the same period
// with core.ErrAlreadyApplied.
func (s *DebtService) ApplyMonthlyInterest(ctx context.Context, userID int64, period core.Period) ([]core.BalanceDelta, error) {
	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}

	deltas := planner.InterestDeltas(debts)
	if err := s.store.ApplyInterest(ctx, userID, period, deltas); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Monthly interest applied",
		"user_id", userID,
		"period", period,
		"debts", len(deltas))

	return deltas, nil
}

// Plan orders the user's debts under the strategy and simulates the payoff
// with the given extra monthly payment.
func (s *DebtService) Plan(ctx context.Context, userID int64, strategy core.Strategy, extraCents int64) (planner.PayoffResult, []core.Debt, error) {
	debts, err := s.store.ListDebts(ctx, userID)
	if err != nil {
		return planner.PayoffResult{}, nil, fmt.Errorf("list debts: %w", err)
	}

	ordered, err := planner.OrderDebts(debts, strategy)
	if err != nil {
		return planner.PayoffResult{}, nil, err
	}

	result, err := planner.SimulatePayoff(debts, strategy, extraCents, planner.DefaultHorizonMonths)
	if err != nil {
		return planner.PayoffResult{}, nil, err
	}
	return result, ordered, nil
}
