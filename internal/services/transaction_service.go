package services

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// TransactionService records ledger entries and exposes the goal surface.
type TransactionService struct {
	store ledger.Store
}

func NewTransactionService(store ledger.Store) *TransactionService {
	return &TransactionService{store: store}
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

func (s *TransactionService) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return s.store.RecordTransaction(ctx, tx)
}

func (s *TransactionService) ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	return s.store.ListGoals(ctx, userID)
}

func (s *TransactionService) CreateGoal(ctx context.Context, goal core.SavingGoal) (core.SavingGoal, error) {
	if err := goal.Validate(); err != nil {
		return core.SavingGoal{}, err
	}
	return s.store.CreateGoal(ctx, goal)
}
