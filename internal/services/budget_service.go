package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/budget"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// CategoryView is a budget category enriched with its spend status for
// the current period.
type CategoryView struct {
	core.BudgetCategory
	PercentUsed float64       `json:"percent_used"`
	Status      budget.Status `json:"status"`
}

// BudgetService orchestrates budget category operations and the monthly
// close across the ledger and AMQP.
type BudgetService struct {
	store      ledger.Store
	amqpClient *amqp.Client
}

func NewBudgetService(store ledger.Store, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{store: store, amqpClient: amqpClient}
}

func (s *BudgetService) ListCategories(ctx context.Context, userID int64) ([]CategoryView, error) {
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		pct, status := budget.Classify(c.SpentCents, c.EffectiveLimitCents())
		out = append(out, CategoryView{BudgetCategory: c, PercentUsed: pct, Status: status})
	}
	return out, nil
}

func (s *BudgetService) CreateCategory(ctx context.Context, category core.BudgetCategory) (core.BudgetCategory, error) {
	if err := category.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	return s.store.CreateCategory(ctx, category)
}

// CloseMonth banks every category's leftover into its rollover, zeroes
// spent amounts, and queues the period report for spreadsheet export. The
// store rejects a second close for the same period with
// core.ErrAlreadyApplied.
func (s *BudgetService) CloseMonth(ctx context.Context, userID int64, period core.Period) ([]core.CategoryLeftover, error) {
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	leftovers := budget.CloseDeltas(categories)
	reportID, err := s.store.CloseMonth(ctx, userID, period, leftovers)
	if err != nil {
		return nil, err
	}

	// Publish async sync message (non-blocking)
	if err := s.publishReportSync(ctx, reportID, userID, period); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report sync message",
			"report_id", reportID, "error", err)
		// Don't fail the request - the close is committed and the report
		// stays pending for the sweep to pick up
	}

	return leftovers, nil
}

func (s *BudgetService) publishReportSync(ctx context.Context, reportID, userID int64, period core.Period) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping report sync message")
		return nil
	}
	return s.amqpClient.PublishReportSync(ctx, reportID, userID, string(period))
}
