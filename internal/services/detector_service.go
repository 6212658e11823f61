package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/detect"
	"bilancio/internal/ledger"
)

// ScanWindowDays bounds how far back a recurring scan looks.
const ScanWindowDays = 90

// DetectorService runs recurring-expense scans and manages the review
// queue of detected charges.
type DetectorService struct {
	store ledger.Store
}

func NewDetectorService(store ledger.Store) *DetectorService {
	return &DetectorService{store: store}
}

// Scan analyzes the user's recent expenses and reconciles the detected
// candidates with the stored charges. Confirmed and ignored flags survive
// rescans.
func (s *DetectorService) Scan(ctx context.Context, userID int64) ([]core.RecurringCharge, error) {
	expenses, err := s.store.ListExpensesSince(ctx, userID, ScanWindowDays)
	if err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}

	candidates := detect.Scan(expenses)
	charges, err := s.store.UpsertCharges(ctx, userID, candidates)
	if err != nil {
		return nil, fmt.Errorf("upsert charges: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense scan completed",
		"user_id", userID,
		"expenses", len(expenses),
		"detected", len(charges))

	return charges, nil
}

func (s *DetectorService) ListCharges(ctx context.Context, userID int64, pendingOnly bool) ([]core.RecurringCharge, error) {
	return s.store.ListCharges(ctx, userID, pendingOnly)
}

// Respond records the user's verdict on a detected charge.
func (s *DetectorService) Respond(ctx context.Context, chargeID int64, action core.DetectionAction) (core.RecurringCharge, error) {
	return s.store.RespondCharge(ctx, chargeID, action)
}
