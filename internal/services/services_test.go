package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/budget"
	"bilancio/internal/core"
	"bilancio/internal/ledger/memory"
)

func TestDebtService_ApplyMonthlyInterest(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewDebtService(store)

	_, err := svc.CreateDebt(ctx, core.Debt{
		UserID:           1,
		Name:             "Car loan",
		TotalAmountCents: 120000,
		BalanceCents:     120000,
		InterestRateBps:  1200,
		MinPaymentCents:  10000,
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}

	deltas, err := svc.ApplyMonthlyInterest(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("ApplyMonthlyInterest() error = %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("deltas len = %d, want 1", len(deltas))
	}
	// 120000 * 1200bps / 12 months = 1200 cents of interest
	if deltas[0].NewCents != 121200 {
		t.Errorf("NewCents = %d, want 121200", deltas[0].NewCents)
	}

	debts, _ := svc.ListDebts(ctx, 1)
	if debts[0].BalanceCents != 121200 {
		t.Errorf("stored balance = %d, want 121200", debts[0].BalanceCents)
	}

	t.Run("second application for the same period fails", func(t *testing.T) {
		if _, err := svc.ApplyMonthlyInterest(ctx, 1, "2026-08"); !errors.Is(err, core.ErrAlreadyApplied) {
			t.Errorf("ApplyMonthlyInterest() error = %v, want ErrAlreadyApplied", err)
		}
		debts, _ := svc.ListDebts(ctx, 1)
		if debts[0].BalanceCents != 121200 {
			t.Errorf("balance after failed reapply = %d, want 121200", debts[0].BalanceCents)
		}
	})

	t.Run("next period applies again", func(t *testing.T) {
		if _, err := svc.ApplyMonthlyInterest(ctx, 1, "2026-09"); err != nil {
			t.Fatalf("ApplyMonthlyInterest() error = %v", err)
		}
	})
}

func TestDebtService_Plan(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewDebtService(store)

	mustCreate := func(d core.Debt) core.Debt {
		t.Helper()
		created, err := svc.CreateDebt(ctx, d)
		if err != nil {
			t.Fatalf("CreateDebt() error = %v", err)
		}
		return created
	}

	big := mustCreate(core.Debt{UserID: 1, Name: "Mortgage", TotalAmountCents: 10000, BalanceCents: 10000, InterestRateBps: 2000, MinPaymentCents: 1000})
	small := mustCreate(core.Debt{UserID: 1, Name: "Card", TotalAmountCents: 5000, BalanceCents: 5000, InterestRateBps: 1000, MinPaymentCents: 500})

	result, ordered, err := svc.Plan(ctx, 1, core.Snowball, 0)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if ordered[0].ID != small.ID || ordered[1].ID != big.ID {
		t.Errorf("snowball order = [%d %d], want [%d %d]", ordered[0].ID, ordered[1].ID, small.ID, big.ID)
	}
	if result.Divergent {
		t.Error("Plan() unexpectedly divergent")
	}

	_, ordered, err = svc.Plan(ctx, 1, core.Avalanche, 0)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if ordered[0].ID != big.ID {
		t.Errorf("avalanche first = %d, want %d", ordered[0].ID, big.ID)
	}

	if _, _, err := svc.Plan(ctx, 1, core.Strategy("pyramid"), 0); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Plan() with bad strategy error = %v, want ErrInvalidInput", err)
	}
}

func TestDebtService_CreateDebtDefaultsBalance(t *testing.T) {
	ctx := context.Background()
	svc := NewDebtService(memory.New())

	created, err := svc.CreateDebt(ctx, core.Debt{UserID: 1, Name: "Loan", TotalAmountCents: 8000})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if created.BalanceCents != 8000 {
		t.Errorf("BalanceCents = %d, want total 8000", created.BalanceCents)
	}

	if _, err := svc.CreateDebt(ctx, core.Debt{UserID: 1, Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("CreateDebt() with blank name error = %v, want ErrEmptyName", err)
	}
}

func TestBudgetService_CloseMonth(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil) // no AMQP in tests

	_, err := svc.CreateCategory(ctx, core.BudgetCategory{UserID: 1, Name: "Groceries", LimitCents: 50000})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	_, err = store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 30000, Type: core.Expense,
		Category: "Groceries", Description: "weekly shop", OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	leftovers, err := svc.CloseMonth(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("CloseMonth() error = %v", err)
	}
	if len(leftovers) != 1 || leftovers[0].LeftoverCents != 20000 {
		t.Fatalf("leftovers = %+v, want one entry of 20000", leftovers)
	}

	views, err := svc.ListCategories(ctx, 1)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if views[0].SpentCents != 0 {
		t.Errorf("SpentCents after close = %d, want 0", views[0].SpentCents)
	}
	if views[0].RolloverCents != 20000 {
		t.Errorf("RolloverCents after close = %d, want 20000", views[0].RolloverCents)
	}
	if views[0].EffectiveLimitCents() != 70000 {
		t.Errorf("EffectiveLimitCents = %d, want 70000", views[0].EffectiveLimitCents())
	}

	t.Run("second close for the same period fails", func(t *testing.T) {
		if _, err := svc.CloseMonth(ctx, 1, "2026-08"); !errors.Is(err, core.ErrAlreadyApplied) {
			t.Errorf("CloseMonth() error = %v, want ErrAlreadyApplied", err)
		}
	})
}

func TestBudgetService_ListCategoriesStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewBudgetService(store, nil)

	if _, err := svc.CreateCategory(ctx, core.BudgetCategory{UserID: 1, Name: "Dining", LimitCents: 10000}); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if _, err := store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 9000, Type: core.Expense,
		Category: "Dining", Description: "restaurants", OccurredAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	views, err := svc.ListCategories(ctx, 1)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if views[0].Status != budget.StatusWarning {
		t.Errorf("Status = %v, want warning at 90%%", views[0].Status)
	}
	if views[0].PercentUsed != 90 {
		t.Errorf("PercentUsed = %v, want 90", views[0].PercentUsed)
	}
}

func TestDetectorService_ScanAndRespond(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	txSvc := NewTransactionService(store)
	svc := NewDetectorService(store)

	now := time.Now()
	for i, day := range []int{75, 45, 15} {
		if _, err := txSvc.RecordTransaction(ctx, core.Transaction{
			UserID:      1,
			AmountCents: 1299,
			Type:        core.Expense,
			Description: "NETFLIX.COM 12345",
			OccurredAt:  now.AddDate(0, 0, -day),
		}); err != nil {
			t.Fatalf("RecordTransaction(%d) error = %v", i, err)
		}
	}

	charges, err := svc.Scan(ctx, 1)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(charges) != 1 {
		t.Fatalf("Scan() detected %d charges, want 1", len(charges))
	}
	if !charges[0].Pending() {
		t.Error("fresh detection should be pending")
	}

	confirmed, err := svc.Respond(ctx, charges[0].ID, core.ActionConfirm)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !confirmed.IsConfirmed || confirmed.IsIgnored {
		t.Errorf("Respond(confirm) flags = confirmed=%v ignored=%v", confirmed.IsConfirmed, confirmed.IsIgnored)
	}

	t.Run("rescan preserves the confirmation", func(t *testing.T) {
		rescanned, err := svc.Scan(ctx, 1)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(rescanned) != 1 {
			t.Fatalf("rescan detected %d charges, want 1", len(rescanned))
		}
		if !rescanned[0].IsConfirmed {
			t.Error("rescan dropped the confirmed flag")
		}

		pending, err := svc.ListCharges(ctx, 1, true)
		if err != nil {
			t.Fatalf("ListCharges() error = %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("pending queue has %d charges, want 0", len(pending))
		}
	})

	t.Run("responding to a missing charge fails", func(t *testing.T) {
		if _, err := svc.Respond(ctx, 9999, core.ActionIgnore); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Respond() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTransactionService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(memory.New())

	if _, err := svc.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 0, Type: core.Expense, Description: "zero",
	}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("RecordTransaction() error = %v, want ErrInvalidAmount", err)
	}

	if _, err := svc.CreateGoal(ctx, core.SavingGoal{UserID: 1, Name: "Vacation", TargetCents: 0}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("CreateGoal() error = %v, want ErrInvalidAmount", err)
	}

	goal, err := svc.CreateGoal(ctx, core.SavingGoal{UserID: 1, Name: "Vacation", TargetCents: 100000})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	tx, err := svc.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 5000, Type: core.Income,
		Description: "savings transfer", SavingGoalID: &goal.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}
	if tx.ID == 0 {
		t.Error("RecordTransaction() did not assign an ID")
	}

	goals, _ := svc.ListGoals(ctx, 1)
	if goals[0].CurrentCents != 5000 {
		t.Errorf("goal CurrentCents = %d, want 5000", goals[0].CurrentCents)
	}
}
