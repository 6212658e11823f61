package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestApplyInterestGuardsPeriod(t *testing.T) {
	ctx := context.Background()
	store := New()

	debt, err := store.CreateDebt(ctx, core.Debt{UserID: 1, Name: "Visa", BalanceCents: 120000, InterestRateBps: 1200})
	if err != nil {
		t.Fatalf("CreateDebt() error: %v", err)
	}

	deltas := []core.BalanceDelta{{DebtID: debt.ID, PreviousCents: 120000, NewCents: 121200}}
	if err := store.ApplyInterest(ctx, 1, "2026-09", deltas); err != nil {
		t.Fatalf("ApplyInterest() error: %v", err)
	}

	debts, _ := store.ListDebts(ctx, 1)
	if debts[0].BalanceCents != 121200 {
		t.Errorf("balance = %d, want 121200", debts[0].BalanceCents)
	}

	err = store.ApplyInterest(ctx, 1, "2026-09", deltas)
	if !errors.Is(err, core.ErrAlreadyApplied) {
		t.Fatalf("second ApplyInterest() err = %v, want ErrAlreadyApplied", err)
	}
	debts, _ = store.ListDebts(ctx, 1)
	if debts[0].BalanceCents != 121200 {
		t.Errorf("balance after rejected apply = %d, want unchanged 121200", debts[0].BalanceCents)
	}

	// A new period is allowed.
	if err := store.ApplyInterest(ctx, 1, "2026-10", deltas); err != nil {
		t.Errorf("ApplyInterest() next period error: %v", err)
	}
}

func TestApplyInterestUnknownDebtWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := New()
	debt, _ := store.CreateDebt(ctx, core.Debt{UserID: 1, Name: "Visa", BalanceCents: 10000})

	deltas := []core.BalanceDelta{
		{DebtID: debt.ID, NewCents: 11000},
		{DebtID: 999, NewCents: 5000},
	}
	if err := store.ApplyInterest(ctx, 1, "2026-09", deltas); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("ApplyInterest() err = %v, want ErrNotFound", err)
	}
	debts, _ := store.ListDebts(ctx, 1)
	if debts[0].BalanceCents != 10000 {
		t.Errorf("balance = %d, want untouched 10000 after failed batch", debts[0].BalanceCents)
	}
}

func TestCloseMonthIsAllOrNothingPerPeriod(t *testing.T) {
	ctx := context.Background()
	store := New()
	cat, _ := store.CreateCategory(ctx, core.BudgetCategory{UserID: 1, Name: "Food", LimitCents: 50000, SpentCents: 30000})

	leftovers := []core.CategoryLeftover{{CategoryID: cat.ID, CategoryName: "Food", LeftoverCents: 20000}}
	reportID, err := store.CloseMonth(ctx, 1, "2026-09", leftovers)
	if err != nil {
		t.Fatalf("CloseMonth() error: %v", err)
	}

	cats, _ := store.ListCategories(ctx, 1)
	if cats[0].RolloverCents != 20000 || cats[0].SpentCents != 0 {
		t.Errorf("category = %+v, want rollover 20000 spent 0", cats[0])
	}

	if _, err := store.CloseMonth(ctx, 1, "2026-09", leftovers); !errors.Is(err, core.ErrAlreadyApplied) {
		t.Fatalf("second CloseMonth() err = %v, want ErrAlreadyApplied", err)
	}
	cats, _ = store.ListCategories(ctx, 1)
	if cats[0].RolloverCents != 20000 {
		t.Errorf("rollover doubled to %d on rejected close", cats[0].RolloverCents)
	}

	report, err := store.GetReport(ctx, reportID)
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if report.Period != "2026-09" || len(report.Lines) != 1 || report.Lines[0].LeftoverCents != 20000 {
		t.Errorf("report = %+v, want one 20000 leftover line for 2026-09", report)
	}
}

func TestRecordTransactionSideEffects(t *testing.T) {
	ctx := context.Background()
	store := New()

	debt, _ := store.CreateDebt(ctx, core.Debt{UserID: 1, Name: "Visa", BalanceCents: 5000})
	goal, _ := store.CreateGoal(ctx, core.SavingGoal{UserID: 1, Name: "Trip", TargetCents: 100000})
	store.CreateCategory(ctx, core.BudgetCategory{UserID: 1, Name: "Food", LimitCents: 50000})

	// Expense bumps the category's spent amount.
	_, err := store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 1500, Type: core.Expense, Category: "Food", Description: "Groceries",
	})
	if err != nil {
		t.Fatalf("RecordTransaction() error: %v", err)
	}
	cats, _ := store.ListCategories(ctx, 1)
	if cats[0].SpentCents != 1500 {
		t.Errorf("spent = %d, want 1500", cats[0].SpentCents)
	}

	// Debt payment larger than the balance clamps at zero.
	debtID := debt.ID
	_, err = store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 9000, Type: core.Expense, Description: "Visa payoff", DebtID: &debtID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction() debt payment error: %v", err)
	}
	debts, _ := store.ListDebts(ctx, 1)
	if debts[0].BalanceCents != 0 {
		t.Errorf("debt balance = %d, want clamped to 0", debts[0].BalanceCents)
	}

	// Goal contribution raises the goal's funds.
	goalID := goal.ID
	_, err = store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 2000, Type: core.Income, Description: "Trip savings", SavingGoalID: &goalID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction() goal contribution error: %v", err)
	}
	goals, _ := store.ListGoals(ctx, 1)
	if goals[0].CurrentCents != 2000 {
		t.Errorf("goal funds = %d, want 2000", goals[0].CurrentCents)
	}

	// Unknown debt link records nothing.
	missing := int64(404)
	if _, err := store.RecordTransaction(ctx, core.Transaction{
		UserID: 1, AmountCents: 100, Type: core.Expense, Description: "phantom", DebtID: &missing,
	}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("RecordTransaction() err = %v, want ErrNotFound", err)
	}
	txs, _ := store.ListTransactions(ctx, 1)
	if len(txs) != 3 {
		t.Errorf("transactions = %d, want 3 (failed record appended nothing)", len(txs))
	}
}

func TestUpsertChargesPreservesFlags(t *testing.T) {
	ctx := context.Background()
	store := New()

	first := []core.ChargeCandidate{{
		Name: "Netflix", MatchKey: "netflix", AmountCents: 1500, DetectedDay: 11,
		Confidence: 0.9, LastChargedAt: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}}
	charges, err := store.UpsertCharges(ctx, 1, first)
	if err != nil {
		t.Fatalf("UpsertCharges() error: %v", err)
	}
	if len(charges) != 1 || !charges[0].Pending() {
		t.Fatalf("charges = %+v, want one pending charge", charges)
	}

	if _, err := store.RespondCharge(ctx, charges[0].ID, core.ActionConfirm); err != nil {
		t.Fatalf("RespondCharge() error: %v", err)
	}

	// Rescan with refreshed fields: flags must survive, fields must update.
	second := []core.ChargeCandidate{{
		Name: "Netflix", MatchKey: "netflix", AmountCents: 1599, DetectedDay: 12,
		Confidence: 0.95, LastChargedAt: time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
	}}
	charges, err = store.UpsertCharges(ctx, 1, second)
	if err != nil {
		t.Fatalf("UpsertCharges() rescan error: %v", err)
	}
	c := charges[0]
	if !c.IsConfirmed || c.IsIgnored {
		t.Errorf("charge flags = confirmed=%v ignored=%v, want confirmed to survive rescan", c.IsConfirmed, c.IsIgnored)
	}
	if c.AmountCents != 1599 || c.DetectedDay != 12 {
		t.Errorf("charge = %+v, want refreshed amount and day", c)
	}

	pending, _ := store.ListCharges(ctx, 1, true)
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want confirmed charge excluded", pending)
	}
	all, _ := store.ListCharges(ctx, 1, false)
	if len(all) != 1 {
		t.Errorf("all charges = %d, want 1 (no duplicate row per rescan)", len(all))
	}
}

func TestRespondChargeNotFound(t *testing.T) {
	store := New()
	if _, err := store.RespondCharge(context.Background(), 42, core.ActionIgnore); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("RespondCharge() err = %v, want ErrNotFound", err)
	}
}

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	cat, _ := store.CreateCategory(ctx, core.BudgetCategory{UserID: 1, Name: "Food", LimitCents: 100})
	reportID, err := store.CloseMonth(ctx, 1, "2026-09", []core.CategoryLeftover{{CategoryID: cat.ID, LeftoverCents: 100}})
	if err != nil {
		t.Fatalf("CloseMonth() error: %v", err)
	}

	pending, _ := store.ListPendingReports(ctx, 10)
	if len(pending) != 1 || pending[0].ID != reportID {
		t.Fatalf("pending reports = %+v, want the fresh report", pending)
	}

	if err := store.MarkReportSynced(ctx, reportID); err != nil {
		t.Fatalf("MarkReportSynced() error: %v", err)
	}
	pending, _ = store.ListPendingReports(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending after sync = %+v, want empty", pending)
	}
}
