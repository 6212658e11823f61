// Package ledger defines the ports the engine uses to reach the persisted
// ledger. The SQLite store is the system of record; the memory store backs
// tests and local development.
package ledger

import (
	"context"

	"bilancio/internal/core"
)

type (
	DebtStore interface {
		ListDebts(ctx context.Context, userID int64) ([]core.Debt, error)
		CreateDebt(ctx context.Context, debt core.Debt) (core.Debt, error)
		DeleteDebt(ctx context.Context, userID, debtID int64) error

		// ApplyInterest rewrites every debt balance to its delta's new
		// value in one transaction, guarded by a per-period marker.
		// A repeated call for the same period fails with
		// core.ErrAlreadyApplied and writes nothing.
		ApplyInterest(ctx context.Context, userID int64, period core.Period, deltas []core.BalanceDelta) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID int64) ([]core.BudgetCategory, error)
		CreateCategory(ctx context.Context, category core.BudgetCategory) (core.BudgetCategory, error)

		// CloseMonth banks each leftover into its category's rollover,
		// zeroes spent amounts, and queues a period report, all in one
		// transaction. A repeated close for the same period fails with
		// core.ErrAlreadyApplied and leaves every category untouched.
		CloseMonth(ctx context.Context, userID int64, period core.Period, leftovers []core.CategoryLeftover) (reportID int64, err error)
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		ListExpensesSince(ctx context.Context, userID int64, sinceDays int) ([]core.Transaction, error)

		// RecordTransaction appends the entry and applies its side
		// effects in the same transaction: an expense raises the matching
		// category's spent amount, a debt link lowers the debt balance
		// (clamped at zero), a goal link raises the goal's funds.
		RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error)
		CreateGoal(ctx context.Context, goal core.SavingGoal) (core.SavingGoal, error)
	}

	DetectionStore interface {
		ListCharges(ctx context.Context, userID int64, pendingOnly bool) ([]core.RecurringCharge, error)

		// UpsertCharges reconciles one scan's candidates with the stored
		// charges in a single transaction. Matching rows (user + match
		// key) get refreshed amount/day/confidence/last-charged fields
		// while is_confirmed and is_ignored survive; unmatched candidates
		// insert with both flags false.
		UpsertCharges(ctx context.Context, userID int64, candidates []core.ChargeCandidate) ([]core.RecurringCharge, error)

		RespondCharge(ctx context.Context, chargeID int64, action core.DetectionAction) (core.RecurringCharge, error)
	}

	ReportStore interface {
		GetReport(ctx context.Context, reportID int64) (core.PeriodReport, error)
		ListPendingReports(ctx context.Context, limit int) ([]core.PeriodReport, error)
		MarkReportSynced(ctx context.Context, reportID int64) error
		MarkReportFailed(ctx context.Context, reportID int64, reason string) error
	}

	// UserStore enumerates users with ledger rows, for scheduled fan-out.
	UserStore interface {
		ListUserIDs(ctx context.Context) ([]int64, error)
	}

	// Store is the full ledger surface.
	Store interface {
		DebtStore
		CategoryStore
		TransactionStore
		GoalStore
		DetectionStore
		ReportStore
		UserStore

		Close() error
	}
)
