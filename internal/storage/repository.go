// Package storage is the SQLite system of record. All multi-row ledger
// mutations run inside a single database transaction; the period_markers
// table serializes once-per-period operations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// claimPeriod inserts the once-per-period marker, or fails with
// core.ErrAlreadyApplied when the row already exists.
func claimPeriod(ctx context.Context, tx *sql.Tx, userID int64, scope string, period core.Period) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM period_markers WHERE user_id = ? AND scope = ? AND period = ?`,
		userID, scope, period).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check period marker: %w", err)
	}
	if exists > 0 {
		return core.ErrAlreadyApplied
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO period_markers (user_id, scope, period) VALUES (?, ?, ?)`,
		userID, scope, period); err != nil {
		return fmt.Errorf("insert period marker: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context, userID int64) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, total_amount_cents, current_balance_cents,
		        interest_rate_bps, min_payment_cents, display_color
		 FROM debts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	out := make([]core.Debt, 0)
	for rows.Next() {
		var d core.Debt
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.TotalAmountCents,
			&d.BalanceCents, &d.InterestRateBps, &d.MinPaymentCents, &d.DisplayColor); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, debt core.Debt) (core.Debt, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, name, total_amount_cents, current_balance_cents,
		                    interest_rate_bps, min_payment_cents, display_color)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		debt.UserID, debt.Name, debt.TotalAmountCents, debt.BalanceCents,
		debt.InterestRateBps, debt.MinPaymentCents, debt.DisplayColor)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	debt.ID, err = res.LastInsertId()
	if err != nil {
		return core.Debt{}, fmt.Errorf("debt insert id: %w", err)
	}

	slog.InfoContext(ctx, "Debt created",
		"id", debt.ID,
		"user_id", debt.UserID,
		"name", debt.Name,
		"balance_cents", debt.BalanceCents)

	return debt, nil
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, userID, debtID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM debts WHERE id = ? AND user_id = ?`, debtID, userID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete debt rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ApplyInterest(ctx context.Context, userID int64, period core.Period, deltas []core.BalanceDelta) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := claimPeriod(ctx, tx, userID, "apply_interest", period); err != nil {
			return err
		}
		for _, delta := range deltas {
			res, err := tx.ExecContext(ctx,
				`UPDATE debts SET current_balance_cents = ? WHERE id = ? AND user_id = ?`,
				delta.NewCents, delta.DebtID, userID)
			if err != nil {
				return fmt.Errorf("apply interest to debt %d: %w", delta.DebtID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("apply interest rows: %w", err)
			}
			if n == 0 {
				return core.ErrNotFound
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, limit_cents, spent_cents, rollover_cents, eco_score
		 FROM budget_categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.BudgetCategory, 0)
	for rows.Next() {
		var c core.BudgetCategory
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.LimitCents,
			&c.SpentCents, &c.RolloverCents, &c.EcoScore); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, category core.BudgetCategory) (core.BudgetCategory, error) {
	if category.EcoScore == "" {
		category.EcoScore = core.EcoLow
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_categories (user_id, name, limit_cents, spent_cents, rollover_cents, eco_score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		category.UserID, category.Name, category.LimitCents,
		category.SpentCents, category.RolloverCents, category.EcoScore)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("create category: %w", err)
	}
	category.ID, err = res.LastInsertId()
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("category insert id: %w", err)
	}
	return category, nil
}

func (r *SQLiteRepository) CloseMonth(ctx context.Context, userID int64, period core.Period, leftovers []core.CategoryLeftover) (int64, error) {
	var reportID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := claimPeriod(ctx, tx, userID, "close_month", period); err != nil {
			return err
		}
		for _, leftover := range leftovers {
			res, err := tx.ExecContext(ctx,
				`UPDATE budget_categories SET rollover_cents = ?, spent_cents = 0
				 WHERE id = ? AND user_id = ?`,
				leftover.LeftoverCents, leftover.CategoryID, userID)
			if err != nil {
				return fmt.Errorf("close category %d: %w", leftover.CategoryID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("close category rows: %w", err)
			}
			if n == 0 {
				return core.ErrNotFound
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO period_reports (user_id, period) VALUES (?, ?)`,
			userID, period)
		if err != nil {
			return fmt.Errorf("create period report: %w", err)
		}
		reportID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("period report id: %w", err)
		}
		for _, leftover := range leftovers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO period_report_lines (report_id, category_id, category_name, leftover_cents)
				 VALUES (?, ?, ?, ?)`,
				reportID, leftover.CategoryID, leftover.CategoryName, leftover.LeftoverCents); err != nil {
				return fmt.Errorf("create report line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Budget period closed",
		"user_id", userID,
		"period", period,
		"report_id", reportID,
		"categories", len(leftovers))

	return reportID, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, amount_cents, type, category, description, occurred_at, debt_id, saving_goal_id
		 FROM transactions WHERE user_id = ? ORDER BY occurred_at DESC, id DESC`, userID)
}

func (r *SQLiteRepository) ListExpensesSince(ctx context.Context, userID int64, sinceDays int) ([]core.Transaction, error) {
	cutoff := time.Now().AddDate(0, 0, -sinceDays)
	return r.queryTransactions(ctx,
		`SELECT id, user_id, amount_cents, type, category, description, occurred_at, debt_id, saving_goal_id
		 FROM transactions WHERE user_id = ? AND type = 'expense' AND occurred_at >= ?
		 ORDER BY occurred_at, id`, userID, cutoff)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var t core.Transaction
		var debtID, goalID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Type, &t.Category,
			&t.Description, &t.OccurredAt, &debtID, &goalID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if debtID.Valid {
			t.DebtID = &debtID.Int64
		}
		if goalID.Valid {
			t.SavingGoalID = &goalID.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, amount_cents, type, category, description, occurred_at, debt_id, saving_goal_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.UserID, t.AmountCents, t.Type, t.Category, t.Description, t.OccurredAt,
			nullableID(t.DebtID), nullableID(t.SavingGoalID))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		t.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction insert id: %w", err)
		}

		if t.Type == core.Expense && t.Category != "" {
			if _, err := tx.ExecContext(ctx,
				`UPDATE budget_categories SET spent_cents = spent_cents + ?
				 WHERE user_id = ? AND name = ?`,
				t.AmountCents, t.UserID, t.Category); err != nil {
				return fmt.Errorf("update category spent: %w", err)
			}
		}
		if t.DebtID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE debts SET current_balance_cents = MAX(current_balance_cents - ?, 0)
				 WHERE id = ? AND user_id = ?`,
				t.AmountCents, *t.DebtID, t.UserID)
			if err != nil {
				return fmt.Errorf("pay down debt: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("pay down debt rows: %w", err)
			}
			if n == 0 {
				return core.ErrNotFound
			}
		}
		if t.SavingGoalID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE saving_goals SET current_cents = current_cents + ?
				 WHERE id = ? AND user_id = ?`,
				t.AmountCents, *t.SavingGoalID, t.UserID)
			if err != nil {
				return fmt.Errorf("fund saving goal: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("fund saving goal rows: %w", err)
			}
			if n == 0 {
				return core.ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, deadline
		 FROM saving_goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingGoal, 0)
	for rows.Next() {
		var g core.SavingGoal
		var deadline sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetCents, &g.CurrentCents, &deadline); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if deadline.Valid {
			g.Deadline = &deadline.Time
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, goal core.SavingGoal) (core.SavingGoal, error) {
	var deadline any
	if goal.Deadline != nil {
		deadline = *goal.Deadline
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO saving_goals (user_id, name, target_cents, current_cents, deadline)
		 VALUES (?, ?, ?, ?, ?)`,
		goal.UserID, goal.Name, goal.TargetCents, goal.CurrentCents, deadline)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("create goal: %w", err)
	}
	goal.ID, err = res.LastInsertId()
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("goal insert id: %w", err)
	}
	return goal, nil
}

func (r *SQLiteRepository) ListCharges(ctx context.Context, userID int64, pendingOnly bool) ([]core.RecurringCharge, error) {
	query := `SELECT id, user_id, name, match_key, amount_cents, detected_day,
	                 confidence, is_confirmed, is_ignored, last_charged_at
	          FROM recurring_charges WHERE user_id = ?`
	if pendingOnly {
		query += ` AND is_confirmed = 0 AND is_ignored = 0`
	}
	query += ` ORDER BY confidence DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	defer rows.Close()

	out := make([]core.RecurringCharge, 0)
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharge(row rowScanner) (core.RecurringCharge, error) {
	var c core.RecurringCharge
	var lastCharged sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.MatchKey, &c.AmountCents,
		&c.DetectedDay, &c.Confidence, &c.IsConfirmed, &c.IsIgnored, &lastCharged); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RecurringCharge{}, core.ErrNotFound
		}
		return core.RecurringCharge{}, fmt.Errorf("scan recurring charge: %w", err)
	}
	if lastCharged.Valid {
		c.LastChargedAt = lastCharged.Time
	}
	return c, nil
}

func (r *SQLiteRepository) UpsertCharges(ctx context.Context, userID int64, candidates []core.ChargeCandidate) ([]core.RecurringCharge, error) {
	out := make([]core.RecurringCharge, 0, len(candidates))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, cand := range candidates {
			// The unique (user_id, match_key) index makes this an update
			// for already known charges; the review flags keep their values.
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recurring_charges
				     (user_id, name, match_key, amount_cents, detected_day, confidence, last_charged_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(user_id, match_key) DO UPDATE SET
				     name = excluded.name,
				     amount_cents = excluded.amount_cents,
				     detected_day = excluded.detected_day,
				     confidence = excluded.confidence,
				     last_charged_at = excluded.last_charged_at,
				     updated_at = CURRENT_TIMESTAMP`,
				userID, cand.Name, cand.MatchKey, cand.AmountCents,
				cand.DetectedDay, cand.Confidence, cand.LastChargedAt); err != nil {
				return fmt.Errorf("upsert charge %q: %w", cand.MatchKey, err)
			}

			row := tx.QueryRowContext(ctx,
				`SELECT id, user_id, name, match_key, amount_cents, detected_day,
				        confidence, is_confirmed, is_ignored, last_charged_at
				 FROM recurring_charges WHERE user_id = ? AND match_key = ?`,
				userID, cand.MatchKey)
			c, err := scanCharge(row)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) RespondCharge(ctx context.Context, chargeID int64, action core.DetectionAction) (core.RecurringCharge, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_charges
		 SET is_confirmed = ?, is_ignored = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		action == core.ActionConfirm, action == core.ActionIgnore, chargeID)
	if err != nil {
		return core.RecurringCharge{}, fmt.Errorf("respond to charge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.RecurringCharge{}, fmt.Errorf("respond rows: %w", err)
	}
	if n == 0 {
		return core.RecurringCharge{}, core.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, match_key, amount_cents, detected_day,
		        confidence, is_confirmed, is_ignored, last_charged_at
		 FROM recurring_charges WHERE id = ?`, chargeID)
	return scanCharge(row)
}

func (r *SQLiteRepository) GetReport(ctx context.Context, reportID int64) (core.PeriodReport, error) {
	var report core.PeriodReport
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, period, created_at FROM period_reports WHERE id = ?`,
		reportID).Scan(&report.ID, &report.UserID, &report.Period, &report.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PeriodReport{}, core.ErrNotFound
	}
	if err != nil {
		return core.PeriodReport{}, fmt.Errorf("get period report: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, category_name, leftover_cents
		 FROM period_report_lines WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return core.PeriodReport{}, fmt.Errorf("list report lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line core.CategoryLeftover
		if err := rows.Scan(&line.CategoryID, &line.CategoryName, &line.LeftoverCents); err != nil {
			return core.PeriodReport{}, fmt.Errorf("scan report line: %w", err)
		}
		report.Lines = append(report.Lines, line)
	}
	return report, rows.Err()
}

func (r *SQLiteRepository) ListPendingReports(ctx context.Context, limit int) ([]core.PeriodReport, error) {
	query := `SELECT id FROM period_reports WHERE sync_status = 'pending' ORDER BY created_at`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan report id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]core.PeriodReport, 0, len(ids))
	for _, id := range ids {
		report, err := r.GetReport(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkReportSynced(ctx context.Context, reportID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE period_reports SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP, last_error = NULL
		 WHERE id = ?`, reportID)
	if err != nil {
		return fmt.Errorf("mark report synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark synced rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkReportFailed(ctx context.Context, reportID int64, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE period_reports
		 SET sync_status = 'failed', retry_count = retry_count + 1, last_error = ?
		 WHERE id = ?`, reason, reportID)
	if err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark failed rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM (
		     SELECT user_id FROM debts
		     UNION SELECT user_id FROM budget_categories
		     UNION SELECT user_id FROM transactions
		 ) ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
