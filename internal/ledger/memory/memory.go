// Package memory is an in-process ledger store. It backs unit tests and
// the default local backend; every mutation takes the single mutex, which
// gives the same all-or-nothing and serialization guarantees the SQLite
// store gets from transactions.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type Store struct {
	mu sync.Mutex

	debts      []core.Debt
	categories []core.BudgetCategory
	txs        []core.Transaction
	goals      []core.SavingGoal
	charges    []core.RecurringCharge
	reports    []core.PeriodReport

	// markers guards close-month and interest application per period.
	markers map[string]bool

	reportStatus map[int64]string

	nextID int64
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		markers:      make(map[string]bool),
		reportStatus: make(map[int64]string),
		nextID:       1,
	}
}

func (s *Store) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Close() error { return nil }

func (s *Store) ListDebts(_ context.Context, userID int64) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Debt, 0)
	for _, d := range s.debts {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) CreateDebt(_ context.Context, debt core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debt.ID = s.id()
	s.debts = append(s.debts, debt)
	return debt, nil
}

func (s *Store) DeleteDebt(_ context.Context, userID, debtID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.debts {
		if d.ID == debtID && d.UserID == userID {
			s.debts = append(s.debts[:i], s.debts[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ApplyInterest(_ context.Context, userID int64, period core.Period, deltas []core.BalanceDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markerKey(userID, "apply_interest", period)
	if s.markers[key] {
		return core.ErrAlreadyApplied
	}

	byID := make(map[int64]int, len(s.debts))
	for i, d := range s.debts {
		if d.UserID == userID {
			byID[d.ID] = i
		}
	}
	// Validate the whole batch before touching anything.
	for _, delta := range deltas {
		if _, ok := byID[delta.DebtID]; !ok {
			return core.ErrNotFound
		}
	}
	for _, delta := range deltas {
		s.debts[byID[delta.DebtID]].BalanceCents = delta.NewCents
	}
	s.markers[key] = true
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BudgetCategory, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, category core.BudgetCategory) (core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = s.id()
	if category.EcoScore == "" {
		category.EcoScore = core.EcoLow
	}
	s.categories = append(s.categories, category)
	return category, nil
}

func (s *Store) CloseMonth(_ context.Context, userID int64, period core.Period, leftovers []core.CategoryLeftover) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markerKey(userID, "close_month", period)
	if s.markers[key] {
		return 0, core.ErrAlreadyApplied
	}

	byID := make(map[int64]int, len(s.categories))
	for i, c := range s.categories {
		if c.UserID == userID {
			byID[c.ID] = i
		}
	}
	for _, leftover := range leftovers {
		if _, ok := byID[leftover.CategoryID]; !ok {
			return 0, core.ErrNotFound
		}
	}
	for _, leftover := range leftovers {
		i := byID[leftover.CategoryID]
		s.categories[i].RolloverCents = leftover.LeftoverCents
		s.categories[i].SpentCents = 0
	}
	s.markers[key] = true

	report := core.PeriodReport{
		ID:        s.id(),
		UserID:    userID,
		Period:    period,
		CreatedAt: time.Now(),
		Lines:     append([]core.CategoryLeftover(nil), leftovers...),
	}
	s.reports = append(s.reports, report)
	s.reportStatus[report.ID] = "pending"
	return report.ID, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) ListExpensesSince(_ context.Context, userID int64, sinceDays int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -sinceDays)
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.Type == core.Expense && !tx.OccurredAt.Before(cutoff) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) RecordTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve all side-effect targets before mutating anything so a bad
	// link leaves the ledger untouched.
	debtIdx := -1
	if tx.DebtID != nil {
		for i, d := range s.debts {
			if d.ID == *tx.DebtID && d.UserID == tx.UserID {
				debtIdx = i
				break
			}
		}
		if debtIdx < 0 {
			return core.Transaction{}, core.ErrNotFound
		}
	}
	goalIdx := -1
	if tx.SavingGoalID != nil {
		for i, g := range s.goals {
			if g.ID == *tx.SavingGoalID && g.UserID == tx.UserID {
				goalIdx = i
				break
			}
		}
		if goalIdx < 0 {
			return core.Transaction{}, core.ErrNotFound
		}
	}

	tx.ID = s.id()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now()
	}
	s.txs = append(s.txs, tx)

	if tx.Type == core.Expense && tx.Category != "" {
		for i, c := range s.categories {
			if c.UserID == tx.UserID && c.Name == tx.Category {
				s.categories[i].SpentCents += tx.AmountCents
				break
			}
		}
	}
	if debtIdx >= 0 {
		balance := s.debts[debtIdx].BalanceCents - tx.AmountCents
		if balance < 0 {
			balance = 0
		}
		s.debts[debtIdx].BalanceCents = balance
	}
	if goalIdx >= 0 {
		s.goals[goalIdx].CurrentCents += tx.AmountCents
	}
	return tx, nil
}

func (s *Store) ListGoals(_ context.Context, userID int64) ([]core.SavingGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, goal core.SavingGoal) (core.SavingGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goal.ID = s.id()
	s.goals = append(s.goals, goal)
	return goal, nil
}

func (s *Store) ListCharges(_ context.Context, userID int64, pendingOnly bool) ([]core.RecurringCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringCharge, 0)
	for _, c := range s.charges {
		if c.UserID != userID {
			continue
		}
		if pendingOnly && !c.Pending() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) UpsertCharges(_ context.Context, userID int64, candidates []core.ChargeCandidate) ([]core.RecurringCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.RecurringCharge, 0, len(candidates))
	for _, cand := range candidates {
		idx := -1
		for i, c := range s.charges {
			if c.UserID == userID && c.MatchKey == cand.MatchKey {
				idx = i
				break
			}
		}
		if idx >= 0 {
			s.charges[idx].Name = cand.Name
			s.charges[idx].AmountCents = cand.AmountCents
			s.charges[idx].DetectedDay = cand.DetectedDay
			s.charges[idx].Confidence = cand.Confidence
			s.charges[idx].LastChargedAt = cand.LastChargedAt
			out = append(out, s.charges[idx])
			continue
		}
		charge := core.RecurringCharge{
			ID:            s.id(),
			UserID:        userID,
			Name:          cand.Name,
			MatchKey:      cand.MatchKey,
			AmountCents:   cand.AmountCents,
			DetectedDay:   cand.DetectedDay,
			Confidence:    cand.Confidence,
			LastChargedAt: cand.LastChargedAt,
		}
		s.charges = append(s.charges, charge)
		out = append(out, charge)
	}
	return out, nil
}

func (s *Store) RespondCharge(_ context.Context, chargeID int64, action core.DetectionAction) (core.RecurringCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.charges {
		if c.ID == chargeID {
			s.charges[i].IsConfirmed = action == core.ActionConfirm
			s.charges[i].IsIgnored = action == core.ActionIgnore
			return s.charges[i], nil
		}
	}
	return core.RecurringCharge{}, core.ErrNotFound
}

func (s *Store) GetReport(_ context.Context, reportID int64) (core.PeriodReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == reportID {
			return r, nil
		}
	}
	return core.PeriodReport{}, core.ErrNotFound
}

func (s *Store) ListPendingReports(_ context.Context, limit int) ([]core.PeriodReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PeriodReport, 0)
	for _, r := range s.reports {
		if s.reportStatus[r.ID] == "pending" {
			out = append(out, r)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkReportSynced(_ context.Context, reportID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reportStatus[reportID]; !ok {
		return core.ErrNotFound
	}
	s.reportStatus[reportID] = "synced"
	return nil
}

func (s *Store) MarkReportFailed(_ context.Context, reportID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reportStatus[reportID]; !ok {
		return core.ErrNotFound
	}
	s.reportStatus[reportID] = "failed"
	return nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]struct{}{}
	out := make([]int64, 0)
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, d := range s.debts {
		add(d.UserID)
	}
	for _, c := range s.categories {
		add(c.UserID)
	}
	for _, tx := range s.txs {
		add(tx.UserID)
	}
	return out, nil
}

func markerKey(userID int64, scope string, period core.Period) string {
	return scope + ":" + string(period) + ":" + strconv.FormatInt(userID, 10)
}
