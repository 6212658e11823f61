package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Snowball  Strategy = "snowball"
	Avalanche Strategy = "avalanche"

	EcoLow  EcoScore = "low"
	EcoMed  EcoScore = "med"
	EcoHigh EcoScore = "high"

	ActionConfirm DetectionAction = "confirm"
	ActionIgnore  DetectionAction = "ignore"
)

type (
	TransactionType string

	// Strategy selects the debt payoff ordering policy.
	Strategy string

	EcoScore string

	DetectionAction string

	// Period identifies a monthly budget period as "YYYY-MM".
	Period string

	// Debt is an outstanding liability. Balances are cents, rates are
	// annual basis points (1250 = 12.50% APR). Interest accrual may push
	// the balance above the original principal; payments clamp it at zero.
	Debt struct {
		ID               int64  `json:"id"`
		UserID           int64  `json:"user_id"`
		Name             string `json:"name"`
		TotalAmountCents int64  `json:"total_amount_cents"`
		BalanceCents     int64  `json:"current_balance_cents"`
		InterestRateBps  int64  `json:"interest_rate_bps"`
		MinPaymentCents  int64  `json:"min_payment_cents"`
		DisplayColor     string `json:"display_color"`
	}

	// BudgetCategory tracks a monthly allowance. SpentCents accumulates
	// within the current period only; RolloverCents is the unspent balance
	// banked by the last period close.
	BudgetCategory struct {
		ID            int64    `json:"id"`
		UserID        int64    `json:"user_id"`
		Name          string   `json:"name"`
		LimitCents    int64    `json:"limit_cents"`
		SpentCents    int64    `json:"spent_cents"`
		RolloverCents int64    `json:"rollover_cents"`
		EcoScore      EcoScore `json:"eco_score"`
	}

	// Transaction is an append-only ledger entry. The optional links tie a
	// payment to a debt or a contribution to a saving goal.
	Transaction struct {
		ID           int64           `json:"id"`
		UserID       int64           `json:"user_id"`
		AmountCents  int64           `json:"amount_cents"`
		Type         TransactionType `json:"type"`
		Category     string          `json:"category"`
		Description  string          `json:"description"`
		OccurredAt   time.Time       `json:"occurred_at"`
		DebtID       *int64          `json:"debt_id,omitempty"`
		SavingGoalID *int64          `json:"saving_goal_id,omitempty"`
	}

	SavingGoal struct {
		ID           int64      `json:"id"`
		UserID       int64      `json:"user_id"`
		Name         string     `json:"name"`
		TargetCents  int64      `json:"target_cents"`
		CurrentCents int64      `json:"current_cents"`
		Deadline     *time.Time `json:"deadline,omitempty"`
	}

	// RecurringCharge is a detected subscription-like expense. MatchKey is
	// the stable fuzzy key scans group on; the confirmed/ignored flags are
	// owned by the user and survive rescans.
	RecurringCharge struct {
		ID            int64     `json:"id"`
		UserID        int64     `json:"user_id"`
		Name          string    `json:"name"`
		MatchKey      string    `json:"match_key"`
		AmountCents   int64     `json:"amount_cents"`
		DetectedDay   int       `json:"detected_day"`
		Confidence    float64   `json:"confidence_score"`
		IsConfirmed   bool      `json:"is_confirmed"`
		IsIgnored     bool      `json:"is_ignored"`
		LastChargedAt time.Time `json:"last_charged_at"`
	}

	// BalanceDelta records one debt balance mutation from interest
	// application.
	BalanceDelta struct {
		DebtID        int64 `json:"debt_id"`
		PreviousCents int64 `json:"previous_balance_cents"`
		NewCents      int64 `json:"new_balance_cents"`
	}

	// CategoryLeftover records the unspent balance one period close
	// transferred into a category's rollover.
	CategoryLeftover struct {
		CategoryID    int64  `json:"category_id"`
		CategoryName  string `json:"category_name"`
		LeftoverCents int64  `json:"leftover_transferred_cents"`
	}

	// ChargeCandidate is one group a recurring scan produced, before it is
	// reconciled with previously detected charges.
	ChargeCandidate struct {
		Name          string
		MatchKey      string
		AmountCents   int64
		DetectedDay   int
		Confidence    float64
		LastChargedAt time.Time
	}

	// PeriodReport is the persisted output of one period close, queued for
	// export to the spreadsheet archive.
	PeriodReport struct {
		ID        int64              `json:"id"`
		UserID    int64              `json:"user_id"`
		Period    Period             `json:"period"`
		CreatedAt time.Time          `json:"created_at"`
		Lines     []CategoryLeftover `json:"lines"`
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyApplied = errors.New("already applied for period")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
)

// PeriodOf returns the monthly period containing t.
func PeriodOf(t time.Time) Period {
	return Period(t.Format("2006-01"))
}

// ParseStrategy validates a strategy name from the request boundary.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Snowball:
		return Snowball, nil
	case Avalanche:
		return Avalanche, nil
	default:
		return "", ErrInvalidInput
	}
}

// ParseDetectionAction validates a detection response action.
func ParseDetectionAction(s string) (DetectionAction, error) {
	switch DetectionAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionConfirm:
		return ActionConfirm, nil
	case ActionIgnore:
		return ActionIgnore, nil
	default:
		return "", ErrInvalidInput
	}
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.TotalAmountCents < 0 || d.BalanceCents < 0 {
		return ErrInvalidAmount
	}
	if d.InterestRateBps < 0 || d.MinPaymentCents < 0 {
		return ErrInvalidInput
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.LimitCents < 0 || c.SpentCents < 0 || c.RolloverCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// EffectiveLimitCents is the spending allowance for the current period:
// the base limit plus the rollover banked by the previous close.
func (c BudgetCategory) EffectiveLimitCents() int64 {
	return c.LimitCents + c.RolloverCents
}

func (t Transaction) Validate() error {
	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidInput
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyName
	}
	return nil
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetCents <= 0 || g.CurrentCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Pending reports whether the charge still awaits a user response.
func (r RecurringCharge) Pending() bool {
	return !r.IsConfirmed && !r.IsIgnored
}
