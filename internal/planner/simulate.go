package planner

import (
	"fmt"

	"bilancio/internal/core"
)

// DefaultHorizonMonths caps the simulation so plans whose minimum payments
// never outpace interest still terminate. Hitting the cap sets Divergent.
const DefaultHorizonMonths = 600

type (
	// DebtPayoff reports the month (1-based) a debt reaches zero.
	DebtPayoff struct {
		DebtID      int64  `json:"debt_id"`
		Name        string `json:"name"`
		PayoffMonth int    `json:"payoff_month"`
	}

	// PayoffResult is the outcome of a payoff simulation. Divergent means
	// the horizon was exceeded; MonthsToFree is meaningless in that case
	// and callers must surface the flag instead of the number.
	PayoffResult struct {
		Strategy           core.Strategy `json:"strategy"`
		MonthsToFree       int           `json:"months_to_free"`
		TotalInterestCents int64         `json:"total_interest_cents"`
		Divergent          bool          `json:"divergent"`
		PerDebt            []DebtPayoff  `json:"per_debt"`
	}
)

// SimulatePayoff projects month-by-month repayment of the debt set under a
// strategy and an extra monthly payment. Each month: interest accrues on
// every active debt, minimum payments apply to every debt, then the extra
// pool goes to the highest-priority debt under the ordering re-evaluated
// for the current balances. A cleared debt's minimum payment joins the
// extra pool for subsequent months. Pure computation, no ledger writes.
func SimulatePayoff(debts []core.Debt, strategy core.Strategy, extraCents int64, horizonMonths int) (PayoffResult, error) {
	result := PayoffResult{Strategy: strategy}

	if extraCents < 0 {
		return result, fmt.Errorf("%w: negative extra payment", core.ErrInvalidInput)
	}
	ordering, err := GetOrdering(strategy)
	if err != nil {
		return result, err
	}
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}

	active := make([]core.Debt, 0, len(debts))
	for _, d := range debts {
		if d.BalanceCents > 0 {
			active = append(active, d)
		} else {
			result.PerDebt = append(result.PerDebt, DebtPayoff{DebtID: d.ID, Name: d.Name, PayoffMonth: 0})
		}
	}

	freedCents := int64(0)

	for month := 1; len(active) > 0; month++ {
		if month > horizonMonths {
			result.Divergent = true
			result.MonthsToFree = 0
			return result, nil
		}

		// Interest first, rounded per debt.
		for i := range active {
			interest := core.MonthlyInterestCents(active[i].BalanceCents, active[i].InterestRateBps)
			active[i].BalanceCents += interest
			result.TotalInterestCents += interest
		}

		// Minimum payments on every active debt.
		for i := range active {
			pay := active[i].MinPaymentCents
			if pay > active[i].BalanceCents {
				pay = active[i].BalanceCents
			}
			active[i].BalanceCents -= pay
		}

		// Extra pool to the top-priority debts for this month's balances;
		// whatever the first debt cannot absorb cascades down the order.
		pool := extraCents + freedCents
		if pool > 0 {
			ranked := make([]*core.Debt, len(active))
			for i := range active {
				ranked[i] = &active[i]
			}
			sortRanked(ranked, ordering)
			for _, d := range ranked {
				if pool == 0 {
					break
				}
				pay := pool
				if pay > d.BalanceCents {
					pay = d.BalanceCents
				}
				d.BalanceCents -= pay
				pool -= pay
			}
		}

		// Retire cleared debts and roll their minimums into the pool.
		remaining := active[:0]
		for _, d := range active {
			if d.BalanceCents <= 0 {
				freedCents += d.MinPaymentCents
				result.PerDebt = append(result.PerDebt, DebtPayoff{DebtID: d.ID, Name: d.Name, PayoffMonth: month})
				continue
			}
			remaining = append(remaining, d)
		}
		active = remaining
		result.MonthsToFree = month
	}

	return result, nil
}

func sortRanked(debts []*core.Debt, ordering Ordering) {
	// Insertion sort: the active set is small and mostly ordered between
	// months.
	for i := 1; i < len(debts); i++ {
		for j := i; j > 0 && ordering.Less(*debts[j], *debts[j-1]); j-- {
			debts[j], debts[j-1] = debts[j-1], debts[j]
		}
	}
}
