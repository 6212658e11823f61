// Package planner implements the debt strategy planner: payoff ordering
// policies, periodic interest deltas, and the what-if payoff simulation.
//
// Ordering is implemented with the Strategy Pattern: each policy owns the
// comparison that ranks a debt set, registered in a lookup table keyed by
// the strategy name.
package planner

import (
	"fmt"
	"sort"

	"bilancio/internal/core"
)

// Ordering is the strategy interface for ranking debts. Less reports
// whether debt a should be paid before debt b.
type Ordering interface {
	Less(a, b core.Debt) bool
}

// SnowballOrdering ranks by ascending current balance: clearing the
// smallest debts first frees their minimum payments fastest.
type SnowballOrdering struct{}

func (SnowballOrdering) Less(a, b core.Debt) bool {
	if a.BalanceCents != b.BalanceCents {
		return a.BalanceCents < b.BalanceCents
	}
	return a.ID < b.ID
}

// AvalancheOrdering ranks by descending interest rate: the most expensive
// debt is attacked first.
type AvalancheOrdering struct{}

func (AvalancheOrdering) Less(a, b core.Debt) bool {
	if a.InterestRateBps != b.InterestRateBps {
		return a.InterestRateBps > b.InterestRateBps
	}
	return a.ID < b.ID
}

var orderings = map[core.Strategy]Ordering{
	core.Snowball:  SnowballOrdering{},
	core.Avalanche: AvalancheOrdering{},
}

// GetOrdering returns the ordering for a strategy name.
func GetOrdering(strategy core.Strategy) (Ordering, error) {
	ordering, ok := orderings[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", core.ErrInvalidInput, strategy)
	}
	return ordering, nil
}

// OrderDebts returns a copy of debts in payoff-priority order. The first
// element is the "pay first" debt under the given strategy.
func OrderDebts(debts []core.Debt, strategy core.Strategy) ([]core.Debt, error) {
	ordering, err := GetOrdering(strategy)
	if err != nil {
		return nil, err
	}
	ordered := make([]core.Debt, len(debts))
	copy(ordered, debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordering.Less(ordered[i], ordered[j])
	})
	return ordered, nil
}

// InterestDeltas computes one month of interest for every debt. Pure: the
// caller persists the deltas atomically or discards them.
func InterestDeltas(debts []core.Debt) []core.BalanceDelta {
	deltas := make([]core.BalanceDelta, 0, len(debts))
	for _, d := range debts {
		interest := core.MonthlyInterestCents(d.BalanceCents, d.InterestRateBps)
		deltas = append(deltas, core.BalanceDelta{
			DebtID:        d.ID,
			PreviousCents: d.BalanceCents,
			NewCents:      d.BalanceCents + interest,
		})
	}
	return deltas
}
