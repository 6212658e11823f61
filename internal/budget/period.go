// Package budget implements the monthly period manager: close-month
// rollover math and spend-status classification. All functions are pure;
// persistence of the computed deltas is the store's concern.
package budget

import "bilancio/internal/core"

// Status classifies how far a category is through its effective limit.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"

	warningThresholdPct  = 85
	criticalThresholdPct = 100
)

// CloseDeltas computes the period-close outcome for every category:
// leftover = max(limit + rollover - spent, 0). Each close overwrites the
// rollover with the latest leftover; compounding happens only through
// repeated leftovers, never by stacking.
func CloseDeltas(categories []core.BudgetCategory) []core.CategoryLeftover {
	deltas := make([]core.CategoryLeftover, 0, len(categories))
	for _, c := range categories {
		leftover := c.EffectiveLimitCents() - c.SpentCents
		if leftover < 0 {
			leftover = 0
		}
		deltas = append(deltas, core.CategoryLeftover{
			CategoryID:    c.ID,
			CategoryName:  c.Name,
			LeftoverCents: leftover,
		})
	}
	return deltas
}

// Classify returns the spend percentage against the effective limit and
// the alert status. A zero effective limit reports 0%, never a division
// error.
func Classify(spentCents, effectiveLimitCents int64) (float64, Status) {
	pct := core.PercentOf(spentCents, effectiveLimitCents)
	switch {
	case pct >= criticalThresholdPct:
		return pct, StatusCritical
	case pct >= warningThresholdPct:
		return pct, StatusWarning
	default:
		return pct, StatusNormal
	}
}
