// Package detect implements the recurring-expense detector. A scan groups
// expense transactions by a fuzzy key derived from their descriptions,
// keeps the groups that look like monthly charges, and scores each with a
// confidence in [0,1] built from occurrence count, amount stability, and
// day-of-month stability.
package detect

import (
	"sort"
	"strings"
	"unicode"

	"bilancio/internal/core"
)

const (
	// MinOccurrences is the smallest group that can form a pattern.
	MinOccurrences = 2

	// Monthly charges land 25 to 35 days apart; the median gap between
	// consecutive occurrences must fall inside this window.
	minIntervalDays = 25
	maxIntervalDays = 35

	// Confidence weights. Count and amount stability dominate; the charge
	// day drifting a little (weekends, short months) is expected.
	countWeight  = 0.35
	amountWeight = 0.35
	dayWeight    = 0.30

	// countSaturation is the occurrence count at which the count factor
	// maxes out.
	countSaturation = 4
)

// MatchKey normalizes a transaction description into the stable grouping
// key. Case, extra whitespace, punctuation, and trailing reference numbers
// ("NETFLIX.COM  #8841") all collapse to the same key.
func MatchKey(description string) string {
	lowered := strings.ToLower(description)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)

	fields := strings.Fields(cleaned)
	kept := fields[:0]
	for _, f := range fields {
		if isNumeric(f) {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		// Pure-number descriptions still need a stable key.
		kept = strings.Fields(cleaned)
	}
	return strings.Join(kept, " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// Scan groups expense transactions and returns one candidate per group
// that recurs on a monthly cadence. Income and non-recurring groups are
// dropped. Candidates come back sorted by match key so repeated scans over
// the same ledger are deterministic.
func Scan(transactions []core.Transaction) []core.ChargeCandidate {
	groups := make(map[string][]core.Transaction)
	for _, tx := range transactions {
		if tx.Type != core.Expense {
			continue
		}
		key := MatchKey(tx.Description)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}

	candidates := make([]core.ChargeCandidate, 0, len(groups))
	for key, group := range groups {
		candidate, ok := analyzeGroup(key, group)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].MatchKey < candidates[j].MatchKey
	})
	return candidates
}

func analyzeGroup(key string, group []core.Transaction) (core.ChargeCandidate, bool) {
	if len(group) < MinOccurrences {
		return core.ChargeCandidate{}, false
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].OccurredAt.Before(group[j].OccurredAt)
	})

	if !monthlyCadence(group) {
		return core.ChargeCandidate{}, false
	}

	amounts := make([]int64, len(group))
	days := make([]int, len(group))
	for i, tx := range group {
		amounts[i] = tx.AmountCents
		days[i] = tx.OccurredAt.Day()
	}

	last := group[len(group)-1]
	return core.ChargeCandidate{
		Name:          displayName(last.Description),
		MatchKey:      key,
		AmountCents:   meanCents(amounts),
		DetectedDay:   medianDay(days),
		Confidence:    confidence(len(group), amounts, days),
		LastChargedAt: last.OccurredAt,
	}, true
}

// monthlyCadence checks that consecutive occurrences are about a month
// apart. The median gap tolerates a single skewed interval (a late or
// retried charge) without rejecting the whole group.
func monthlyCadence(sorted []core.Transaction) bool {
	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		days := int(sorted[i].OccurredAt.Sub(sorted[i-1].OccurredAt).Hours() / 24)
		gaps = append(gaps, days)
	}
	sort.Ints(gaps)
	median := gaps[len(gaps)/2]
	return median >= minIntervalDays && median <= maxIntervalDays
}

func confidence(count int, amounts []int64, days []int) float64 {
	countScore := float64(count) / countSaturation
	if countScore > 1 {
		countScore = 1
	}

	// Amount stability: relative mean absolute deviation. Identical
	// amounts score 1; 25% average drift scores 0.
	mean := float64(meanCents(amounts))
	amountScore := 1.0
	if mean > 0 {
		var dev float64
		for _, a := range amounts {
			dev += abs(float64(a) - mean)
		}
		dev /= float64(len(amounts)) * mean
		amountScore = 1 - dev*4
		if amountScore < 0 {
			amountScore = 0
		}
	}

	// Day stability: mean absolute deviation from the median day, scaled
	// so a week of average drift scores 0.
	median := float64(medianDay(days))
	var dayDev float64
	for _, d := range days {
		dayDev += abs(float64(d) - median)
	}
	dayDev /= float64(len(days))
	dayScore := 1 - dayDev/7
	if dayScore < 0 {
		dayScore = 0
	}

	score := countWeight*countScore + amountWeight*amountScore + dayWeight*dayScore
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func meanCents(amounts []int64) int64 {
	var sum int64
	for _, a := range amounts {
		sum += a
	}
	n := int64(len(amounts))
	// Half-up on the integer division.
	return (sum + n/2) / n
}

func medianDay(days []int) int {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid] + 1) / 2
}

// displayName tidies a raw description for presentation, the way the rest
// of the charge record keeps detector-owned fields fresh per scan.
func displayName(description string) string {
	fields := strings.Fields(strings.TrimSpace(description))
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
