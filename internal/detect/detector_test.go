package detect

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func expense(desc string, cents int64, year int, month time.Month, day int) core.Transaction {
	return core.Transaction{
		AmountCents: cents,
		Type:        core.Expense,
		Description: desc,
		OccurredAt:  time.Date(year, month, day, 9, 0, 0, 0, time.UTC),
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases and trims", in: "  Netflix ", want: "netflix"},
		{name: "collapses punctuation", in: "NETFLIX.COM", want: "netflix com"},
		{name: "drops reference numbers", in: "Spotify #884121", want: "spotify"},
		{name: "collapses internal whitespace", in: "gym   membership", want: "gym membership"},
		{name: "pure numbers keep a key", in: "4211 9984", want: "4211 9984"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchKey(tt.in); got != tt.want {
				t.Errorf("MatchKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchKeyGroupsVariants(t *testing.T) {
	variants := []string{"Netflix", "netflix ", "NETFLIX.COM #12"}
	want := MatchKey(variants[0])
	for _, v := range variants[1:] {
		if got := MatchKey(v); got != want {
			t.Errorf("MatchKey(%q) = %q, want same key as %q (%q)", v, got, variants[0], want)
		}
	}
}

func TestScanDetectsMonthlyCharge(t *testing.T) {
	txs := []core.Transaction{
		expense("Netflix", 1500, 2026, time.January, 10),
		expense("Netflix", 1500, 2026, time.February, 12),
		expense("Netflix", 1500, 2026, time.March, 11),
	}

	candidates := Scan(txs)
	if len(candidates) != 1 {
		t.Fatalf("Scan() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Name != "Netflix" {
		t.Errorf("Name = %q, want Netflix", c.Name)
	}
	if c.AmountCents != 1500 {
		t.Errorf("AmountCents = %d, want 1500", c.AmountCents)
	}
	if c.DetectedDay != 11 {
		t.Errorf("DetectedDay = %d, want 11", c.DetectedDay)
	}
	if c.Confidence <= 0.7 {
		t.Errorf("Confidence = %v, want > 0.7 for a low-variance pattern", c.Confidence)
	}
	if c.LastChargedAt.Month() != time.March {
		t.Errorf("LastChargedAt = %v, want the March charge", c.LastChargedAt)
	}
}

func TestScanIgnoresSingleOccurrence(t *testing.T) {
	txs := []core.Transaction{
		expense("Dentist", 12000, 2026, time.January, 5),
	}
	if got := Scan(txs); len(got) != 0 {
		t.Errorf("Scan() = %+v, want no candidates for a one-off", got)
	}
}

func TestScanIgnoresNonMonthlyCadence(t *testing.T) {
	// Two coffees a week apart are frequent, not monthly.
	txs := []core.Transaction{
		expense("Coffee", 450, 2026, time.January, 3),
		expense("Coffee", 450, 2026, time.January, 10),
		expense("Coffee", 450, 2026, time.January, 17),
	}
	if got := Scan(txs); len(got) != 0 {
		t.Errorf("Scan() = %+v, want weekly cadence rejected", got)
	}
}

func TestScanIgnoresIncome(t *testing.T) {
	salary := core.Transaction{
		AmountCents: 250000,
		Type:        core.Income,
		Description: "Salary",
	}
	txs := []core.Transaction{salary, salary, salary}
	if got := Scan(txs); len(got) != 0 {
		t.Errorf("Scan() = %+v, want income excluded", got)
	}
}

func TestScanAveragesDriftingAmounts(t *testing.T) {
	txs := []core.Transaction{
		expense("Electric Co", 8000, 2026, time.January, 20),
		expense("Electric Co", 9000, 2026, time.February, 20),
	}

	candidates := Scan(txs)
	if len(candidates) != 1 {
		t.Fatalf("Scan() returned %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.AmountCents != 8500 {
		t.Errorf("AmountCents = %d, want mean 8500", c.AmountCents)
	}
	// Drifting amount and a small group: plausible but weaker than a
	// fixed-price subscription.
	fixed := Scan([]core.Transaction{
		expense("Netflix", 1500, 2026, time.January, 10),
		expense("Netflix", 1500, 2026, time.February, 10),
	})
	if len(fixed) != 1 {
		t.Fatalf("fixed-price scan returned %d candidates, want 1", len(fixed))
	}
	if c.Confidence >= fixed[0].Confidence {
		t.Errorf("drifting amount confidence %v should be below fixed-price %v",
			c.Confidence, fixed[0].Confidence)
	}
}

func TestScanSeparatesDistinctMerchants(t *testing.T) {
	txs := []core.Transaction{
		expense("Netflix", 1500, 2026, time.January, 10),
		expense("Netflix", 1500, 2026, time.February, 10),
		expense("Spotify", 999, 2026, time.January, 3),
		expense("Spotify", 999, 2026, time.February, 2),
	}

	candidates := Scan(txs)
	if len(candidates) != 2 {
		t.Fatalf("Scan() returned %d candidates, want 2", len(candidates))
	}
	// Sorted by match key: netflix before spotify.
	if candidates[0].MatchKey != "netflix" || candidates[1].MatchKey != "spotify" {
		t.Errorf("candidates = %+v, want netflix then spotify", candidates)
	}
}
