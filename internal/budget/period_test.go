package budget

import (
	"testing"

	"bilancio/internal/core"
)

func TestCloseDeltas(t *testing.T) {
	tests := []struct {
		name     string
		category core.BudgetCategory
		want     int64
	}{
		{
			name:     "unspent balance carries forward",
			category: core.BudgetCategory{ID: 1, Name: "Food", LimitCents: 50000, SpentCents: 30000},
			want:     20000,
		},
		{
			name:     "overspend never produces a negative leftover",
			category: core.BudgetCategory{ID: 2, Name: "Fun", LimitCents: 10000, SpentCents: 15000},
			want:     0,
		},
		{
			name:     "existing rollover counts toward the leftover",
			category: core.BudgetCategory{ID: 3, Name: "Transit", LimitCents: 10000, RolloverCents: 5000, SpentCents: 12000},
			want:     3000,
		},
		{
			name:     "untouched category banks its whole allowance",
			category: core.BudgetCategory{ID: 4, Name: "Gifts", LimitCents: 2500},
			want:     2500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deltas := CloseDeltas([]core.BudgetCategory{tt.category})
			if len(deltas) != 1 {
				t.Fatalf("CloseDeltas() returned %d deltas, want 1", len(deltas))
			}
			if deltas[0].LeftoverCents != tt.want {
				t.Errorf("leftover = %d, want %d", deltas[0].LeftoverCents, tt.want)
			}
			if deltas[0].CategoryID != tt.category.ID {
				t.Errorf("category id = %d, want %d", deltas[0].CategoryID, tt.category.ID)
			}
		})
	}
}

func TestCloseDeltasKeepsCategoryOrder(t *testing.T) {
	categories := []core.BudgetCategory{
		{ID: 5, Name: "A", LimitCents: 100},
		{ID: 2, Name: "B", LimitCents: 200},
	}
	deltas := CloseDeltas(categories)
	if len(deltas) != 2 || deltas[0].CategoryID != 5 || deltas[1].CategoryID != 2 {
		t.Errorf("CloseDeltas() = %+v, want input order preserved", deltas)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		spent      int64
		effective  int64
		wantPct    float64
		wantStatus Status
	}{
		{name: "well under limit", spent: 30000, effective: 50000, wantPct: 60, wantStatus: StatusNormal},
		{name: "at warning threshold", spent: 8500, effective: 10000, wantPct: 85, wantStatus: StatusWarning},
		{name: "just under warning", spent: 8499, effective: 10000, wantPct: 84.99, wantStatus: StatusNormal},
		{name: "at limit is critical", spent: 10000, effective: 10000, wantPct: 100, wantStatus: StatusCritical},
		{name: "over limit is critical", spent: 12000, effective: 10000, wantPct: 120, wantStatus: StatusCritical},
		{name: "zero limit zero spend", spent: 0, effective: 0, wantPct: 0, wantStatus: StatusNormal},
		{name: "zero limit with spend stays defined", spent: 500, effective: 0, wantPct: 0, wantStatus: StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, status := Classify(tt.spent, tt.effective)
			if pct != tt.wantPct {
				t.Errorf("Classify() pct = %v, want %v", pct, tt.wantPct)
			}
			if status != tt.wantStatus {
				t.Errorf("Classify() status = %v, want %v", status, tt.wantStatus)
			}
		})
	}
}
