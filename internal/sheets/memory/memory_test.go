package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func TestAppendReport(t *testing.T) {
	s := New()

	report := core.PeriodReport{
		ID:     1,
		UserID: 7,
		Period: "2026-08",
		Lines: []core.CategoryLeftover{
			{CategoryID: 1, CategoryName: "Groceries", LeftoverCents: 2000},
		},
	}

	ref, err := s.AppendReport(context.Background(), report)
	if err != nil {
		t.Fatalf("AppendReport() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("AppendReport() ref = %q, want mem:1", ref)
	}

	got := s.Reports()
	if len(got) != 1 {
		t.Fatalf("Reports() len = %d, want 1", len(got))
	}
	if got[0].Period != "2026-08" {
		t.Errorf("stored period = %q, want 2026-08", got[0].Period)
	}
}
