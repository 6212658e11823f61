package memory

import (
	"context"
	"fmt"
	"sync"

	"bilancio/internal/core"
)

// Store is an in-memory report sink for tests and local runs without
// spreadsheet credentials.
type Store struct {
	mu    sync.Mutex
	items []core.PeriodReport
}

func New() *Store {
	return &Store{}
}

// AppendReport stores the report and returns a synthetic row reference.
func (s *Store) AppendReport(_ context.Context, report core.PeriodReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, report)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Reports returns a copy of everything appended so far.
func (s *Store) Reports() []core.PeriodReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PeriodReport(nil), s.items...)
}
