// Package memory is the in-memory store adapter, used by tests and as the
// default backend when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"haushalt/internal/core"
	"haushalt/internal/store"
)

type Store struct {
	mu         sync.Mutex
	categories []core.Category
	rows       []core.TransactionRecord
	snapshots  []store.FixedCostSnapshot
	goals      []core.SavingsGoal

	// FailBatches marks batch ordinals (0-based) whose append should fail.
	// Tests use it to exercise partial-commit semantics.
	FailBatches map[int]error
	batchSizes  []int
}

func New(categories []core.Category) *Store {
	sorted := append([]core.Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	return &Store{categories: sorted}
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) AppendTransactions(_ context.Context, batch []core.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordinal := len(s.batchSizes)
	s.batchSizes = append(s.batchSizes, len(batch))
	if err, ok := s.FailBatches[ordinal]; ok {
		return err
	}

	s.rows = append(s.rows, batch...)
	return nil
}

// BatchSizes returns the size of every attempted batch in call order.
func (s *Store) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batchSizes...)
}

func (s *Store) ListExpensesSince(_ context.Context, from core.Date) ([]core.ParsedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Whole-day comparison, matching the sqlite adapter's date column.
	from = from.StartOfDay()

	var out []core.ParsedTransaction
	for _, r := range s.rows {
		if r.IsIncome || r.Date.Before(from) {
			continue
		}
		out = append(out, core.ParsedTransaction{
			Date:        r.Date,
			Amount:      r.Amount,
			IsIncome:    r.IsIncome,
			Description: r.Description,
			Recipient:   r.Recipient,
			CategoryID:  r.CategoryID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, from, to core.Date) ([]core.ParsedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = from.StartOfDay()
	to = to.StartOfDay()

	var out []core.ParsedTransaction
	for _, r := range s.rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, core.ParsedTransaction{
			Date:        r.Date,
			Amount:      r.Amount,
			IsIncome:    r.IsIncome,
			Description: r.Description,
			Recipient:   r.Recipient,
			CategoryID:  r.CategoryID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListSavingsGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.SavingsGoal(nil), s.goals...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out, nil
}

// SetSavingsGoals replaces the goal list. Tests seed through this.
func (s *Store) SetSavingsGoals(goals []core.SavingsGoal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append([]core.SavingsGoal(nil), goals...)
}

func (s *Store) SaveFixedCostSnapshot(_ context.Context, snap store.FixedCostSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

// Rows returns a copy of everything appended so far, in append order.
func (s *Store) Rows() []core.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TransactionRecord(nil), s.rows...)
}

// Snapshots returns the saved snapshots in save order.
func (s *Store) Snapshots() []store.FixedCostSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.FixedCostSnapshot(nil), s.snapshots...)
}
