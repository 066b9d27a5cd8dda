// Package ingest drives one end-to-end import: decode, normalise, classify,
// preview, commit. A session is ephemeral; it lives from file drop until
// commit or cancel.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"haushalt/internal/bankcsv"
	"haushalt/internal/classify"
	"haushalt/internal/core"
	"haushalt/internal/store"
)

type Phase string

const (
	PhaseEmpty      Phase = "empty"
	PhasePreviewing Phase = "previewing"
	PhaseImporting  Phase = "importing"
	PhaseImported   Phase = "imported"
	PhaseFailed     Phase = "failed"
)

// BatchSize is the fixed number of rows per persisted batch.
const BatchSize = 50

var (
	ErrWrongPhase   = errors.New("operation not allowed in current phase")
	ErrRowIndex     = errors.New("row index out of range")
	ErrNoCategories = errors.New("load categories")
)

// Summary is the read-only preview aggregate shown before commit.
type Summary struct {
	TotalCount    int
	IncomeCount   int
	ExpenseCount  int
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Categorised   int
}

// Session owns the parsed transactions and the user-editable category
// assignments until commit. Transitions are the only way state changes.
type Session struct {
	mu sync.Mutex

	id          string
	phase       Phase
	parsed      []core.ParsedTransaction
	assignments map[int]string // row index -> category id, overrides the guess
	categories  []core.Category
	warnings    []string
	imported    int

	rulebook  *classify.Rulebook
	catReader store.CategoryReader
	writer    store.TransactionWriter
	now       func() time.Time
}

func NewSession(categories store.CategoryReader, writer store.TransactionWriter, rulebook *classify.Rulebook) *Session {
	return &Session{
		id:          uuid.NewString(),
		phase:       PhaseEmpty,
		assignments: make(map[int]string),
		rulebook:    rulebook,
		catReader:   categories,
		writer:      writer,
		now:         time.Now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Start ingests the dropped file: decode, normalise, classify, preview.
// The category list is snapshotted here; later table changes are not
// reflected mid-preview. On any error the session stays (or returns to)
// empty.
func (s *Session) Start(ctx context.Context, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()

	cats, err := s.catReader.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoCategories, err)
	}

	rows, warnings, err := bankcsv.Decode(r)
	if err != nil {
		return fmt.Errorf("keine Transaktionen in der CSV-Datei gefunden: %w", err)
	}

	parsed := bankcsv.NormaliseAll(rows)
	if len(parsed) == 0 {
		return fmt.Errorf("keine Transaktionen in der CSV-Datei gefunden: %w", bankcsv.ErrNoRows)
	}

	byName := make(map[string]string, len(cats))
	for _, c := range cats {
		byName[c.Name] = c.ID
	}

	assignments := make(map[int]string)
	for i, tx := range parsed {
		name, ok := s.rulebook.Guess(tx.Description, tx.Recipient, tx.Amount)
		if !ok {
			continue
		}
		// A guess naming an unknown category leaves the slot empty.
		if id, ok := byName[name]; ok {
			assignments[i] = id
		}
	}

	s.categories = cats
	s.parsed = parsed
	s.assignments = assignments
	s.warnings = warnings
	s.phase = PhasePreviewing

	slog.InfoContext(ctx, "Import preview ready",
		"session", s.id,
		"rows", len(parsed),
		"categorised", len(assignments),
		"warnings", len(warnings))
	return nil
}

// Assign sets the category for one preview row. An empty id clears the
// assignment. Edits never mutate the parsed transactions.
func (s *Session) Assign(index int, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePreviewing {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	if index < 0 || index >= len(s.parsed) {
		return fmt.Errorf("%w: %d", ErrRowIndex, index)
	}
	if categoryID == "" {
		delete(s.assignments, index)
	} else {
		s.assignments[index] = categoryID
	}
	return nil
}

// Commit persists the parsed rows in order, in sequential batches of
// BatchSize. The first failed batch moves the session to failed and stops;
// already persisted batches are not rolled back. A failed session keeps its
// rows so Commit may be called again.
func (s *Session) Commit(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePreviewing && s.phase != PhaseFailed {
		return 0, fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	s.phase = PhaseImporting

	now := s.now()
	records := make([]core.TransactionRecord, len(s.parsed))
	for i, tx := range s.parsed {
		records[i] = tx.Record(uuid.NewString(), s.assignments[i], now)
	}

	total := 0
	for start := 0; start < len(records); start += BatchSize {
		end := start + BatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.writer.AppendTransactions(ctx, records[start:end]); err != nil {
			s.phase = PhaseFailed
			s.imported += total
			s.dropPersisted(total)
			slog.ErrorContext(ctx, "Import batch failed",
				"session", s.id,
				"persisted", total,
				"error", err)
			return total, err
		}
		total += end - start
	}

	s.imported += total
	s.parsed = nil
	s.assignments = make(map[int]string)
	s.phase = PhaseImported

	slog.InfoContext(ctx, "Import committed", "session", s.id, "rows", total)
	return total, nil
}

// Cancel discards the preview and returns to empty. Cancelling while a
// commit is running is not supported.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePreviewing && s.phase != PhaseFailed {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	s.reset()
	return nil
}

// dropPersisted removes the first n rows after a partial commit so a retry
// only re-sends what is still outstanding. Assignment indices shift along.
func (s *Session) dropPersisted(n int) {
	if n == 0 {
		return
	}
	s.parsed = append([]core.ParsedTransaction(nil), s.parsed[n:]...)
	shifted := make(map[int]string, len(s.assignments))
	for i, id := range s.assignments {
		if i >= n {
			shifted[i-n] = id
		}
	}
	s.assignments = shifted
}

func (s *Session) reset() {
	s.phase = PhaseEmpty
	s.parsed = nil
	s.assignments = make(map[int]string)
	s.categories = nil
	s.warnings = nil
	s.imported = 0
}

// Parsed returns a copy of the preview rows.
func (s *Session) Parsed() []core.ParsedTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ParsedTransaction(nil), s.parsed...)
}

// Assignments returns a copy of the index -> category id overrides.
func (s *Session) Assignments() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.assignments))
	for k, v := range s.assignments {
		out[k] = v
	}
	return out
}

// Categories returns the snapshot captured at Start.
func (s *Session) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

// Warnings returns non-fatal decoder warnings from the last Start.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// ImportedCount reports the rows persisted by this file's commits,
// including batches that landed before a mid-commit failure.
func (s *Session) ImportedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imported
}

// Summarise aggregates the preview for display.
func (s *Session) Summarise() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{TotalCount: len(s.parsed), Categorised: len(s.assignments)}
	for _, tx := range s.parsed {
		if tx.IsIncome {
			sum.IncomeCount++
			sum.TotalIncome = sum.TotalIncome.Add(tx.Amount)
		} else {
			sum.ExpenseCount++
			sum.TotalExpenses = sum.TotalExpenses.Add(tx.Amount)
		}
	}
	return sum
}
