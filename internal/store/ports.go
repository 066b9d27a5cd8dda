// Package store defines the outbound ports to the persistent table store.
// The ingestion core only ever sees these interfaces; adapters live in the
// subpackages.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"haushalt/internal/core"
)

type (
	// CategoryReader returns the category list ordered by sort order. The
	// session captures this once at start; late additions are not
	// reflected mid-preview.
	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// TransactionWriter appends one batch of rows. Writes are append-only;
	// a failed batch leaves previously written batches in place.
	TransactionWriter interface {
		AppendTransactions(ctx context.Context, batch []core.TransactionRecord) error
	}

	// TransactionReader serves the detector's rolling window: expense
	// transactions on or after from, date descending.
	TransactionReader interface {
		ListExpensesSince(ctx context.Context, from core.Date) ([]core.ParsedTransaction, error)
	}

	// TransactionLister returns all transactions with from <= date <= to,
	// date descending. The monthly summary reads through this.
	TransactionLister interface {
		ListTransactions(ctx context.Context, from, to core.Date) ([]core.ParsedTransaction, error)
	}

	// SnapshotWriter stores the result of a fixed-cost detector run.
	SnapshotWriter interface {
		SaveFixedCostSnapshot(ctx context.Context, snap FixedCostSnapshot) error
	}

	// SavingsGoalReader returns the savings goals, nearest deadline first.
	SavingsGoalReader interface {
		ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error)
	}
)

// FixedCostSnapshot is the persisted aggregate of one detector run.
type FixedCostSnapshot struct {
	ID               string
	GeneratedAt      time.Time
	WindowMonths     int
	ItemCount        int
	CancellableCount int
	TotalFixed       decimal.Decimal
	TotalCancellable decimal.Decimal
	TotalVariable    decimal.Decimal
}
