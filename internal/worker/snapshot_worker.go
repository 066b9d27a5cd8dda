// Package worker recomputes fixed-cost snapshots in the background. It
// listens for import-completed messages and additionally refreshes on a
// timer so the snapshot cannot go stale when no imports happen.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"haushalt/internal/amqp"
	"haushalt/internal/core"
	"haushalt/internal/fixedcosts"
	"haushalt/internal/store"
)

// SnapshotStore is the slice of the store the worker needs.
type SnapshotStore interface {
	store.TransactionReader
	store.SnapshotWriter
}

// SnapshotWorker recomputes the fixed-cost analysis over the rolling window
// and persists the aggregate.
type SnapshotWorker struct {
	store        SnapshotStore
	detector     *fixedcosts.Detector
	windowMonths int
	now          func() time.Time
}

func NewSnapshotWorker(st SnapshotStore, detector *fixedcosts.Detector, windowMonths int) *SnapshotWorker {
	if windowMonths < 1 {
		windowMonths = fixedcosts.DefaultWindowMonths
	}
	return &SnapshotWorker{
		store:        st,
		detector:     detector,
		windowMonths: windowMonths,
		now:          time.Now,
	}
}

// HandleImportCompleted processes a single import-completed message from
// AMQP. The message only triggers the refresh; the data of record is
// whatever the store holds now.
func (w *SnapshotWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	slog.InfoContext(ctx, "Processing import completed message",
		"session_id", msg.SessionID,
		"count", msg.Count)

	return w.Refresh(ctx)
}

// Refresh runs the detector over the rolling window and saves a snapshot.
func (w *SnapshotWorker) Refresh(ctx context.Context) error {
	now := w.now()
	from := core.Date{Time: now}.MonthsAgo(w.windowMonths)

	txs, err := w.store.ListExpensesSince(ctx, from)
	if err != nil {
		return fmt.Errorf("list expenses since %s: %w", from.ISO(), err)
	}

	analysis := w.detector.Detect(txs, w.windowMonths)

	snap := store.FixedCostSnapshot{
		ID:               uuid.NewString(),
		GeneratedAt:      now,
		WindowMonths:     analysis.WindowMonths,
		ItemCount:        len(analysis.Items),
		CancellableCount: analysis.CancellableCount,
		TotalFixed:       analysis.TotalFixed,
		TotalCancellable: analysis.TotalCancellable,
		TotalVariable:    analysis.TotalVariable,
	}

	if err := w.store.SaveFixedCostSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save fixed cost snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Saved fixed cost snapshot",
		"snapshot_id", snap.ID,
		"window_months", snap.WindowMonths,
		"item_count", snap.ItemCount,
		"cancellable_count", snap.CancellableCount,
		"total_fixed", snap.TotalFixed.StringFixed(2))

	return nil
}

// RunPeriodic refreshes the snapshot on a fixed interval until the context
// is cancelled. One refresh runs immediately on startup.
func (w *SnapshotWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if err := w.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial snapshot refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic snapshot refresh", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot refresh failed", "error", err)
			}
		}
	}
}
