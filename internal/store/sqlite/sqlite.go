// Package sqlite is the SQLite adapter for the store ports. Amounts are
// stored as decimal strings so no precision is lost in transit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"haushalt/internal/core"
	"haushalt/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListCategories implements store.CategoryReader.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, color, monthly_budget, type, sort_order
		 FROM categories ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var budget, typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &budget, &typ, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.MonthlyBudget, err = decimal.NewFromString(budget)
		if err != nil {
			return nil, fmt.Errorf("category %s: parse budget %q: %w", c.ID, budget, err)
		}
		c.Type = core.CategoryType(typ)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// AppendTransactions implements store.TransactionWriter. The batch is
// written in one transaction so a failed batch leaves no partial rows.
func (r *Repository) AppendTransactions(ctx context.Context, batch []core.TransactionRecord) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, date, amount, description, recipient, is_income, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		var categoryID any
		if rec.CategoryID != "" {
			categoryID = rec.CategoryID
		}
		_, err := stmt.ExecContext(ctx,
			rec.ID, rec.Date.ISO(), rec.Amount.String(), rec.Description,
			rec.Recipient, rec.IsIncome, categoryID, rec.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch persisted", "rows", len(batch))
	return nil
}

// ListExpensesSince implements store.TransactionReader.
func (r *Repository) ListExpensesSince(ctx context.Context, from core.Date) ([]core.ParsedTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount, description, recipient, COALESCE(category_id, '')
		 FROM transactions
		 WHERE is_income = 0 AND date >= ?
		 ORDER BY date DESC`, from.ISO())
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ParsedTransaction
	for rows.Next() {
		var tx core.ParsedTransaction
		var date, amount string
		if err := rows.Scan(&date, &amount, &tx.Description, &tx.Recipient, &tx.CategoryID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		tx.Date, err = core.ParseISODate(date)
		if err != nil {
			return nil, fmt.Errorf("expense date %q: %w", date, err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("expense amount %q: %w", amount, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ListTransactions implements store.TransactionLister.
func (r *Repository) ListTransactions(ctx context.Context, from, to core.Date) ([]core.ParsedTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount, is_income, description, recipient, COALESCE(category_id, '')
		 FROM transactions
		 WHERE date >= ? AND date <= ?
		 ORDER BY date DESC`, from.ISO(), to.ISO())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.ParsedTransaction
	for rows.Next() {
		var tx core.ParsedTransaction
		var date, amount string
		if err := rows.Scan(&date, &amount, &tx.IsIncome, &tx.Description, &tx.Recipient, &tx.CategoryID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = core.ParseISODate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction date %q: %w", date, err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction amount %q: %w", amount, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ListSavingsGoals implements store.SavingsGoalReader.
func (r *Repository) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_amount, current_amount, COALESCE(deadline, '')
		 FROM savings_goals
		 ORDER BY deadline IS NULL, deadline ASC`)
	if err != nil {
		return nil, fmt.Errorf("query savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		var g core.SavingsGoal
		var target, current, deadline string
		if err := rows.Scan(&g.ID, &g.Name, &target, &current, &deadline); err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		g.TargetAmount, err = decimal.NewFromString(target)
		if err != nil {
			return nil, fmt.Errorf("goal target %q: %w", target, err)
		}
		g.CurrentAmount, err = decimal.NewFromString(current)
		if err != nil {
			return nil, fmt.Errorf("goal current %q: %w", current, err)
		}
		if deadline != "" {
			g.Deadline, err = core.ParseISODate(deadline)
			if err != nil {
				return nil, fmt.Errorf("goal deadline %q: %w", deadline, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveFixedCostSnapshot implements store.SnapshotWriter.
func (r *Repository) SaveFixedCostSnapshot(ctx context.Context, snap store.FixedCostSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_cost_snapshots
		 (id, generated_at, window_months, item_count, cancellable_count, total_fixed, total_cancellable, total_variable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.GeneratedAt.UTC().Format(time.RFC3339), snap.WindowMonths,
		snap.ItemCount, snap.CancellableCount,
		snap.TotalFixed.String(), snap.TotalCancellable.String(), snap.TotalVariable.String())
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Fixed-cost snapshot saved",
		"id", snap.ID,
		"items", snap.ItemCount,
		"total_fixed", snap.TotalFixed.String())
	return nil
}
