// Package summary computes monthly overviews over the cleaned dataset. It
// is a pure projection; callers feed it one month of transactions plus the
// category list.
package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"haushalt/internal/core"
)

// CategorySpend is one category's expense total for the month, next to its
// configured budget. Uncategorised spend appears with a zero-value Category.
type CategorySpend struct {
	Category core.Category
	Total    decimal.Decimal
}

// Remaining is the budget left this month; negative when overspent.
func (cs CategorySpend) Remaining() decimal.Decimal {
	return cs.Category.MonthlyBudget.Sub(cs.Total)
}

type MonthOverview struct {
	Year       int
	Month      time.Month
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	Balance    decimal.Decimal
	TxCount    int
	ByCategory []CategorySpend // expenses only, total descending
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year int, month time.Month) (core.Date, core.Date) {
	first := core.NewDate(year, int(month), 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// Overview aggregates one month of transactions.
func Overview(year int, month time.Month, txs []core.ParsedTransaction, cats []core.Category) MonthOverview {
	ov := MonthOverview{Year: year, Month: month, TxCount: len(txs)}

	byID := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range txs {
		if tx.IsIncome {
			ov.Income = ov.Income.Add(tx.Amount)
			continue
		}
		ov.Expenses = ov.Expenses.Add(tx.Amount)
		if _, ok := totals[tx.CategoryID]; !ok {
			order = append(order, tx.CategoryID)
		}
		totals[tx.CategoryID] = totals[tx.CategoryID].Add(tx.Amount)
	}
	ov.Balance = ov.Income.Sub(ov.Expenses)

	for _, id := range order {
		ov.ByCategory = append(ov.ByCategory, CategorySpend{
			Category: byID[id],
			Total:    totals[id],
		})
	}
	sort.SliceStable(ov.ByCategory, func(i, j int) bool {
		return ov.ByCategory[i].Total.GreaterThan(ov.ByCategory[j].Total)
	})

	return ov
}
