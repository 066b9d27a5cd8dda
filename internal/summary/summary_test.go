package summary_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haushalt/internal/core"
	"haushalt/internal/summary"
)

func tx(day int, amount string, income bool, categoryID string) core.ParsedTransaction {
	return core.ParsedTransaction{
		Date:       core.NewDate(2026, 3, day),
		Amount:     decimal.RequireFromString(amount),
		IsIncome:   income,
		CategoryID: categoryID,
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name        string
		year        int
		month       time.Month
		first, last string
	}{
		{"march", 2026, time.March, "2026-03-01", "2026-03-31"},
		{"february leap", 2024, time.February, "2024-02-01", "2024-02-29"},
		{"february non-leap", 2026, time.February, "2026-02-01", "2026-02-28"},
		{"december", 2025, time.December, "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := summary.MonthRange(tt.year, tt.month)
			assert.Equal(t, tt.first, first.ISO())
			assert.Equal(t, tt.last, last.ISO())
		})
	}
}

func TestOverviewTotals(t *testing.T) {
	cats := []core.Category{
		{ID: "cat-food", Name: "Lebensmittel", MonthlyBudget: decimal.RequireFromString("400")},
		{ID: "cat-rent", Name: "Miete", MonthlyBudget: decimal.RequireFromString("900")},
	}
	txs := []core.ParsedTransaction{
		tx(1, "2500.00", true, ""),
		tx(1, "850.00", false, "cat-rent"),
		tx(5, "54.30", false, "cat-food"),
		tx(12, "31.70", false, "cat-food"),
		tx(20, "19.99", false, ""),
	}

	ov := summary.Overview(2026, time.March, txs, cats)

	assert.Equal(t, 2026, ov.Year)
	assert.Equal(t, time.March, ov.Month)
	assert.Equal(t, 5, ov.TxCount)
	assert.True(t, ov.Income.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, ov.Expenses.Equal(decimal.RequireFromString("955.99")))
	assert.True(t, ov.Balance.Equal(decimal.RequireFromString("1544.01")))

	require.Len(t, ov.ByCategory, 3)
	assert.Equal(t, "Miete", ov.ByCategory[0].Category.Name)
	assert.True(t, ov.ByCategory[0].Total.Equal(decimal.RequireFromString("850.00")))
	assert.Equal(t, "Lebensmittel", ov.ByCategory[1].Category.Name)
	assert.True(t, ov.ByCategory[1].Total.Equal(decimal.RequireFromString("86.00")))

	// Uncategorised spend appears under a zero-value category.
	assert.Empty(t, ov.ByCategory[2].Category.ID)
	assert.True(t, ov.ByCategory[2].Total.Equal(decimal.RequireFromString("19.99")))
}

func TestOverviewIncomeExcludedFromBreakdown(t *testing.T) {
	cats := []core.Category{{ID: "cat-salary", Name: "Gehalt"}}
	txs := []core.ParsedTransaction{
		tx(1, "2500.00", true, "cat-salary"),
	}

	ov := summary.Overview(2026, time.March, txs, cats)

	assert.Empty(t, ov.ByCategory)
	assert.True(t, ov.Income.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, ov.Expenses.IsZero())
}

func TestOverviewEmptyMonth(t *testing.T) {
	ov := summary.Overview(2026, time.March, nil, nil)

	assert.Zero(t, ov.TxCount)
	assert.True(t, ov.Income.IsZero())
	assert.True(t, ov.Expenses.IsZero())
	assert.True(t, ov.Balance.IsZero())
	assert.Empty(t, ov.ByCategory)
}

func TestCategorySpendRemaining(t *testing.T) {
	cs := summary.CategorySpend{
		Category: core.Category{MonthlyBudget: decimal.RequireFromString("400")},
		Total:    decimal.RequireFromString("455.50"),
	}
	assert.True(t, cs.Remaining().Equal(decimal.RequireFromString("-55.50")))
}
