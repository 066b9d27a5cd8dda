package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haushalt/internal/core"
)

func record(date core.Date, amount string, isIncome bool) core.TransactionRecord {
	return core.TransactionRecord{
		ID:        date.ISO() + amount,
		Date:      date,
		Amount:    decimal.RequireFromString(amount),
		IsIncome:  isIncome,
		Recipient: "REWE",
		CreatedAt: time.Now(),
	}
}

// The window anchor is often built straight from the wall clock. Rows booked
// on the anchor day must be inside the window, as they are for the sqlite
// adapter's date-column comparison.
func TestListExpensesSinceIncludesAnchorDay(t *testing.T) {
	st := New(nil)
	require.NoError(t, st.AppendTransactions(context.Background(),
		[]core.TransactionRecord{
			record(core.NewDate(2024, 2, 10), "12.99", false),
			record(core.NewDate(2024, 2, 9), "7.40", false),
			record(core.NewDate(2024, 2, 11), "2450.00", true),
		}))

	from := core.Date{Time: time.Date(2024, 2, 10, 15, 4, 5, 0, time.UTC)}
	out, err := st.ListExpensesSince(context.Background(), from)
	require.NoError(t, err)

	require.Len(t, out, 1, "anchor-day expense in, earlier row and income out")
	assert.Equal(t, "2024-02-10", out[0].Date.ISO())
}

func TestListTransactionsWholeDayBounds(t *testing.T) {
	st := New(nil)
	require.NoError(t, st.AppendTransactions(context.Background(),
		[]core.TransactionRecord{
			record(core.NewDate(2024, 3, 1), "10.00", false),
			record(core.NewDate(2024, 3, 31), "20.00", false),
			record(core.NewDate(2024, 4, 1), "30.00", false),
		}))

	from := core.Date{Time: time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)}
	to := core.Date{Time: time.Date(2024, 3, 31, 0, 0, 1, 0, time.UTC)}
	out, err := st.ListTransactions(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "2024-03-31", out[0].Date.ISO(), "date descending")
	assert.Equal(t, "2024-03-01", out[1].Date.ISO())
}
