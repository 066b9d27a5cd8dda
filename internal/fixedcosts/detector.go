// Package fixedcosts detects recurring ("fixed") costs in a rolling window
// of classified expense transactions. Two orthogonal signals decide
// recurrence: keyword hits on the payee key catch known subscriptions
// regardless of sample count, and amount stability catches subscription-like
// patterns with unfamiliar payee names.
package fixedcosts

import (
	"sort"

	"github.com/shopspring/decimal"

	"haushalt/internal/core"
)

// DefaultWindowMonths is the rolling window the detector is normally fed.
const DefaultWindowMonths = 3

// amountTolerance is the relative deviation from the group mean below
// which amounts count as similar. Strict: exactly 15% is not similar.
var amountTolerance = decimal.RequireFromString("0.15")

// Item is one detected recurring cost.
type Item struct {
	DisplayName   string
	Amount        decimal.Decimal // most recent occurrence, projected per month
	CategoryID    string
	IsCancellable bool
	Members       []core.ParsedTransaction // date descending
}

// CategoryTotal is the fixed spend attributed to one category.
type CategoryTotal struct {
	CategoryID string
	Total      decimal.Decimal
}

// Analysis is the aggregate view over one detector run.
type Analysis struct {
	Items            []Item // sorted by Amount descending
	TotalFixed       decimal.Decimal
	TotalCancellable decimal.Decimal
	TotalVariable    decimal.Decimal // non-recurring spend averaged over the window
	CancellableCount int
	WindowMonths     int
	ByCategory       []CategoryTotal // sorted by Total descending
}

type Detector struct {
	keywords Keywords
}

func NewDetector(keywords Keywords) *Detector {
	return &Detector{keywords: keywords}
}

// Detect partitions the transactions by payee key and classifies each group
// as recurring or variable. Input should already be restricted to expenses
// from the last windowMonths months; the window length only scales the
// variable average (the divisor is deliberately the parameter, not a
// hard-coded three).
func (d *Detector) Detect(txs []core.ParsedTransaction, windowMonths int) Analysis {
	if windowMonths < 1 {
		windowMonths = DefaultWindowMonths
	}

	keys, groups := groupByPayee(txs)

	analysis := Analysis{WindowMonths: windowMonths}
	var variableSum decimal.Decimal

	for _, key := range keys {
		members := groups[key]
		if !d.isRecurring(key, members) {
			for _, m := range members {
				variableSum = variableSum.Add(m.Amount)
			}
			continue
		}
		analysis.Items = append(analysis.Items, d.buildItem(key, members))
	}

	sort.SliceStable(analysis.Items, func(i, j int) bool {
		return analysis.Items[i].Amount.GreaterThan(analysis.Items[j].Amount)
	})

	for _, item := range analysis.Items {
		analysis.TotalFixed = analysis.TotalFixed.Add(item.Amount)
		if item.IsCancellable {
			analysis.TotalCancellable = analysis.TotalCancellable.Add(item.Amount)
			analysis.CancellableCount++
		}
	}
	analysis.TotalVariable = variableSum.Div(decimal.NewFromInt(int64(windowMonths)))
	analysis.ByCategory = categoryBreakdown(analysis.Items)

	return analysis
}

// groupByPayee partitions by normalised payee key, preserving first-seen
// key order and input order within each group.
func groupByPayee(txs []core.ParsedTransaction) ([]string, map[string][]core.ParsedTransaction) {
	var keys []string
	groups := make(map[string][]core.ParsedTransaction)
	for _, tx := range txs {
		key := tx.PayeeKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], tx)
	}
	return keys, groups
}

// isRecurring applies the recurrence test: a keyword hit on the key, or at
// least two members with all amounts within tolerance of their mean.
// Single-occurrence payees can only pass via the keyword path. All-zero
// groups never pass the stability path (avg must be positive).
func (d *Detector) isRecurring(key string, members []core.ParsedTransaction) bool {
	if len(members) == 0 {
		return false
	}
	if matchesAny(key, d.keywords.Recurring) {
		return true
	}
	return len(members) >= 2 && hasSimilarAmounts(members)
}

func hasSimilarAmounts(members []core.ParsedTransaction) bool {
	var sum decimal.Decimal
	for _, m := range members {
		sum = sum.Add(m.Amount.Abs())
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(members))))
	if !avg.IsPositive() {
		return false
	}
	for _, m := range members {
		deviation := m.Amount.Abs().Sub(avg).Abs().Div(avg)
		if deviation.Cmp(amountTolerance) >= 0 {
			return false
		}
	}
	return true
}

func (d *Detector) buildItem(key string, members []core.ParsedTransaction) Item {
	name := members[0].Recipient
	if name == "" {
		name = members[0].Description
	}
	if name == "" {
		name = key
	}

	sorted := append([]core.ParsedTransaction(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	return Item{
		DisplayName:   name,
		Amount:        sorted[0].Amount,
		CategoryID:    members[0].CategoryID,
		IsCancellable: matchesAny(key, d.keywords.Cancellable),
		Members:       sorted,
	}
}

func categoryBreakdown(items []Item) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, item := range items {
		if _, ok := totals[item.CategoryID]; !ok {
			order = append(order, item.CategoryID)
		}
		totals[item.CategoryID] = totals[item.CategoryID].Add(item.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, CategoryTotal{CategoryID: id, Total: totals[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}
