package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"haushalt/internal/core"
	"haushalt/internal/fixedcosts"
	"haushalt/internal/summary"
)

// handleCategories returns the category table, sort order ascending.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	cats, err := s.reports.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list categories failed")
		return
	}

	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type savingsGoalDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      string          `json:"deadline,omitempty"`
}

// handleSavingsGoals returns the savings goals, nearest deadline first.
func (s *Server) handleSavingsGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	goals, err := s.reports.ListSavingsGoals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List savings goals failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list savings goals failed")
		return
	}

	out := make([]savingsGoalDTO, len(goals))
	for i, g := range goals {
		out[i] = savingsGoalDTO{
			ID:            g.ID,
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
		}
		if !g.Deadline.IsZero() {
			out[i].Deadline = g.Deadline.ISO()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type fixedCostItemDTO struct {
	DisplayName   string          `json:"display_name"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    string          `json:"category_id,omitempty"`
	IsCancellable bool            `json:"is_cancellable"`
	Occurrences   int             `json:"occurrences"`
	LastSeen      string          `json:"last_seen"`
}

type categoryTotalDTO struct {
	CategoryID string          `json:"category_id"`
	Total      decimal.Decimal `json:"total"`
}

type fixedCostsResponse struct {
	Items            []fixedCostItemDTO `json:"items"`
	TotalFixed       decimal.Decimal    `json:"total_fixed"`
	TotalCancellable decimal.Decimal    `json:"total_cancellable"`
	TotalVariable    decimal.Decimal    `json:"total_variable"`
	CancellableCount int                `json:"cancellable_count"`
	WindowMonths     int                `json:"window_months"`
	ByCategory       []categoryTotalDTO `json:"by_category"`
}

func toFixedCostsResponse(a fixedcosts.Analysis) fixedCostsResponse {
	resp := fixedCostsResponse{
		Items:            make([]fixedCostItemDTO, len(a.Items)),
		TotalFixed:       a.TotalFixed,
		TotalCancellable: a.TotalCancellable,
		TotalVariable:    a.TotalVariable,
		CancellableCount: a.CancellableCount,
		WindowMonths:     a.WindowMonths,
		ByCategory:       make([]categoryTotalDTO, len(a.ByCategory)),
	}
	for i, item := range a.Items {
		dto := fixedCostItemDTO{
			DisplayName:   item.DisplayName,
			Amount:        item.Amount,
			CategoryID:    item.CategoryID,
			IsCancellable: item.IsCancellable,
			Occurrences:   len(item.Members),
		}
		if len(item.Members) > 0 {
			dto.LastSeen = item.Members[0].Date.ISO()
		}
		resp.Items[i] = dto
	}
	for i, ct := range a.ByCategory {
		resp.ByCategory[i] = categoryTotalDTO{CategoryID: ct.CategoryID, Total: ct.Total}
	}
	return resp
}

const fixedCostsCacheKey = "window"

// handleFixedCosts runs the detector over the rolling window and returns
// the analysis.
func (s *Server) handleFixedCosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if cached, ok := s.fixedCache.Get(fixedCostsCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	from := core.Date{Time: s.now()}.MonthsAgo(s.windowMonths)
	txs, err := s.reports.ListExpensesSince(r.Context(), from)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list expenses failed")
		return
	}

	resp := toFixedCostsResponse(s.detector.Detect(txs, s.windowMonths))
	s.fixedCache.Set(fixedCostsCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

type categorySpendDTO struct {
	Category  categoryDTO     `json:"category"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
}

type summaryResponse struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Income     decimal.Decimal    `json:"income"`
	Expenses   decimal.Decimal    `json:"expenses"`
	Balance    decimal.Decimal    `json:"balance"`
	TxCount    int                `json:"tx_count"`
	ByCategory []categorySpendDTO `json:"by_category"`
}

// handleSummary returns the monthly overview for ?year=&month=, defaulting
// to the current month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month := parseYearMonth(r, s.now())

	key := fmt.Sprintf("%04d-%02d", year, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	first, last := summary.MonthRange(year, time.Month(month))

	txs, err := s.reports.ListTransactions(r.Context(), first, last)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list transactions failed")
		return
	}

	cats, err := s.reports.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list categories failed")
		return
	}

	ov := summary.Overview(year, time.Month(month), txs, cats)

	resp := summaryResponse{
		Year:       ov.Year,
		Month:      int(ov.Month),
		Income:     ov.Income,
		Expenses:   ov.Expenses,
		Balance:    ov.Balance,
		TxCount:    ov.TxCount,
		ByCategory: make([]categorySpendDTO, len(ov.ByCategory)),
	}
	for i, cs := range ov.ByCategory {
		resp.ByCategory[i] = categorySpendDTO{
			Category:  toCategoryDTO(cs.Category),
			Total:     cs.Total,
			Remaining: cs.Remaining(),
		}
	}
	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
