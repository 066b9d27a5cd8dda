package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"haushalt/internal/core"
	"haushalt/internal/ingest"
)

// previewRow is one parsed transaction as shown in the preview. CategoryID
// is the effective assignment, classifier guess included.
type previewRow struct {
	Index       int             `json:"index"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	IsIncome    bool            `json:"is_income"`
	Description string          `json:"description"`
	Recipient   string          `json:"recipient"`
	CategoryID  string          `json:"category_id,omitempty"`
}

type categoryDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Icon          string          `json:"icon,omitempty"`
	Color         string          `json:"color,omitempty"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	Type          string          `json:"type"`
}

type summaryDTO struct {
	TotalCount    int             `json:"total_count"`
	IncomeCount   int             `json:"income_count"`
	ExpenseCount  int             `json:"expense_count"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Categorised   int             `json:"categorised"`
}

type sessionResponse struct {
	SessionID  string        `json:"session_id"`
	Phase      string        `json:"phase"`
	Rows       []previewRow  `json:"rows"`
	Categories []categoryDTO `json:"categories"`
	Warnings   []string      `json:"warnings,omitempty"`
	Summary    summaryDTO    `json:"summary"`
	Imported   int           `json:"imported"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Icon:          c.Icon,
		Color:         c.Color,
		MonthlyBudget: c.MonthlyBudget,
		Type:          string(c.Type),
	}
}

func (s *Server) sessionResponse() sessionResponse {
	assignments := s.session.Assignments()

	parsed := s.session.Parsed()
	rows := make([]previewRow, len(parsed))
	for i, tx := range parsed {
		rows[i] = previewRow{
			Index:       i,
			Date:        tx.Date.ISO(),
			Amount:      tx.Amount,
			IsIncome:    tx.IsIncome,
			Description: tx.Description,
			Recipient:   tx.Recipient,
			CategoryID:  assignments[i],
		}
	}

	cats := s.session.Categories()
	catDTOs := make([]categoryDTO, len(cats))
	for i, c := range cats {
		catDTOs[i] = toCategoryDTO(c)
	}

	sum := s.session.Summarise()
	return sessionResponse{
		SessionID:  s.session.ID(),
		Phase:      string(s.session.Phase()),
		Rows:       rows,
		Categories: catDTOs,
		Warnings:   s.session.Warnings(),
		Summary: summaryDTO{
			TotalCount:    sum.TotalCount,
			IncomeCount:   sum.IncomeCount,
			ExpenseCount:  sum.ExpenseCount,
			TotalIncome:   sum.TotalIncome,
			TotalExpenses: sum.TotalExpenses,
			Categorised:   sum.Categorised,
		},
		Imported: s.session.ImportedCount(),
	}
}

// handleSession serves the session resource: POST uploads a bank export and
// builds the preview, GET returns the current state.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sessionResponse())
	case http.MethodPost:
		s.handleUpload(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// maxUploadBytes caps the accepted export size. A year of bank rows is well
// under a megabyte.
const maxUploadBytes = 10 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with a csv file")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form file 'file'")
		return
	}
	defer file.Close()

	if err := s.session.Start(r.Context(), file); err != nil {
		slog.ErrorContext(r.Context(), "Preview failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, s.sessionResponse())
}

type assignRequest struct {
	Index      int    `json:"index"`
	CategoryID string `json:"category_id"`
}

// handleAssign overrides the category of one preview row. An empty
// category id clears the assignment.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.session.Assign(req.Index, req.CategoryID); err != nil {
		switch {
		case errors.Is(err, ingest.ErrRowIndex):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ingest.ErrWrongPhase):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, s.sessionResponse())
}

type importResponse struct {
	Imported int    `json:"imported"`
	Phase    string `json:"phase"`
	Error    string `json:"error,omitempty"`
}

// handleImport commits the preview. A partial failure reports how many rows
// landed; the client may retry the remainder.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	n, err := s.session.Commit(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrWrongPhase) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Import failed", "persisted", n, "error", err)
		if n > 0 {
			// Partially persisted batches already changed the aggregates.
			s.summaryCache.Purge()
			s.fixedCache.Purge()
		}
		writeJSON(w, http.StatusBadGateway, importResponse{
			Imported: n,
			Phase:    string(s.session.Phase()),
			Error:    err.Error(),
		})
		return
	}

	// New rows change every aggregate.
	s.summaryCache.Purge()
	s.fixedCache.Purge()

	// Kick the snapshot worker. Failure to publish never fails the import;
	// the worker also refreshes on its timer.
	if s.publisher != nil {
		if err := s.publisher.PublishImportCompleted(r.Context(), s.session.ID(), n); err != nil {
			slog.WarnContext(r.Context(), "Failed to publish import completed message", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, importResponse{
		Imported: n,
		Phase:    string(s.session.Phase()),
	})
}

// handleCancel discards the preview.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := s.session.Cancel(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.sessionResponse())
}
