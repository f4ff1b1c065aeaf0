package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetwise/internal/core"
	"budgetwise/internal/export"
)

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// statusFor maps service errors onto HTTP statuses. Validation failures are
// the client's fault; missing rows are 404; the rest is on us.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity
	case strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	case strings.Contains(err.Error(), "validate"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.transactions.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	writeJSON(w, http.StatusOK, viewOfTransactions(transactions))
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	transactions, err := s.transactions.ListRecent(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List recent transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	writeJSON(w, http.StatusOK, viewOfTransactions(transactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, viewOfTransaction(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := payload.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t.ID = id

	if err := s.transactions.Update(r.Context(), t); err != nil {
		slog.ErrorContext(r.Context(), "Update transaction failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOfTransaction(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, viewOfCategories(categories))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.categories.Create(r.Context(), core.Category{
		Name:  payload.Name,
		Type:  core.TransactionType(payload.Type),
		Icon:  payload.Icon,
		Color: payload.Color,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{
		ID:    created.ID,
		Name:  created.Name,
		Type:  string(created.Type),
		Icon:  created.Icon,
		Color: created.Color,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load budgets")
		return
	}
	writeJSON(w, http.StatusOK, viewOfBudgets(budgets))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := core.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "amount: "+err.Error())
		return
	}

	if err := s.budgets.SetBudget(r.Context(), core.Budget{
		Category: payload.Category,
		Amount:   amount,
		Period:   payload.Period,
	}); err != nil {
		slog.ErrorContext(r.Context(), "Set budget failed", "category", payload.Category, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid budget id")
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete budget failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	progress := s.budgets.GetBudgetProgress(r.Context(), s.now())
	writeJSON(w, http.StatusOK, viewOfProgress(progress))
}

func (s *Server) handleBudgetCheck(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if strings.TrimSpace(category) == "" {
		writeError(w, http.StatusBadRequest, "missing category parameter")
		return
	}
	amount, err := core.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount: "+err.Error())
		return
	}

	result, err := s.budgets.CheckExceeded(r.Context(), category, amount, s.now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget check failed", "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "budget check failed")
		return
	}
	writeJSON(w, http.StatusOK, exceedanceView{
		Exceeded:  result.Exceeded,
		Category:  result.Category,
		Limit:     core.FormatAmount(result.Limit),
		Spent:     core.FormatAmount(result.Spent),
		Projected: core.FormatAmount(result.Projected),
	})
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.recurring.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List schedules failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedules")
		return
	}
	writeJSON(w, http.StatusOK, viewOfRecurring(schedules))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var payload recurringPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rt, err := payload.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.recurring.Create(r.Context(), rt)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create schedule failed", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, viewOfRecurring([]core.RecurringTransaction{created})[0])
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}

	var payload recurringPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rt, err := payload.toDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rt.ID = id

	if err := s.recurring.Update(r.Context(), rt); err != nil {
		slog.ErrorContext(r.Context(), "Update schedule failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOfRecurring([]core.RecurringTransaction{rt})[0])
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}
	if err := s.recurring.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete schedule failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetRecurringActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}

	var payload struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.recurring.SetActive(r.Context(), id, payload.Active); err != nil {
		slog.ErrorContext(r.Context(), "Set schedule active failed", "id", id, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCatchUp runs one catch-up pass. The shell posts here on foreground;
// the in-process ticker covers long-running sessions.
func (s *Server) handleCatchUp(w http.ResponseWriter, r *http.Request) {
	processed, err := s.engine.ProcessDueSchedules(r.Context(), s.now())

	type catchUpResponse struct {
		Processed int    `json:"processed"`
		Error     string `json:"error,omitempty"`
	}

	if err != nil {
		slog.ErrorContext(r.Context(), "Catch-up finished with failures", "processed", processed, "error", err)
		writeJSON(w, http.StatusInternalServerError, catchUpResponse{Processed: processed, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, catchUpResponse{Processed: processed})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	asOf := s.now()
	q := r.URL.Query()
	if y, err := strconv.Atoi(q.Get("year")); err == nil {
		if m, err := strconv.Atoi(q.Get("month")); err == nil && m >= 1 && m <= 12 {
			asOf = time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		}
	}

	summary, err := s.summary.MonthSummary(r.Context(), asOf)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	writeJSON(w, http.StatusOK, viewOfSummary(summary))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export not configured")
		return
	}

	q := r.URL.Query()
	opts := export.Options{
		Format:         export.Format(q.Get("format")),
		DateRange:      export.DateRange(q.Get("range")),
		IncludeBudgets: q.Get("budgets") == "true",
		CurrencySymbol: s.currency,
	}
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}
	if opts.DateRange == "" {
		opts.DateRange = export.RangeMonth
	}
	if v := q.Get("start"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			opts.StartDate = d
		}
	}
	if v := q.Get("end"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			opts.EndDate = d
		}
	}

	content, err := s.exporter.Export(r.Context(), opts, s.now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "format", opts.Format, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if opts.Format == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="budgetwise-export.csv"`)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "AI insights not configured")
		return
	}

	var payload struct {
		Kind        string `json:"kind"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		reply string
		err   error
	)
	switch payload.Kind {
	case "", "insights":
		reply, err = s.insights.FinancialInsights(r.Context(), s.now())
	case "budget":
		reply, err = s.insights.AnalyzeBudget(r.Context(), s.now())
	case "category":
		if strings.TrimSpace(payload.Description) == "" {
			writeError(w, http.StatusBadRequest, "missing description for category suggestion")
			return
		}
		reply, err = s.insights.SuggestCategory(r.Context(), payload.Description)
	default:
		writeError(w, http.StatusBadRequest, "unknown insights kind: "+payload.Kind)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Insights request failed", "kind", payload.Kind, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": reply})
}
