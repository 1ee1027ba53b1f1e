package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Expenses Handlers
// ============================================================

func listExpensesHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses")
		defer span.End()

		page, pageSize := parsePagination(r)
		expenses, err := svc.ListExpenses(ctx, UserIDFromContext(ctx), page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if expenses == nil {
			expenses = []domain.Expense{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
	}
}

func createExpenseHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses")
		defer span.End()

		var req struct {
			Date        string  `json:"date"`
			Amount      float64 `json:"amount"`
			Category    string  `json:"category"`
			Description string  `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		expense := &domain.Expense{
			UserID:      UserIDFromContext(ctx),
			Date:        date,
			Amount:      req.Amount,
			Category:    req.Category,
			Description: req.Description,
		}
		created, err := svc.CreateExpense(ctx, expense)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteExpenseHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/expenses/{expenseId}")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")
		if err := svc.DeleteExpense(ctx, UserIDFromContext(ctx), expenseID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
