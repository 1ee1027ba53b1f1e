package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Accounts Handlers
// ============================================================

func listAccountsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		userID := UserIDFromContext(ctx)
		accounts, err := svc.ListAccounts(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if accounts == nil {
			accounts = []domain.Account{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
	}
}

func createAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		var req struct {
			Name           string `json:"name"`
			Classification string `json:"classification"`
			Currency       string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account := &domain.Account{
			UserID:         UserIDFromContext(ctx),
			Name:           req.Name,
			Classification: req.Classification,
			Currency:       req.Currency,
		}
		created, err := svc.CreateAccount(ctx, account)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/accounts/{accountId}")
		defer span.End()

		accountID := chi.URLParam(r, "accountId")
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.UpdateAccount(ctx, UserIDFromContext(ctx), accountID, updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteAccountHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/accounts/{accountId}")
		defer span.End()

		accountID := chi.URLParam(r, "accountId")
		if err := svc.DeleteAccount(ctx, UserIDFromContext(ctx), accountID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
