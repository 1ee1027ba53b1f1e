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
// Balance Entry Handlers
// ============================================================

// entryRequest is the wire shape of a balance entry. Dates come in as
// plain calendar days, not timestamps.
type entryRequest struct {
	Date    string `json:"date"`
	Entries []struct {
		AccountID string   `json:"account_id"`
		Value     float64  `json:"value"`
		Invested  *float64 `json:"invested,omitempty"`
	} `json:"entries"`
}

func (req *entryRequest) toDomain(userID string) (*domain.BalanceEntry, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	entry := &domain.BalanceEntry{
		UserID: userID,
		Date:   date,
	}
	for _, e := range req.Entries {
		entry.Entries = append(entry.Entries, domain.Entry{
			AccountID: e.AccountID,
			Value:     e.Value,
			Invested:  e.Invested,
		})
	}
	return entry, nil
}

func listEntriesHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/entries")
		defer span.End()

		entries, err := svc.ListBalanceEntries(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if entries == nil {
			entries = []domain.BalanceEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}

func createEntryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/entries")
		defer span.End()

		var req entryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		entry, err := req.toDomain(UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.CreateBalanceEntry(ctx, entry)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteEntryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/entries/{entryId}")
		defer span.End()

		entryID := chi.URLParam(r, "entryId")
		if err := svc.DeleteBalanceEntry(ctx, UserIDFromContext(ctx), entryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Summary Handlers
// ============================================================

func getSummaryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/summary")
		defer span.End()

		result, err := svc.GetSummary(ctx, UserIDFromContext(ctx), nil)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// previewSummaryHandler recomputes the series with a draft entry the
// user has not committed yet. The draft is appended last and never
// persisted.
func previewSummaryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/summary")
		defer span.End()

		var req struct {
			Live *entryRequest `json:"live"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		userID := UserIDFromContext(ctx)
		var live *domain.BalanceEntry
		if req.Live != nil {
			entry, err := req.Live.toDomain(userID)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			live = entry
		}

		result, err := svc.GetSummary(ctx, userID, live)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
