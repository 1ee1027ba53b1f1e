package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/networth-bfa-go/internal/chat/handler"
	chatservice "github.com/boddenberg/networth-bfa-go/internal/chat/service"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Everything under /v1 except auth and the chat websocket requires a
// Bearer token; the websocket authenticates during its own handshake.
func NewRouter(finSvc *service.FinanceService, authSvc *service.AuthService, chatRegistry *chatservice.Registry, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(finSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 🔐 Autenticação
		// POST /v1/auth/login
		// =============================================
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		// =============================================
		// 2. 💬 Chat (websocket, autentica no handshake)
		// GET /v1/chat/ws
		// =============================================
		if chatRegistry != nil {
			r.Get("/chat/ws", chathandler.ChatWebsocketHandler(chatRegistry, authSvc, logger))
		} else {
			r.Get("/chat/ws", func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "chat unavailable: completion service not configured")
			})
		}

		// =============================================
		// Protected routes
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			// 3. 🏦 Contas
			r.Get("/accounts", listAccountsHandler(finSvc, logger))
			r.Post("/accounts", createAccountHandler(finSvc, logger))
			r.Patch("/accounts/{accountId}", updateAccountHandler(finSvc, logger))
			r.Delete("/accounts/{accountId}", deleteAccountHandler(finSvc, logger))

			// 4. 📅 Lançamentos de saldo
			r.Get("/entries", listEntriesHandler(finSvc, logger))
			r.Post("/entries", createEntryHandler(finSvc, logger))
			r.Delete("/entries/{entryId}", deleteEntryHandler(finSvc, logger))

			// 5. 💸 Despesas
			r.Get("/expenses", listExpensesHandler(finSvc, logger))
			r.Post("/expenses", createExpenseHandler(finSvc, logger))
			r.Delete("/expenses/{expenseId}", deleteExpenseHandler(finSvc, logger))

			// 6. 📊 Resumo e estatísticas
			r.Get("/summary", getSummaryHandler(finSvc, logger))
			r.Post("/summary", previewSummaryHandler(finSvc, logger))

			// 7. 📈 Métricas do chat
			r.Get("/metrics/chat", chatMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Métricas & Health
// ============================================================

func healthzHandler(finSvc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []map[string]any{
			{"name": "networth-api", "status": "healthy", "latency_ms": 0, "last_checked": now},
		}

		status := "healthy"
		if finSvc != nil {
			start := time.Now()
			_, err := finSvc.ListAccounts(ctx, "health-check")
			latency := time.Since(start).Milliseconds()
			storeStatus := "healthy"
			if err != nil {
				storeStatus = "degraded"
				status = "degraded"
			}
			services = append(services, map[string]any{
				"name": "supabase", "status": storeStatus, "latency_ms": latency, "last_checked": now,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   status,
			"services": services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func chatMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetChatSnapshot())
	}
}
