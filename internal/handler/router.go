// Package handler wires the HTTP surface: routing, auth middleware, request
// decoding and error mapping.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router needs.
type Services struct {
	Auth      *service.AuthService
	Clients   *service.ClientService
	Loans     *service.LoanService
	Accounts  *service.AccountService
	Users     *service.UserService
	Tenants   *service.TenantService
	Dashboard *service.DashboardService
	Lookup    *service.LookupService
	Metrics   *observability.Metrics
	DB        Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(svcs.Metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svcs.DB))
	r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", loginHandler(svcs.Auth, logger))
		r.Post("/auth/refresh", refreshHandler(svcs.Auth, logger))

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Post("/auth/logout", logoutHandler(svcs.Auth, logger))
			r.Put("/auth/password", changePasswordHandler(svcs.Auth, logger))

			r.Get("/users/profile", profileHandler(svcs.Users, logger))
			r.Put("/users/profile", updateProfileHandler(svcs.Users, logger))

			r.Get("/cep/{cep}", cepLookupHandler(svcs.Lookup, logger))
			r.Get("/metrics/summary", metricsSummaryHandler(svcs.Metrics, logger))

			// Read endpoints: any tenant role.
			r.Group(func(r chi.Router) {
				r.Use(requireRoles(domain.RoleAdmin, domain.RoleOperator, domain.RoleViewer))

				r.Get("/clients", listClientsHandler(svcs.Clients, logger))
				r.Get("/clients/{clientId}", getClientHandler(svcs.Clients, logger))
				r.Get("/loans", listLoansHandler(svcs.Loans, logger))
				r.Get("/loans/{loanId}", getLoanHandler(svcs.Loans, logger))
				r.Get("/loans/{loanId}/installments", listInstallmentsHandler(svcs.Loans, logger))
				r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))
				r.Get("/accounts/{accountId}", getAccountHandler(svcs.Accounts, logger))
				r.Get("/transactions", listTransactionsHandler(svcs.Accounts, logger))
				r.Get("/dashboard/summary", dashboardSummaryHandler(svcs.Dashboard, logger))
				r.Get("/dashboard/evolution", dashboardEvolutionHandler(svcs.Dashboard, logger))
			})

			// Write endpoints: admin and operator.
			r.Group(func(r chi.Router) {
				r.Use(requireRoles(domain.RoleAdmin, domain.RoleOperator))

				r.Post("/clients", createClientHandler(svcs.Clients, logger))
				r.Put("/clients/{clientId}", updateClientHandler(svcs.Clients, logger))
				r.Post("/loans", issueLoanHandler(svcs.Loans, logger))
				r.Put("/loans/{loanId}", updateLoanHandler(svcs.Loans, logger))
				r.Post("/loans/{loanId}/payments", payLoanHandler(svcs.Loans, logger))
				r.Post("/accounts", createAccountHandler(svcs.Accounts, logger))
				r.Post("/accounts/{accountId}/deposits", depositHandler(svcs.Accounts, logger))
				r.Post("/accounts/{accountId}/withdrawals", withdrawHandler(svcs.Accounts, logger))
			})

			// Destructive and user management endpoints: admin only.
			r.Group(func(r chi.Router) {
				r.Use(requireRoles(domain.RoleAdmin))

				r.Delete("/clients/{clientId}", deleteClientHandler(svcs.Clients, logger))
				r.Delete("/loans/{loanId}", deleteLoanHandler(svcs.Loans, logger))
				r.Get("/users", listUsersHandler(svcs.Users, logger))
				r.Post("/users", createUserHandler(svcs.Users, logger))
				r.Put("/users/{userId}", updateUserHandler(svcs.Users, logger))
				r.Delete("/users/{userId}", deleteUserHandler(svcs.Users, logger))
			})
		})
	})

	// --- Tenant console (super admin only) ---
	r.Route("/admin", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(svcs.Auth, logger))
		r.Use(requireSuperAdmin)

		r.Get("/tenants", listTenantsHandler(svcs.Tenants, logger))
		r.Post("/tenants", provisionTenantHandler(svcs.Tenants, logger))
		r.Get("/tenants/{tenantId}", getTenantHandler(svcs.Tenants, logger))
		r.Patch("/tenants/{tenantId}", patchTenantHandler(svcs.Tenants, logger))
		r.Delete("/tenants/{tenantId}", deleteTenantHandler(svcs.Tenants, logger))
		r.Get("/tenants/{tenantId}/events", tenantEventsHandler(svcs.Tenants, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	start := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"uptime": time.Since(start).String(),
		})
	}
}

func readyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/summary")
		defer span.End()

		writeData(w, http.StatusOK, metrics.Snapshot())
	}
}
