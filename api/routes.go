package api

import (
	"net/http"

	"github.com/0xcafe-io/iz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// corsHandler never allows credentials. Sessions travel in the Authorization header.
func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID, "Content-Disposition"},
	})
}

// Routes builds the gateway router.
func (api *Api) Routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Trace)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(corsOrigins).Handler)

	// PUBLIC ENDPOINTS.
	r.Get("/api/health", iz.Bind(api.HealthHandler))
	r.Post("/api/register", iz.Bind(api.SaveUserHandler))
	r.Post("/api/login", iz.Bind(api.LoginUserHandler))

	r.Group(func(r chi.Router) {
		r.Use(api.RequireSession)

		// SESSION ENDPOINTS.
		r.Post("/api/logout", iz.Bind(api.LogoutUserHandler))
		r.Get("/api/me", iz.Bind(api.GetAccountInfo))

		// PAGE ENDPOINTS.
		r.Get("/api/dashboard", iz.Bind(api.DashboardHandler))
		r.Get("/api/transactions", iz.Bind(api.TransactionsHandler))
		r.Get("/api/budgets", iz.Bind(api.BudgetsHandler))
		r.Get("/api/goals", iz.Bind(api.GoalsHandler))
		r.Get("/api/subscriptions", iz.Bind(api.SubscriptionsHandler))
		r.Put("/api/subscriptions/{id}/toggle", iz.Bind(api.ToggleSubscriptionHandler))
		r.Get("/api/assets", iz.Bind(api.AssetsHandler))
		r.Get("/api/debts", iz.Bind(api.DebtsHandler))
		r.Get("/api/networth", iz.Bind(api.NetWorthHandler))
		r.Get("/api/insurance", iz.Bind(api.InsuranceHandler))
		r.Get("/api/contingency", iz.Bind(api.ContingencyHandler))
		r.Get("/api/forms/{kind}/{category}", iz.Bind(api.FormFieldsHandler))

		// CHAT ENDPOINTS.
		r.Post("/api/chat", iz.Bind(api.ChatHandler))
		r.Post("/api/chat/new", iz.Bind(api.NewChatHandler))
		r.Get("/api/chat/sessions", iz.Bind(api.ChatSessionsHandler))
		r.Get("/api/chat/conversations/{id}", iz.Bind(api.ConversationHandler))

		// REPORT ENDPOINTS.
		r.Get("/api/export/{resource}", api.ExportHandler)

		// MUTATION ENDPOINTS.
		r.Delete("/api/goals/all", iz.Bind(api.DeleteAllGoalsHandler))
		r.Post("/api/{resource}", iz.Bind(api.CreateHandler))
		r.Put("/api/{resource}/{id}", iz.Bind(api.UpdateHandler))
		r.Delete("/api/{resource}/{id}", iz.Bind(api.DeleteHandler))
	})

	return r
}
