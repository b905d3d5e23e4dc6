package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/adwise-backend/internal/handlers"
	"github.com/GregMSThompson/adwise-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	lm := middleware.NewLoggerMiddleware(deps.Log)
	m := middleware.NewMiddleware(deps.Firebase, deps.ResponseHandler)

	r.Use(chimiddleware.RequestID)
	r.Use(lm.LoggerMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ch := handlers.NewChatHandlers(deps)
	ih := handlers.NewInsightsHandlers(deps)
	ah := handlers.NewAccountHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(m.FirebaseAuth)
		r.Use(m.RequireWorkspace)

		r.Mount("/chat", ch.ChatRoutes())
		r.Mount("/campaigns", ih.CampaignRoutes())
		r.Mount("/recommendations", ih.RecommendationRoutes())
		r.Mount("/accounts", ah.AccountRoutes())
	})

	return r
}
