package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/auth"
)

const serviceName = "magazord-sales-dashboard"

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func Health(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, HealthResponse{Status: "healthy", Service: serviceName, Version: "1.0.0"})
}

// NewRouter arma las rutas. /health y /api/login son públicas; el resto
// requiere sesión.
func NewRouter(reports *ReportHandler, login *LoginHandler, sessions *auth.Sessions, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(WithLogging(logger))
	r.Use(cors)

	r.Get("/health", Health)
	r.Post("/api/login", login.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(sessions))

		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/mes-atual", reports.CurrentMonth)
			r.Get("/resumo", reports.PeriodSummary)
			r.Get("/avancado", reports.Advanced)
			r.Get("/graficos-avancados", reports.Geography)
			r.Get("/churn", reports.Churn)
		})
		r.Get("/api/debug/orders/{id}", reports.DebugOrder)
	})

	return r
}

// cors habilita el front end servido desde otro origen.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Session-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Max-Age", "43200")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
