package apiapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/config"
	statussvc "github.com/ivankudzin/botgate/internal/services/status"
	"github.com/ivankudzin/botgate/internal/transport/http/handlers"
)

type Dependencies struct {
	StatusService *statussvc.Service
	Logger        *zap.Logger
	Config        config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	statusHandler := handlers.NewStatusHandler(deps.StatusService)
	adminMW := AdminTokenMiddleware(deps.Config.HTTP.AdminToken, deps.Logger)

	r.Get("/healthz", statusHandler.Health)
	r.With(adminMW).Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(adminMW)
		r.Get("/pending", statusHandler.Pending)
		r.Get("/communities/{id}/logs", statusHandler.Logs)
		r.Get("/entities/{id}/history", statusHandler.History)
	})
}

func NewHandler(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	ApplyMiddlewares(r, deps.Logger)
	RegisterRoutes(r, deps)
	return r
}

func NewServer(deps Dependencies) *http.Server {
	cfg := deps.Config.HTTP
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
