package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lbryio/comment-server/internal/handler"
	"github.com/lbryio/comment-server/internal/httputil"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	RPCHandler *handler.RPCHandler
}

// NewRouter creates and configures a new Chi router
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", cfg.RPCHandler.Status)
	r.Route("/api", func(r chi.Router) {
		r.Get("/", cfg.RPCHandler.Status)
		r.Post("/", cfg.RPCHandler.Serve)
	})

	return r
}
