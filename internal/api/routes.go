package api

import (
	"log/slog"
	"net/http"

	"github.com/ashureev/cinemabot/internal/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures access to the ops routes.
type RouterOptions struct {
	OpsToken       string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter mounts the ops routes. Everything except /health sits behind
// the operator token guard; without a token only /health is mounted.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.Get("/health", h.Health)

	if opts.OpsToken == "" {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.OpsToken(opts.OpsToken))

		r.Get("/api/users/{userID}/stats", h.Stats)
		r.Get("/api/users/{userID}/history", h.History)
		r.Get("/api/resolve", h.Resolve)

		if h.feed != nil {
			r.Get("/ws/feed", h.feed.ServeHTTP)
		}
	})

	return r
}
