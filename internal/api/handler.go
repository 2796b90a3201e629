// Package api provides the operator HTTP surface of the bot.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/cinemabot/internal/catalog"
	"github.com/ashureev/cinemabot/internal/store"
)

const defaultHealthCheckTimeout = 5 * time.Second

// Handler serves the ops endpoints.
type Handler struct {
	repo     store.Repository
	resolver catalog.Resolver
	feed     http.Handler

	healthCheckTimeout time.Duration
}

// NewHandler creates a Handler. feed may be nil, in which case the
// WebSocket route is not mounted.
func NewHandler(repo store.Repository, resolver catalog.Resolver, feed http.Handler) *Handler {
	return &Handler{
		repo:               repo,
		resolver:           resolver,
		feed:               feed,
		healthCheckTimeout: defaultHealthCheckTimeout,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
