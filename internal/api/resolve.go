package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/cinemabot/internal/catalog"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Resolve runs a catalog lookup without touching any user's history.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		Error(w, http.StatusBadRequest, "q is required")
		return
	}

	res, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		slog.Error("Resolve request failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"query", query,
			"error", err,
		)
		var te *catalog.TransportError
		if errors.As(err, &te) {
			Error(w, http.StatusBadGateway, te.Error())
			return
		}
		Error(w, http.StatusInternalServerError, "resolve failed")
		return
	}

	JSON(w, http.StatusOK, res)
}
