package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Stats returns per-title lookup counts for a user.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	rows, err := h.repo.Statistics(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load statistics", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load statistics")
		return
	}
	JSON(w, http.StatusOK, rows)
}

// History returns a user's lookups, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	titles, err := h.repo.RecentHistory(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load history", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	JSON(w, http.StatusOK, titles)
}

// userIDParam extracts the numeric Telegram user id from the route.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "userID")
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		Error(w, http.StatusBadRequest, "userID must be numeric")
		return "", false
	}
	return raw, true
}
