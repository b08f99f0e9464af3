package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/search"
)

type searchService interface {
	Search(ctx context.Context, query string, limit int) (*search.Response, error)
}

// SearchHandler serves document search.
type SearchHandler struct {
	search searchService
	log    *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search searchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{search: search, log: logger.With("handler", "search")}
}

// Search handles GET /api/search?q=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("limit", "must be a number"))
			return
		}
		limit = n
	}

	resp, err := h.search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
