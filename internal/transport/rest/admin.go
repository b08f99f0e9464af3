package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

type tocReloader interface {
	Reload(ctx context.Context) (*toc.Index, error)
}

type searchIndexer interface {
	Reindex(ctx context.Context, idx *toc.Index) error
}

// AdminHandler serves operator endpoints. Routes are wrapped in
// middleware.AdminOnly by the caller.
type AdminHandler struct {
	store   tocReloader
	indexer searchIndexer
	log     *slog.Logger
}

// NewAdminHandler creates an AdminHandler. indexer may be nil.
func NewAdminHandler(store tocReloader, indexer searchIndexer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:   store,
		indexer: indexer,
		log:     logger.With("handler", "admin"),
	}
}

type reloadResponse struct {
	Revision   string `json:"revision"`
	Entries    int    `json:"entries"`
	Categories int    `json:"categories"`
	Reindexed  bool   `json:"reindexed"`
}

// ReloadTOC rebuilds the table of contents from its source and reindexes search.
// POST /admin/toc/reload
func (h *AdminHandler) ReloadTOC(w http.ResponseWriter, r *http.Request) {
	idx, err := h.store.Reload(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := reloadResponse{
		Revision:   idx.Revision(),
		Entries:    idx.Len(),
		Categories: len(idx.Categories()),
	}

	if h.indexer != nil {
		if err := h.indexer.Reindex(r.Context(), idx); err != nil {
			h.log.WarnContext(r.Context(), "reindex after reload failed", slog.String("error", err.Error()))
		} else {
			resp.Reindexed = true
		}
	}

	h.log.InfoContext(r.Context(), "toc reloaded",
		slog.String("revision", resp.Revision),
		slog.Int("entries", resp.Entries),
	)
	writeJSON(w, http.StatusOK, resp)
}
