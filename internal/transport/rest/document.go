package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
)

const documentPrefix = "/api/document/"

type pageService interface {
	GetPage(ctx context.Context, req page.Request) (*page.Result, error)
}

// DocumentHandler serves resolved pages.
type DocumentHandler struct {
	pages pageService
	log   *slog.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(pages pageService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{pages: pages, log: logger.With("handler", "document")}
}

// Get handles GET /api/document/{path...}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := page.ParsePath(strings.TrimPrefix(r.URL.EscapedPath(), documentPrefix))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	req.Query = r.URL.Query().Get("q")

	result, err := h.pages.GetPage(r.Context(), req)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
