package rest

import (
	"net/http"

	"github.com/heartmarshall/commonprayer-backend/internal/transport/middleware"
)

// Handlers groups the REST handlers mounted by NewRouter. Admin may be nil.
type Handlers struct {
	Health   *HealthHandler
	Document *DocumentHandler
	Calendar *CalendarHandler
	Search   *SearchHandler
	Admin    *AdminHandler
}

// NewRouter registers every REST route on a new mux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("GET /api/document/{path...}", h.Document.Get)
	mux.HandleFunc("GET /api/calendar/{calendar}/{year}/{month}", h.Calendar.Month)
	mux.HandleFunc("GET /api/search", h.Search.Search)

	if h.Admin != nil {
		mux.Handle("POST /admin/toc/reload", middleware.AdminOnly()(http.HandlerFunc(h.Admin.ReloadTOC)))
	}

	return mux
}
