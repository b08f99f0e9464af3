package rest

import (
	"context"
	"io"
	"log/slog"

	"github.com/heartmarshall/commonprayer-backend/internal/service/calendarview"
	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
	"github.com/heartmarshall/commonprayer-backend/internal/service/search"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type pageServiceMock struct {
	GetPageFunc func(ctx context.Context, req page.Request) (*page.Result, error)
	calls       []page.Request
}

func (m *pageServiceMock) GetPage(ctx context.Context, req page.Request) (*page.Result, error) {
	m.calls = append(m.calls, req)
	return m.GetPageFunc(ctx, req)
}

type calendarServiceMock struct {
	MonthFunc func(ctx context.Context, req calendarview.Request) (*calendarview.Month, error)
}

func (m *calendarServiceMock) Month(ctx context.Context, req calendarview.Request) (*calendarview.Month, error) {
	return m.MonthFunc(ctx, req)
}

type searchServiceMock struct {
	SearchFunc func(ctx context.Context, query string, limit int) (*search.Response, error)
}

func (m *searchServiceMock) Search(ctx context.Context, query string, limit int) (*search.Response, error) {
	return m.SearchFunc(ctx, query, limit)
}

type tocReloaderMock struct {
	ReloadFunc func(ctx context.Context) (*toc.Index, error)
}

func (m *tocReloaderMock) Reload(ctx context.Context) (*toc.Index, error) {
	return m.ReloadFunc(ctx)
}

type searchIndexerMock struct {
	ReindexFunc func(ctx context.Context, idx *toc.Index) error
}

func (m *searchIndexerMock) Reindex(ctx context.Context, idx *toc.Index) error {
	return m.ReindexFunc(ctx, idx)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
