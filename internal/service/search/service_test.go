package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/provider"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockIndexStore struct {
	LoadFunc func() *toc.Index
}

func (m *mockIndexStore) Load() *toc.Index { return m.LoadFunc() }

type mockEngine struct {
	HealthyFunc func() bool
	ReplaceFunc func(ctx context.Context, records []provider.SearchRecord) error
	SearchFunc  func(ctx context.Context, query string, limit int) ([]provider.SearchRecord, error)
}

func (m *mockEngine) Healthy() bool { return m.HealthyFunc() }

func (m *mockEngine) Replace(ctx context.Context, records []provider.SearchRecord) error {
	return m.ReplaceFunc(ctx, records)
}

func (m *mockEngine) Search(ctx context.Context, query string, limit int) ([]provider.SearchRecord, error) {
	return m.SearchFunc(ctx, query, limit)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func text(s string) domain.Document {
	return domain.Document{Content: domain.Content{Kind: domain.ContentText, Text: s}}
}

func searchIndex() *toc.Index {
	mp := domain.Document{
		Content:  domain.Content{Kind: domain.ContentLiturgy, Liturgy: &domain.Liturgy{}},
		Label:    ptr("Morning Prayer"),
		Version:  domain.VersionRiteII,
		Children: []domain.Document{text("Lord, open our lips."), text("And our mouth shall proclaim your praise.")},
	}
	venite := domain.Document{Label: ptr("Venite"), Content: domain.Content{Kind: domain.ContentPsalm, Lines: []string{"Come, let us sing to the Lord;"}}}
	jubilate := domain.Document{Label: ptr("Jubilate"), Content: domain.Content{Kind: domain.ContentPsalm, Lines: []string{"Be joyful in the Lord, all you lands;"}}}

	return toc.Build([]toc.Entry{
		{Category: "office", Version: ptr(domain.VersionRiteII), Page: domain.NewDocumentPage("morning-prayer", mp)},
		{Category: "office", Page: domain.NewParallelPage("morning-prayer", "Compare", mp, []domain.Document{mp})},
		{Category: "canticles", Page: domain.NewCategoryPage("Canticles", domain.VersionBCP1979, []domain.Document{venite, jubilate})},
	}, nil)
}

func newTestService(engine engine) *Service {
	idx := searchIndex()
	return NewService(discardLogger(), &mockIndexStore{LoadFunc: func() *toc.Index { return idx }}, engine)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRecords(t *testing.T) {
	t.Parallel()

	recs := Records(searchIndex())
	require.Len(t, recs, 3)

	assert.Equal(t, "/document/office/morning-prayer/RiteII", recs[0].Path)
	assert.Equal(t, "Morning Prayer", recs[0].Label)
	assert.Contains(t, recs[0].Text, "Lord, open our lips.")

	assert.Equal(t, "/document/canticles/BCP1979", recs[1].Path)
	assert.Equal(t, "Venite", recs[1].Label)
	assert.Equal(t, "BCP1979", recs[1].Version)
	assert.NotEqual(t, recs[1].ID, recs[2].ID)

	// IDs are stable across builds.
	assert.Equal(t, recs[0].ID, Records(searchIndex())[0].ID)
}

func TestRecords_NilIndex(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Records(nil))
}

func TestService_Search_MemoryFallback(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	resp, err := svc.Search(context.Background(), "  JOYFUL ", 0)
	require.NoError(t, err)

	assert.Equal(t, "JOYFUL", resp.Query)
	assert.Equal(t, EngineMemory, resp.Engine)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Jubilate", resp.Results[0].Label)
	assert.Equal(t, "Be joyful in the Lord, all you lands;", resp.Results[0].Snippet)
}

func TestService_Search_LabelMatch(t *testing.T) {
	t.Parallel()

	resp, err := newTestService(nil).Search(context.Background(), "venite", 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Venite", resp.Results[0].Snippet)
}

func TestService_Search_MatchesAcrossLineBreaks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantLabel   string
		wantSnippet string
	}{
		{name: "within a line", query: "OPEN OUR", wantLabel: "Morning Prayer", wantSnippet: "Lord, open our lips."},
		{name: "spanning two lines", query: "our lips.\nand our mouth", wantLabel: "Morning Prayer", wantSnippet: "Lord, open our lips."},
		{name: "spanning label and body", query: "jubilate\njubilate\nbe joyful", wantLabel: "Jubilate", wantSnippet: "Jubilate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := newTestService(nil).Search(context.Background(), tt.query, 10)
			require.NoError(t, err)
			require.Len(t, resp.Results, 1)
			assert.Equal(t, tt.wantLabel, resp.Results[0].Label)
			assert.Equal(t, tt.wantSnippet, resp.Results[0].Snippet)
		})
	}
}

func TestService_Search_Limit(t *testing.T) {
	t.Parallel()

	resp, err := newTestService(nil).Search(context.Background(), "lord", 1)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestService_Search_NoMatchesIsEmptySlice(t *testing.T) {
	t.Parallel()

	resp, err := newTestService(nil).Search(context.Background(), "zzz", 0)
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestService_Search_EmptyQuery(t *testing.T) {
	t.Parallel()

	_, err := newTestService(nil).Search(context.Background(), "   ", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Search_Engine(t *testing.T) {
	t.Parallel()

	var gotLimit int
	eng := &mockEngine{
		HealthyFunc: func() bool { return true },
		SearchFunc: func(_ context.Context, query string, limit int) ([]provider.SearchRecord, error) {
			gotLimit = limit
			return []provider.SearchRecord{{Path: "/document/x", Label: "X", Snippet: "<mark>x</mark>"}}, nil
		},
	}

	resp, err := newTestService(eng).Search(context.Background(), "x", 500)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, gotLimit)
	assert.Equal(t, EngineMeilisearch, resp.Engine)
	assert.Equal(t, []Result{{Path: "/document/x", Label: "X", Snippet: "<mark>x</mark>"}}, resp.Results)
}

func TestService_Search_EngineErrorFallsBack(t *testing.T) {
	t.Parallel()

	eng := &mockEngine{
		HealthyFunc: func() bool { return true },
		SearchFunc: func(context.Context, string, int) ([]provider.SearchRecord, error) {
			return nil, errors.New("boom")
		},
	}

	resp, err := newTestService(eng).Search(context.Background(), "venite", 0)
	require.NoError(t, err)
	assert.Equal(t, EngineMemory, resp.Engine)
	assert.Len(t, resp.Results, 1)
}

func TestService_Search_UnhealthyEngineSkipped(t *testing.T) {
	t.Parallel()

	eng := &mockEngine{
		HealthyFunc: func() bool { return false },
		SearchFunc: func(context.Context, string, int) ([]provider.SearchRecord, error) {
			t.Fatal("unhealthy engine must not be queried")
			return nil, nil
		},
	}

	resp, err := newTestService(eng).Search(context.Background(), "venite", 0)
	require.NoError(t, err)
	assert.Equal(t, EngineMemory, resp.Engine)
}

func TestService_Reindex(t *testing.T) {
	t.Parallel()

	var got []provider.SearchRecord
	eng := &mockEngine{
		HealthyFunc: func() bool { return true },
		ReplaceFunc: func(_ context.Context, records []provider.SearchRecord) error {
			got = records
			return nil
		},
	}

	svc := newTestService(eng)
	require.NoError(t, svc.Reindex(context.Background(), searchIndex()))
	assert.Len(t, got, 3)
}

func TestService_Reindex_Error(t *testing.T) {
	t.Parallel()

	eng := &mockEngine{
		HealthyFunc: func() bool { return true },
		ReplaceFunc: func(context.Context, []provider.SearchRecord) error { return errors.New("down") },
	}

	err := newTestService(eng).Reindex(context.Background(), searchIndex())
	assert.ErrorContains(t, err, "down")
}

func TestService_Reindex_NoEngine(t *testing.T) {
	t.Parallel()

	assert.NoError(t, newTestService(nil).Reindex(context.Background(), searchIndex()))

	eng := &mockEngine{HealthyFunc: func() bool { return false }}
	assert.NoError(t, newTestService(eng).Reindex(context.Background(), searchIndex()))
}
