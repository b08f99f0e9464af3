//go:build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres/pagestore"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/provider/calendar"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/provider/compiler"
	authpkg "github.com/heartmarshall/commonprayer-backend/internal/auth"
	"github.com/heartmarshall/commonprayer-backend/internal/config"
	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/calendarview"
	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
	"github.com/heartmarshall/commonprayer-backend/internal/service/search"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
	"github.com/heartmarshall/commonprayer-backend/internal/transport/middleware"
	"github.com/heartmarshall/commonprayer-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL          string
	Client       *http.Client
	Pool         *pgxpool.Pool
	Repo         *pagestore.Repo
	jwt          *authpkg.JWTManager
	compileCalls *atomic.Int32
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Corpus stored in PostgreSQL before the server starts.
// ---------------------------------------------------------------------------

func morningPrayer(version domain.Version, label string) domain.Document {
	return domain.Document{
		Label:   ptr(label),
		Version: version,
		Source:  &domain.Reference{Source: domain.SourceBCP1979, Page: 75},
		Content: domain.Content{Kind: domain.ContentLiturgy, Liturgy: &domain.Liturgy{}},
		Children: []domain.Document{
			{Content: domain.Content{Kind: domain.ContentText, Text: "Lord, open our lips."}},
			{Content: domain.Content{Kind: domain.ContentRubric, Text: "Omitted today."}, Display: domain.DisplayHidden},
		},
	}
}

func seedEntries() ([]toc.Entry, map[string]string) {
	riteI := morningPrayer(domain.VersionRiteI, "Morning Prayer: Rite One")
	riteII := morningPrayer(domain.VersionRiteII, "Morning Prayer: Rite Two")
	venite := domain.Document{
		Label:   ptr("Venite"),
		Tags:    []string{"Invitatory"},
		Content: domain.Content{Kind: domain.ContentPsalm, Lines: []string{"Come, let us sing to the Lord;"}},
	}

	entries := []toc.Entry{
		{Category: "office", Page: domain.NewDocumentPage("morning-prayer", riteI)},
		{Category: "office", Page: domain.NewDocumentPage("morning-prayer", riteII)},
		{Category: "office", Version: ptr(domain.VersionParallel), Page: domain.NewParallelPage(
			"morning-prayer", "Morning Prayer in Parallel", riteII, []domain.Document{riteI})},
		{Category: "canticles", Page: domain.NewCategoryPage("Canticles", domain.VersionBCP1979, []domain.Document{venite})},
	}
	return entries, map[string]string{"office": "Daily Office", "canticles": "Canticles"}
}

// ---------------------------------------------------------------------------
// Fake calendar and compiler services.
// ---------------------------------------------------------------------------

func fakeCalendar(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		day := func(date string) domain.LiturgicalDay {
			d, _ := domain.ParseDate(date)
			return domain.LiturgicalDay{
				Date:     d,
				Observed: "christmas-day",
				Rank:     domain.RankPrincipalFeast,
				HolyDays: []domain.HolyDay{{Feast: "christmas-day", Name: "The Nativity of Our Lord", Rank: domain.RankPrincipalFeast}},
			}
		}
		if strings.HasSuffix(r.URL.Path, "/days:batch") {
			var body struct {
				Dates []string `json:"dates"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			days := make([]domain.LiturgicalDay, 0, len(body.Dates))
			for _, d := range body.Dates {
				days = append(days, day(d))
			}
			_ = json.NewEncoder(w).Encode(days)
			return
		}
		parts := strings.Split(r.URL.Path, "/")
		_ = json.NewEncoder(w).Encode(day(parts[len(parts)-1]))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fakeCompiler(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Document domain.Document `json:"document"`
			Observed string          `json:"observed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		compiled := body.Document
		compiled.Subtitle = ptr("Compiled for " + body.Observed)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(compiled)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// setupTestServer bootstraps the full application stack backed by
// a real PostgreSQL container (shared via testhelper).
// ---------------------------------------------------------------------------

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	// 1. Pool and page store.
	pool := testhelper.SetupTestDB(t)
	repo := pagestore.New(pool)
	txm := postgres.NewTxManager(pool)

	entries, labels := seedEntries()
	require.NoError(t, txm.RunInTx(ctx, func(ctx context.Context) error {
		return repo.ReplaceAll(ctx, entries, labels)
	}))

	// 2. Infrastructure.
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	store := toc.NewStore(logger, repo)
	_, err := store.Reload(ctx)
	require.NoError(t, err)

	// 3. External providers.
	var compileCalls atomic.Int32
	calendarProvider := calendar.NewProvider(fakeCalendar(t).URL, 5*time.Second, logger)
	compilerProvider := compiler.NewProvider(fakeCompiler(t, &compileCalls).URL, 5*time.Second, logger)

	// 4. JWT manager with a test secret (>= 32 chars).
	jwtMgr := authpkg.NewJWTManager("test-secret-at-least-32-chars-long!!", "test-issuer", 15*time.Minute)

	// 5. Services.
	pageService := page.NewService(logger, store, calendarProvider, compilerProvider, nil, domain.DefaultCalendar)
	calendarService := calendarview.NewService(logger, calendarProvider, domain.DefaultCalendar)
	searchService := search.NewService(logger, store, nil)

	// 6. Router and middleware chain.
	router := rest.NewRouter(rest.Handlers{
		Health:   rest.NewHealthHandler("test-version", rest.Component{Name: "database", Pinger: pool}),
		Document: rest.NewDocumentHandler(pageService, logger),
		Calendar: rest.NewCalendarHandler(calendarService, logger),
		Search:   rest.NewSearchHandler(searchService, logger),
		Admin:    rest.NewAdminHandler(store, searchService, logger),
	})
	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,OPTIONS",
			AllowedHeaders: "Authorization,Content-Type",
			MaxAge:         86400,
		}),
		middleware.Auth(jwtMgr),
	)(router)

	// 7. httptest server.
	srv := httptest.NewServer(handler)
	t.Cleanup(func() { srv.Close() })

	return &testServer{
		URL:          srv.URL,
		Client:       srv.Client(),
		Pool:         pool,
		Repo:         repo,
		jwt:          jwtMgr,
		compileCalls: &compileCalls,
	}
}

// ---------------------------------------------------------------------------
// Request helpers.
// ---------------------------------------------------------------------------

func (ts *testServer) getJSON(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func (ts *testServer) post(t *testing.T, path, token string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}
