package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/commonprayer-backend/internal/adapter/cache"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/corpus"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres/pagestore"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/provider/calendar"
	"github.com/heartmarshall/commonprayer-backend/internal/adapter/provider/compiler"
	searchadapter "github.com/heartmarshall/commonprayer-backend/internal/adapter/search"
	"github.com/heartmarshall/commonprayer-backend/internal/auth"
	"github.com/heartmarshall/commonprayer-backend/internal/config"
	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/calendarview"
	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
	"github.com/heartmarshall/commonprayer-backend/internal/service/search"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

// Deps holds the wired services shared by the HTTP and MCP entry points.
// Optional infrastructure is nil when not configured.
type Deps struct {
	Store    *toc.Store
	Pages    *page.Service
	Search   *search.Service
	Calendar *calendarview.Service

	Pool  *pgxpool.Pool
	Cache *cache.DocumentCache
	Meili *searchadapter.Meili
	JWT   *auth.JWTManager

	closers []func()
}

// Build connects infrastructure, loads the table of contents and creates the
// services. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps *Deps, err error) {
	d := &Deps{}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if cfg.TOC.Source == config.SourcePostgres {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		d.Pool = pool
		d.closers = append(d.closers, pool.Close)
		logger.Info("database connected", slog.Int("max_conns", int(cfg.Database.MaxConns)))
	}

	var source toc.Source
	switch cfg.TOC.Source {
	case config.SourcePostgres:
		source = pagestore.New(d.Pool)
	default:
		source = corpus.NewLoader(logger, cfg.TOC.Dir)
	}

	d.Store = toc.NewStore(logger, source)
	idx, err := d.Store.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("load table of contents: %w", err)
	}

	var docCache interface {
		Get(ctx context.Context, key string) (*domain.Document, error)
		Set(ctx context.Context, key string, doc domain.Document) error
	}
	if cfg.Cache.Enabled() {
		c, err := cache.NewDocumentCache(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		d.Cache = c
		docCache = c
		d.closers = append(d.closers, func() {
			if err := c.Close(); err != nil {
				logger.Warn("close cache", slog.String("error", err.Error()))
			}
		})
	}

	calendarProvider := calendar.NewProvider(cfg.Calendar.BaseURL, cfg.Calendar.Timeout, logger)
	compilerProvider := compiler.NewProvider(cfg.Compiler.BaseURL, cfg.Compiler.Timeout, logger)
	defaultCalendar := domain.CalendarID(cfg.Calendar.Default)

	d.Pages = page.NewService(logger, d.Store, calendarProvider, compilerProvider, docCache, defaultCalendar)
	d.Calendar = calendarview.NewService(logger, calendarProvider, defaultCalendar)

	if cfg.Search.Enabled() {
		d.Meili = searchadapter.NewMeili(logger, cfg.Search.MeiliURL, cfg.Search.MeiliAPIKey, cfg.Search.Index)
		d.closers = append(d.closers, d.Meili.Close)
		d.Search = search.NewService(logger, d.Store, d.Meili)
	} else {
		d.Search = search.NewService(logger, d.Store, nil)
	}
	if err := d.Search.Reindex(ctx, idx); err != nil {
		logger.Warn("initial search indexing failed", slog.String("error", err.Error()))
	}

	if cfg.Auth.AdminEnabled() {
		d.JWT = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	}

	return d, nil
}

// Close releases infrastructure in reverse order of acquisition.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// tocHealth reports the table of contents as down until an index is loaded.
type tocHealth struct {
	store *toc.Store
}

func (h tocHealth) Ping(context.Context) error {
	if h.store.Load() == nil {
		return errors.New("table of contents not loaded")
	}
	return nil
}
