// Package page turns a document request into a renderable page: it resolves
// the request against the table of contents, then compiles, lists or aligns
// the result.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/provider"
	"github.com/heartmarshall/commonprayer-backend/internal/service/parallel"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

type indexStore interface {
	Load() *toc.Index
}

type calendarProvider interface {
	LiturgicalDay(ctx context.Context, req provider.DayRequest) (*domain.LiturgicalDay, error)
}

type documentCompiler interface {
	Compile(ctx context.Context, req provider.CompileRequest) (*domain.Document, error)
}

type documentCache interface {
	Get(ctx context.Context, key string) (*domain.Document, error)
	Set(ctx context.Context, key string, doc domain.Document) error
}

// Service resolves and prepares document pages.
type Service struct {
	log             *slog.Logger
	toc             indexStore
	calendar        calendarProvider
	compiler        documentCompiler
	cache           documentCache
	defaultCalendar domain.CalendarID
}

// NewService creates a page service. cache may be nil.
func NewService(
	logger *slog.Logger,
	store indexStore,
	calendar calendarProvider,
	compiler documentCompiler,
	cache documentCache,
	defaultCalendar domain.CalendarID,
) *Service {
	if defaultCalendar == "" {
		defaultCalendar = domain.DefaultCalendar
	}
	return &Service{
		log:             logger.With("service", "page"),
		toc:             store,
		calendar:        calendar,
		compiler:        compiler,
		cache:           cache,
		defaultCalendar: defaultCalendar,
	}
}

// GetPage resolves req and prepares the matching page.
//
// A document with no date is returned as its template. With a date, the
// liturgical day is looked up, preferences are parsed and liturgy content is
// sent to the compiler; compile failures are returned as is, never retried.
func (s *Service) GetPage(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	idx := s.toc.Load()
	if idx == nil {
		return nil, fmt.Errorf("page: table of contents not loaded: %w", domain.ErrNotFound)
	}

	res := Resolve(idx, req.Category, req.Slug, req.Version)
	if res == nil {
		return nil, fmt.Errorf("page %s: %w", req.BasePath(), domain.ErrNotFound)
	}

	out := &Result{
		BasePath: req.BasePath(),
		Slug:     req.Slug,
		Date:     req.Date,
	}

	if res.IsSummary() {
		out.Kind = KindSummary
		out.Title = idx.CategoryLabel(req.Category)
		out.Summary = GroupSummary(res.Summary)
		return out, nil
	}

	p := res.Page
	switch p.Kind {
	case domain.PageCategory:
		out.Kind = KindCategory
		out.Title = p.Label
		out.Category = &CategoryListing{
			Label:   p.Label,
			Version: p.Version,
			Tree:    BuildCategoryTree(p.Documents, req.Query),
		}
	case domain.PageParallel:
		if p.Reference == nil {
			return nil, fmt.Errorf("page %s: parallel set has no reference: %w", req.BasePath(), domain.ErrNotFound)
		}
		out.Kind = KindParallels
		out.Title = p.Label
		out.Parallels = &ParallelSet{
			Label: p.Label,
			Table: parallel.Align(*p.Reference, p.Documents),
		}
	default:
		if p.Document == nil {
			return nil, fmt.Errorf("page %s: %w", req.BasePath(), domain.ErrNotFound)
		}
		out.Kind = KindDocument
		doc, day, err := s.prepareDocument(ctx, idx.Revision(), req, *p.Document)
		if err != nil {
			return nil, err
		}
		out.Title = doc.LabelOr(defaultTitle)
		out.Document = doc
		out.Day = day
	}
	return out, nil
}

const defaultTitle = "Common Prayer"

func (s *Service) prepareDocument(
	ctx context.Context,
	revision string,
	req Request,
	doc domain.Document,
) (*domain.Document, *domain.LiturgicalDay, error) {
	if req.Date == nil {
		tmpl := doc.IntoTemplate()
		if tmpl == nil {
			return nil, nil, fmt.Errorf("page %s: %w", req.BasePath(), domain.ErrNotFound)
		}
		return tmpl, nil, nil
	}

	calendar := s.defaultCalendar
	if req.Calendar != "" {
		calendar = domain.CalendarID(req.Calendar)
	}

	var liturgy *domain.Liturgy
	if doc.Content.Kind == domain.ContentLiturgy {
		liturgy = doc.Content.Liturgy
	}
	evening := liturgy != nil && liturgy.Evening

	day, err := s.calendar.LiturgicalDay(ctx, provider.DayRequest{Calendar: calendar, Date: *req.Date, Evening: evening})
	if err != nil {
		return nil, nil, fmt.Errorf("page: liturgical day %s: %w", req.Date, err)
	}
	observed := day.ObservedFor(req.Alternate)

	prefs, err := domain.ParsePreferences(req.Preferences)
	if err != nil {
		s.log.WarnContext(ctx, "ignoring malformed preferences",
			slog.String("path", req.BasePath()),
			slog.String("error", err.Error()),
		)
		prefs = domain.Preferences{}
	}

	if doc.Content.Kind != domain.ContentLiturgy {
		tmpl := doc.IntoTemplate()
		if tmpl == nil {
			return nil, nil, fmt.Errorf("page %s: %w", req.BasePath(), domain.ErrNotFound)
		}
		return tmpl, day, nil
	}

	key := cacheKey(revision, req, calendar, observed, prefs)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, day, nil
	}

	var schema []domain.LiturgyPreference
	if liturgy != nil {
		schema = liturgy.Preferences
	}
	compiled, err := s.compiler.Compile(ctx, provider.CompileRequest{
		Document:    doc,
		Calendar:    calendar,
		Day:         *day,
		Observed:    observed,
		Preferences: prefs,
		Schema:      schema,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("page %s: %w", req.BasePath(), err)
	}
	if compiled == nil {
		return nil, nil, fmt.Errorf("page %s: compiled to nothing: %w", req.BasePath(), domain.ErrNotFound)
	}

	s.store(ctx, key, *compiled)
	return compiled, day, nil
}

func (s *Service) cached(ctx context.Context, key string) *domain.Document {
	if s.cache == nil {
		return nil
	}
	doc, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "document cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	return doc
}

func (s *Service) store(ctx context.Context, key string, doc domain.Document) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, doc); err != nil {
		s.log.WarnContext(ctx, "document cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func cacheKey(revision string, req Request, calendar domain.CalendarID, observed string, prefs domain.Preferences) string {
	encoded, err := prefs.EncodePairs()
	if err != nil {
		encoded = ""
	}
	return strings.Join([]string{
		"r" + revision,
		req.BasePath(),
		req.Date.String(),
		calendar.String(),
		observed,
		encoded,
	}, "|")
}
