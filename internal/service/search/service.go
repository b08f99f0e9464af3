// Package search finds documents by text. It queries the external search
// engine when one is configured and healthy, and otherwise scans the current
// table of contents in memory.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/provider"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	EngineMeilisearch = "meilisearch"
	EngineMemory      = "memory"
)

var recordNamespace = uuid.MustParse("6f1c1f4e-5b7a-4d0e-9a53-0c6a1d2e7f10")

type indexStore interface {
	Load() *toc.Index
}

type engine interface {
	Healthy() bool
	Replace(ctx context.Context, records []provider.SearchRecord) error
	Search(ctx context.Context, query string, limit int) ([]provider.SearchRecord, error)
}

// Result is one search hit.
type Result struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Slug     string `json:"slug,omitempty"`
	Version  string `json:"version,omitempty"`
	Label    string `json:"label"`
	Snippet  string `json:"snippet,omitempty"`
}

// Response is the outcome of a search.
type Response struct {
	Query   string   `json:"query"`
	Engine  string   `json:"engine"`
	Results []Result `json:"results"`
}

// Service is the search facade.
type Service struct {
	store  indexStore
	engine engine
	log    *slog.Logger
}

// NewService creates a search service. engine may be nil.
func NewService(logger *slog.Logger, store indexStore, engine engine) *Service {
	return &Service{
		store:  store,
		engine: engine,
		log:    logger.With("service", "search"),
	}
}

// Search returns documents matching query. limit is clamped to [1, MaxLimit];
// zero selects DefaultLimit.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "required")
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	if s.engine != nil && s.engine.Healthy() {
		hits, err := s.engine.Search(ctx, query, limit)
		if err == nil {
			return &Response{Query: query, Engine: EngineMeilisearch, Results: toResults(hits)}, nil
		}
		s.log.WarnContext(ctx, "search engine failed, falling back to memory", slog.String("error", err.Error()))
	}

	return &Response{Query: query, Engine: EngineMemory, Results: s.scan(query, limit)}, nil
}

func (s *Service) scan(query string, limit int) []Result {
	results := []Result{}
	for _, r := range Records(s.store.Load()) {
		if len(results) >= limit {
			break
		}
		snippet, ok := match(r, query)
		if !ok {
			continue
		}
		res := toResult(r)
		res.Snippet = snippet
		results = append(results, res)
	}
	return results
}

// Reindex pushes every searchable document of idx to the search engine.
// Without a healthy engine it does nothing.
func (s *Service) Reindex(ctx context.Context, idx *toc.Index) error {
	if s.engine == nil || !s.engine.Healthy() {
		return nil
	}
	records := Records(idx)
	if err := s.engine.Replace(ctx, records); err != nil {
		return fmt.Errorf("search: reindex: %w", err)
	}
	s.log.InfoContext(ctx, "search index rebuilt", slog.Int("records", len(records)), slog.String("revision", idx.Revision()))
	return nil
}

// Records flattens the table of contents into search records: one per
// document page and one per document listed on a category page. Parallel
// pages repeat documents found elsewhere and are skipped.
func Records(idx *toc.Index) []provider.SearchRecord {
	var out []provider.SearchRecord
	for _, e := range idx.Entries() {
		switch e.Page.Kind {
		case domain.PageDocument:
			if e.Page.Document == nil {
				continue
			}
			doc := *e.Page.Document
			version := doc.Version
			if version == "" && e.Version != nil {
				version = *e.Version
			}
			path := "/document/" + e.Category + "/" + e.Page.Slug
			if version != "" {
				path += "/" + version.String()
			}
			out = append(out, newRecord(path, path, e.Category, e.Page.Slug, version, doc.LabelOr(e.Page.Slug), doc.PlainText()))
		case domain.PageCategory:
			path := "/document/" + e.Category
			if e.Page.Version != "" {
				path += "/" + e.Page.Version.String()
			}
			for i, doc := range e.Page.Documents {
				version := doc.Version
				if version == "" {
					version = e.Page.Version
				}
				key := fmt.Sprintf("%s#%d", path, i)
				out = append(out, newRecord(key, path, e.Category, "", version, doc.LabelOr(e.Page.Label), doc.PlainText()))
			}
		}
	}
	return out
}

func newRecord(key, path, category, slug string, version domain.Version, label, text string) provider.SearchRecord {
	return provider.SearchRecord{
		ID:       uuid.NewSHA1(recordNamespace, []byte(key)).String(),
		Path:     path,
		Category: category,
		Slug:     slug,
		Version:  version.String(),
		Label:    label,
		Text:     text,
	}
}

// match reports whether query occurs, case-insensitively, anywhere in the
// record's label and text, across line breaks too. The snippet is the line
// where the match starts, or the first line when it starts in the label.
func match(r provider.SearchRecord, query string) (string, bool) {
	q := strings.ToLower(query)
	if !strings.Contains(strings.ToLower(r.Label+"\n"+r.Text), q) {
		return "", false
	}
	at := strings.Index(strings.ToLower(r.Text), q)
	if at < 0 {
		return firstLine(r.Text), true
	}
	// Lowercasing never adds or drops a newline, so line numbers agree.
	n := strings.Count(strings.ToLower(r.Text)[:at], "\n")
	return strings.Split(r.Text, "\n")[n], true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func toResults(hits []provider.SearchRecord) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, toResult(h))
	}
	return out
}

func toResult(r provider.SearchRecord) Result {
	return Result{
		Path:     r.Path,
		Category: r.Category,
		Slug:     r.Slug,
		Version:  r.Version,
		Label:    r.Label,
		Snippet:  r.Snippet,
	}
}
