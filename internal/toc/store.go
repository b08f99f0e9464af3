package toc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// Source loads the declarative corpus an Index is built from.
type Source interface {
	Load(ctx context.Context) ([]Entry, map[string]string, error)
}

// Store holds the current Index. Readers load it lock-free; Reload builds a new
// index from the source and swaps it in. Requests keep the index they loaded.
type Store struct {
	current atomic.Pointer[Index]
	source  Source
	log     *slog.Logger
	mu      sync.Mutex
}

// NewStore creates an empty Store; call Reload to load the first index.
func NewStore(logger *slog.Logger, source Source) *Store {
	return &Store{
		source: source,
		log:    logger.With("component", "toc"),
	}
}

// Load returns the current index, or nil before the first successful Reload.
func (s *Store) Load() *Index {
	return s.current.Load()
}

// Swap installs an index built elsewhere and returns the previous one.
// The index carries its own content revision from Build.
func (s *Store) Swap(idx *Index) *Index {
	return s.current.Swap(idx)
}

// Reload rebuilds the index from the source. On failure the current index is kept.
func (s *Store) Reload(ctx context.Context) (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	entries, labels, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("toc reload: %w", err)
	}

	var fieldErrs []domain.FieldError
	for i, e := range entries {
		if e.Category == "" {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: fmt.Sprintf("entries[%d].category", i), Message: "required"})
		}
		if e.Version != nil && !e.Version.IsValid() {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: fmt.Sprintf("entries[%d].version", i), Message: fmt.Sprintf("unknown version %q", *e.Version)})
		}
		if err := e.Page.Validate(); err != nil {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: fmt.Sprintf("entries[%d].page", i), Message: err.Error()})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fmt.Errorf("toc reload: %w", domain.NewValidationErrors(fieldErrs))
	}

	idx := Build(entries, labels)
	prev := s.current.Swap(idx)

	s.log.InfoContext(ctx, "table of contents loaded",
		slog.String("revision", idx.revision),
		slog.Bool("changed", prev.Revision() != idx.revision),
		slog.Int("pages", idx.Len()),
		slog.Int("categories", len(idx.Categories())),
		slog.Duration("duration", time.Since(start)),
	)
	return idx, nil
}
