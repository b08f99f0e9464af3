// Package toc holds the table of contents: an immutable index from
// (category, version) to the pages published under it.
package toc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// Entry declares one page under a category. A nil Version makes the page
// available under every version of the category.
type Entry struct {
	Category string          `json:"category"          yaml:"category"`
	Version  *domain.Version `json:"version,omitempty" yaml:"version,omitempty"`
	Page     domain.Page     `json:"page"              yaml:"page"`
}

type bucketKey struct {
	category string
	version  domain.Version // "" is the version-agnostic bucket
}

// Index is read-only after Build and safe for concurrent use.
type Index struct {
	buckets    map[bucketKey][]domain.Page
	entries    []Entry
	categories []string
	labels     map[string]string
	revision   string
}

// Build groups entries by (category, version), preserving declaration order.
// labels maps a category to its display name.
func Build(entries []Entry, labels map[string]string) *Index {
	idx := &Index{
		buckets: make(map[bucketKey][]domain.Page),
		entries: make([]Entry, 0, len(entries)),
		labels:  make(map[string]string, len(labels)),
	}
	for k, v := range labels {
		idx.labels[k] = v
	}

	for _, e := range entries {
		key := bucketKey{category: e.Category}
		if e.Version != nil {
			key.version = *e.Version
		}
		page := e.Page.Clone()
		idx.buckets[key] = append(idx.buckets[key], page)

		stored := Entry{Category: e.Category, Page: page}
		if e.Version != nil {
			v := *e.Version
			stored.Version = &v
		}
		idx.entries = append(idx.entries, stored)

		if !slices.Contains(idx.categories, e.Category) {
			idx.categories = append(idx.categories, e.Category)
		}
	}
	idx.revision = contentRevision(idx.entries, idx.labels)
	return idx
}

// contentRevision hashes the canonical JSON of the entries and labels.
// encoding/json sorts map keys, so equal corpora hash equally in every process.
func contentRevision(entries []Entry, labels map[string]string) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(entries)
	_ = enc.Encode(labels)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// Lookup returns the pages under (category, version). With a concrete version the
// version-agnostic pages of the category follow the versioned ones. The returned
// slice is fresh; the pages it holds must be treated as read-only.
func (idx *Index) Lookup(category string, version *domain.Version) []domain.Page {
	if idx == nil {
		return nil
	}
	var out []domain.Page
	if version != nil {
		out = append(out, idx.buckets[bucketKey{category: category, version: *version}]...)
	}
	out = append(out, idx.buckets[bucketKey{category: category}]...)
	return out
}

// CategoryLabel returns the display name of a category, or the category itself.
func (idx *Index) CategoryLabel(category string) string {
	if idx != nil {
		if label, ok := idx.labels[category]; ok && label != "" {
			return label
		}
	}
	return category
}

// Categories lists categories in first-declared order.
func (idx *Index) Categories() []string {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.categories)
}

// Entries returns every entry in declaration order.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.entries)
}

// Revision is a digest of the index content. Indexes built from the same
// corpus share it, in this process or any other, and any edit changes it.
func (idx *Index) Revision() string {
	if idx == nil {
		return ""
	}
	return idx.revision
}

// Len is the number of pages in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}
