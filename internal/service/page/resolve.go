package page

import (
	"fmt"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// Index is the read side of the table of contents.
type Index interface {
	Lookup(category string, version *domain.Version) []domain.Page
}

// SummaryEntry describes one candidate of an ambiguous request.
type SummaryEntry struct {
	Source  *domain.Reference `json:"source,omitempty"`
	Version domain.Version    `json:"version,omitempty"`
	Slug    *string           `json:"slug,omitempty"`
	Label   string            `json:"label"`
}

// Path is the document path that selects this entry unambiguously.
func (e SummaryEntry) Path(category string) string {
	if e.Slug != nil {
		return fmt.Sprintf("%s/%s/%s", category, *e.Slug, e.Version)
	}
	return fmt.Sprintf("%s/%s", category, e.Version)
}

// Resolution is the outcome of Resolve: either a single page or, when several
// candidates match, a summary listing them in index order.
type Resolution struct {
	Page    *domain.Page
	Summary []SummaryEntry
}

// IsSummary reports whether the request was ambiguous.
func (r *Resolution) IsSummary() bool {
	return r != nil && r.Page == nil
}

// Resolve selects the page for a request. It returns nil when nothing matches.
// The index is never modified; a selected page is returned as a deep copy.
func Resolve(idx Index, category string, slug *string, version *domain.Version) *Resolution {
	var matched []domain.Page
	for _, p := range idx.Lookup(category, version) {
		if candidateMatches(p, slug, version) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		return nil
	case 1:
		selected := matched[0].Clone()
		return &Resolution{Page: &selected}
	}

	summary := make([]SummaryEntry, 0, len(matched))
	for _, p := range matched {
		summary = append(summary, summarize(p))
	}
	return &Resolution{Summary: summary}
}

func candidateMatches(p domain.Page, slug *string, version *domain.Version) bool {
	switch {
	case slug != nil:
		switch p.Kind {
		case domain.PageDocument:
			return p.Slug == *slug && (version == nil || version.Matches(documentVersion(p)))
		case domain.PageCategory:
			return version == nil || *version == p.Version
		case domain.PageParallel:
			return p.Slug == *slug
		}
	case version != nil:
		switch p.Kind {
		case domain.PageDocument:
			return documentVersion(p) == *version
		case domain.PageCategory:
			return version.Matches(p.Version)
		case domain.PageParallel:
			// A parallel set is only addressable by slug.
			return false
		}
	default:
		return true
	}
	return false
}

func documentVersion(p domain.Page) domain.Version {
	if p.Document == nil {
		return ""
	}
	return p.Document.Version
}

func summarize(p domain.Page) SummaryEntry {
	switch p.Kind {
	case domain.PageDocument:
		slug := p.Slug
		entry := SummaryEntry{Version: documentVersion(p), Slug: &slug, Label: slug}
		if p.Document != nil {
			if p.Document.Source != nil {
				src := *p.Document.Source
				entry.Source = &src
			}
			entry.Label = p.Document.LabelOr(slug)
		}
		return entry
	case domain.PageParallel:
		slug := p.Slug
		return SummaryEntry{Version: domain.VersionParallel, Slug: &slug, Label: p.Label}
	default:
		return SummaryEntry{Version: p.Version, Label: p.Label}
	}
}

// SummaryGroup is a run of adjacent summary entries from the same source.
type SummaryGroup struct {
	Source     domain.Source  `json:"source,omitempty"`
	SourceName string         `json:"source_name,omitempty"`
	Entries    []SummaryEntry `json:"entries"`
}

// GroupSummary groups adjacent entries by source, keeping index order.
func GroupSummary(entries []SummaryEntry) []SummaryGroup {
	var groups []SummaryGroup
	for _, e := range entries {
		var src domain.Source
		if e.Source != nil {
			src = e.Source.Source
		}
		if n := len(groups); n > 0 && groups[n-1].Source == src {
			groups[n-1].Entries = append(groups[n-1].Entries, e)
			continue
		}
		g := SummaryGroup{Source: src, Entries: []SummaryEntry{e}}
		if src != "" {
			g.SourceName = src.LongName()
		}
		groups = append(groups, g)
	}
	return groups
}
