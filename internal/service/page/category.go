package page

import (
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// CategoryGroup collects adjacent documents sharing their first tag.
type CategoryGroup struct {
	Name          string             `json:"name,omitempty"`
	Subcategories []SubcategoryGroup `json:"subcategories"`
}

// SubcategoryGroup collects adjacent documents sharing their second tag.
type SubcategoryGroup struct {
	Name   string       `json:"name,omitempty"`
	Labels []LabelGroup `json:"labels"`
}

// LabelGroup collects adjacent documents sharing a label.
type LabelGroup struct {
	Label     string            `json:"label,omitempty"`
	Documents []domain.Document `json:"documents"`
}

// BuildCategoryTree groups docs by tags[0], then tags[1], then label. Grouping
// is by adjacent runs, so the corpus order decides the layout. A non-empty
// query keeps only matching documents; a label group also survives when its
// label matches.
func BuildCategoryTree(docs []domain.Document, query string) []CategoryGroup {
	query = strings.TrimSpace(query)

	var tree []CategoryGroup
	for _, d := range docs {
		cat, sub, label := tagAt(d, 0), tagAt(d, 1), d.LabelOr("")

		if n := len(tree); n == 0 || tree[n-1].Name != cat {
			tree = append(tree, CategoryGroup{Name: cat})
		}
		c := &tree[len(tree)-1]

		if n := len(c.Subcategories); n == 0 || c.Subcategories[n-1].Name != sub {
			c.Subcategories = append(c.Subcategories, SubcategoryGroup{Name: sub})
		}
		s := &c.Subcategories[len(c.Subcategories)-1]

		if n := len(s.Labels); n == 0 || s.Labels[n-1].Label != label {
			s.Labels = append(s.Labels, LabelGroup{Label: label})
		}
		l := &s.Labels[len(s.Labels)-1]
		l.Documents = append(l.Documents, d.Clone())
	}

	if query == "" {
		return tree
	}
	return filterTree(tree, query)
}

func filterTree(tree []CategoryGroup, query string) []CategoryGroup {
	lowered := strings.ToLower(query)

	var out []CategoryGroup
	for _, c := range tree {
		var subs []SubcategoryGroup
		for _, s := range c.Subcategories {
			var labels []LabelGroup
			for _, l := range s.Labels {
				kept := []domain.Document{}
				for _, d := range l.Documents {
					if d.ContainsCaseInsensitive(query) {
						kept = append(kept, d)
					}
				}
				if len(kept) > 0 || strings.Contains(strings.ToLower(l.Label), lowered) {
					labels = append(labels, LabelGroup{Label: l.Label, Documents: kept})
				}
			}
			if len(labels) > 0 {
				subs = append(subs, SubcategoryGroup{Name: s.Name, Labels: labels})
			}
		}
		if len(subs) > 0 {
			out = append(out, CategoryGroup{Name: c.Name, Subcategories: subs})
		}
	}
	return out
}

func tagAt(d domain.Document, i int) string {
	if i < len(d.Tags) {
		return d.Tags[i]
	}
	return ""
}
