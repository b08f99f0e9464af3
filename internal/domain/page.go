package domain

import "fmt"

// PageKind discriminates the variants of Page.
type PageKind string

const (
	PageDocument PageKind = "document"
	PageCategory PageKind = "category"
	PageParallel PageKind = "parallel"
)

func (k PageKind) String() string { return string(k) }

func (k PageKind) IsValid() bool {
	switch k {
	case PageDocument, PageCategory, PageParallel:
		return true
	}
	return false
}

// Page is an addressable unit in the table of contents.
//
//   - document: Slug and Document are set.
//   - category: Label, Version and Documents (the listing) are set.
//   - parallel: Slug, Label, Reference and Documents (the comparisons) are set.
type Page struct {
	Kind      PageKind   `json:"kind"                yaml:"kind"`
	Slug      string     `json:"slug,omitempty"      yaml:"slug,omitempty"`
	Label     string     `json:"label,omitempty"     yaml:"label,omitempty"`
	Version   Version    `json:"version,omitempty"   yaml:"version,omitempty"`
	Document  *Document  `json:"document,omitempty"  yaml:"document,omitempty"`
	Reference *Document  `json:"reference,omitempty" yaml:"reference,omitempty"`
	Documents []Document `json:"documents,omitempty" yaml:"documents,omitempty"`
}

func NewDocumentPage(slug string, doc Document) Page {
	return Page{Kind: PageDocument, Slug: slug, Document: &doc}
}

func NewCategoryPage(label string, version Version, docs []Document) Page {
	return Page{Kind: PageCategory, Label: label, Version: version, Documents: docs}
}

func NewParallelPage(slug, label string, reference Document, comparisons []Document) Page {
	return Page{Kind: PageParallel, Slug: slug, Label: label, Reference: &reference, Documents: comparisons}
}

// Clone returns a deep copy of the page and every document it holds.
func (p Page) Clone() Page {
	out := p
	if p.Document != nil {
		d := p.Document.Clone()
		out.Document = &d
	}
	if p.Reference != nil {
		r := p.Reference.Clone()
		out.Reference = &r
	}
	if p.Documents != nil {
		out.Documents = make([]Document, len(p.Documents))
		for i, d := range p.Documents {
			out.Documents[i] = d.Clone()
		}
	}
	return out
}

// Validate checks that the fields required by the page's kind are present.
func (p Page) Validate() error {
	var errs []FieldError
	switch p.Kind {
	case PageDocument:
		if p.Slug == "" {
			errs = append(errs, FieldError{Field: "slug", Message: "required for document pages"})
		}
		if p.Document == nil {
			errs = append(errs, FieldError{Field: "document", Message: "required for document pages"})
		}
	case PageCategory:
		if p.Label == "" {
			errs = append(errs, FieldError{Field: "label", Message: "required for category pages"})
		}
		if p.Version != "" && !p.Version.IsValid() {
			errs = append(errs, FieldError{Field: "version", Message: fmt.Sprintf("unknown version %q", p.Version)})
		}
	case PageParallel:
		if p.Slug == "" {
			errs = append(errs, FieldError{Field: "slug", Message: "required for parallel pages"})
		}
		if p.Reference == nil {
			errs = append(errs, FieldError{Field: "reference", Message: "required for parallel pages"})
		}
	default:
		errs = append(errs, FieldError{Field: "kind", Message: fmt.Sprintf("unknown page kind %q", p.Kind)})
	}
	if p.Document != nil && p.Document.Version != "" && !p.Document.Version.IsValid() {
		errs = append(errs, FieldError{Field: "document.version", Message: fmt.Sprintf("unknown version %q", p.Document.Version)})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
