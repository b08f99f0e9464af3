package page

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/parallel"
)

// Request addresses a page. Only Category is required.
type Request struct {
	Category    string
	Slug        *string
	Version     *domain.Version
	Date        *domain.Date
	Calendar    string
	Preferences string
	Alternate   string
	// Query filters category listings by text.
	Query string
}

// Validate checks the request shape. Preferences are not checked here: a
// malformed preference set is ignored rather than rejected.
func (r Request) Validate() error {
	var errs []domain.FieldError
	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, domain.FieldError{Field: "category", Message: "required"})
	}
	if r.Slug != nil && *r.Slug == "" {
		errs = append(errs, domain.FieldError{Field: "slug", Message: "must not be empty"})
	}
	if r.Version != nil && !r.Version.IsValid() {
		errs = append(errs, domain.FieldError{Field: "version", Message: fmt.Sprintf("unknown version %q", *r.Version)})
	}
	if r.Calendar != "" && !domain.CalendarID(r.Calendar).IsValid() {
		errs = append(errs, domain.FieldError{Field: "calendar", Message: fmt.Sprintf("unknown calendar %q", r.Calendar)})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// BasePath is the canonical document path of the request, without date or options.
func (r Request) BasePath() string {
	parts := []string{"/document", r.Category}
	if r.Slug != nil {
		parts = append(parts, *r.Slug)
	}
	if r.Version != nil {
		parts = append(parts, r.Version.String())
	}
	return strings.Join(parts, "/")
}

// Kind discriminates the variants of Result.
type Kind string

const (
	KindDocument  Kind = "document"
	KindCategory  Kind = "category"
	KindSummary   Kind = "summary"
	KindParallels Kind = "parallels"
)

// Result is a prepared page. Exactly one of Document, Category, Summary or
// Parallels is set, according to Kind.
type Result struct {
	Kind      Kind                  `json:"kind"`
	Title     string                `json:"title"`
	BasePath  string                `json:"base_path"`
	Slug      *string               `json:"slug,omitempty"`
	Date      *domain.Date          `json:"date,omitempty"`
	Day       *domain.LiturgicalDay `json:"day,omitempty"`
	Document  *domain.Document      `json:"document,omitempty"`
	Category  *CategoryListing      `json:"category,omitempty"`
	Summary   []SummaryGroup        `json:"summary,omitempty"`
	Parallels *ParallelSet          `json:"parallels,omitempty"`
}

// CategoryListing is a category page grouped for display.
type CategoryListing struct {
	Label   string          `json:"label"`
	Version domain.Version  `json:"version,omitempty"`
	Tree    []CategoryGroup `json:"tree"`
}

// ParallelSet is a parallel page with its aligned table.
type ParallelSet struct {
	Label string         `json:"label"`
	Table parallel.Table `json:"table"`
}
