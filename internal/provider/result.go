// Package provider holds the request and result types exchanged with
// external services (calendar, document compiler).
package provider

import "github.com/heartmarshall/commonprayer-backend/internal/domain"

// CompileRequest carries everything the document compiler needs to expand a
// liturgy for one date.
type CompileRequest struct {
	Document    domain.Document
	Calendar    domain.CalendarID
	Day         domain.LiturgicalDay
	Observed    string
	Preferences domain.Preferences
	// Schema is the liturgy's own preference declarations.
	Schema []domain.LiturgyPreference
}

// DayRequest identifies one liturgical-day lookup.
type DayRequest struct {
	Calendar domain.CalendarID
	Date     domain.Date
	Evening  bool
}

// SearchRecord is one searchable document as stored in the search index.
type SearchRecord struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Category string `json:"category"`
	Slug     string `json:"slug,omitempty"`
	Version  string `json:"version,omitempty"`
	Label    string `json:"label"`
	Text     string `json:"text"`
	// Snippet is filled on results only, with matches highlighted.
	Snippet string `json:"-"`
}
