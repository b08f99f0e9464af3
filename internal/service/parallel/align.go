// Package parallel lays several editions of a liturgy side by side.
package parallel

import "github.com/heartmarshall/commonprayer-backend/internal/domain"

// Cell is one table cell spanning Span columns.
type Cell struct {
	Document domain.Document `json:"document"`
	Span     int             `json:"span"`
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Width is the number of columns the row covers.
func (r Row) Width() int {
	w := 0
	for _, c := range r.Cells {
		w += c.Span
	}
	return w
}

// Table is the aligned comparison. Every row is exactly Width columns wide.
type Table struct {
	Width int   `json:"width"`
	Rows  []Row `json:"rows"`
}

// Align walks the top-level children of reference and matches each tagged child
// against the same-tagged children of every comparison. An untagged child spans
// the whole table. A child with several tags yields one row per tag, in tag order.
// A reference without children is treated as a single row.
func Align(reference domain.Document, comparisons []domain.Document) Table {
	width := len(comparisons) + 1
	table := Table{Width: width}

	rows := reference.Children
	if len(rows) == 0 {
		rows = []domain.Document{reference}
	}

	for _, row := range rows {
		if len(row.Tags) == 0 {
			table.Rows = append(table.Rows, Row{Cells: []Cell{{Document: row.Clone(), Span: width}}})
			continue
		}
		for _, tag := range row.Tags {
			docs := make([]domain.Document, 0, width)
			docs = append(docs, row.Clone())
			for _, cmp := range comparisons {
				docs = append(docs, domain.SeriesOrDocument(cmp.ChildrenWithTag(tag)))
			}
			table.Rows = append(table.Rows, MergeRow(docs))
		}
	}
	return table
}

// MergeRow collapses runs of adjacent documents with the same content into one
// cell whose span is the run length. Equal documents that are not adjacent stay apart.
func MergeRow(docs []domain.Document) Row {
	var row Row
	for i, d := range docs {
		if i > 0 && d.SameContent(docs[i-1]) {
			row.Cells[len(row.Cells)-1].Span++
			continue
		}
		row.Cells = append(row.Cells, Cell{Document: d, Span: 1})
	}
	return row
}
