// Package pagestore persists the table of contents in PostgreSQL. Pages are
// stored as JSONB rows in declaration order; categories carry their labels.
package pagestore

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/commonprayer-backend/internal/adapter/postgres"
	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

const (
	pagesTable      = "toc_pages"
	categoriesTable = "toc_categories"

	insertChunkSize = 200
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides table-of-contents persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new page store.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Load returns every entry in declaration order and the category labels.
// It satisfies toc.Source.
func (r *Repo) Load(ctx context.Context) ([]toc.Entry, map[string]string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.
		Select("category", "version", "page").
		From(pagesTable).
		OrderBy("ordinal ASC").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build select pages: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, postgres.MapError(err, "toc", "pages")
	}
	defer rows.Close()

	var entries []toc.Entry
	for rows.Next() {
		var (
			category string
			version  *string
			raw      []byte
		)
		if err := rows.Scan(&category, &version, &raw); err != nil {
			return nil, nil, postgres.MapError(err, "toc", "pages")
		}
		e := toc.Entry{Category: category}
		if version != nil {
			v := domain.Version(*version)
			e.Version = &v
		}
		if err := json.Unmarshal(raw, &e.Page); err != nil {
			return nil, nil, fmt.Errorf("decode page in %s: %w", category, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, postgres.MapError(err, "toc", "pages")
	}

	labels, err := r.labels(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return entries, labels, nil
}

func (r *Repo) labels(ctx context.Context, q postgres.Querier) (map[string]string, error) {
	query, args, err := psql.Select("category", "label").From(categoriesTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select categories: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "toc", "categories")
	}
	defer rows.Close()

	labels := make(map[string]string)
	for rows.Next() {
		var category, label string
		if err := rows.Scan(&category, &label); err != nil {
			return nil, postgres.MapError(err, "toc", "categories")
		}
		labels[category] = label
	}
	return labels, postgres.MapError(rows.Err(), "toc", "categories")
}

// CountByCategory returns the number of stored pages per category.
func (r *Repo) CountByCategory(ctx context.Context) (map[string]int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.
		Select("category", "count(*)").
		From(pagesTable).
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count pages: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "toc", "pages")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, postgres.MapError(err, "toc", "pages")
		}
		counts[category] = n
	}
	return counts, postgres.MapError(rows.Err(), "toc", "pages")
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// ReplaceAll swaps the stored corpus for entries and labels. Call it inside
// TxManager.RunInTx so readers never observe a partial corpus.
func (r *Repo) ReplaceAll(ctx context.Context, entries []toc.Entry, labels map[string]string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	for _, table := range []string{pagesTable, categoriesTable} {
		query, args, err := psql.Delete(table).ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s: %w", table, err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, "toc", table)
		}
	}

	for start := 0; start < len(entries); start += insertChunkSize {
		end := min(start+insertChunkSize, len(entries))

		insert := psql.Insert(pagesTable).Columns("id", "ordinal", "category", "version", "kind", "slug", "page")
		for i, e := range entries[start:end] {
			raw, err := json.Marshal(e.Page)
			if err != nil {
				return fmt.Errorf("encode page %d: %w", start+i, err)
			}
			var version, slug *string
			if e.Version != nil {
				v := e.Version.String()
				version = &v
			}
			if e.Page.Slug != "" {
				s := e.Page.Slug
				slug = &s
			}
			insert = insert.Values(uuid.New(), start+i, e.Category, version, e.Page.Kind.String(), slug, raw)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert pages: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return postgres.MapError(err, "toc", pagesTable)
		}
	}

	if len(labels) == 0 {
		return nil
	}
	insert := psql.Insert(categoriesTable).Columns("category", "label")
	for category, label := range labels {
		insert = insert.Values(category, label)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert categories: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "toc", categoriesTable)
	}
	return nil
}
