// Package search indexes and queries documents in Meilisearch.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/heartmarshall/commonprayer-backend/internal/provider"
)

const healthInterval = 10 * time.Second

// Meili implements the search engine over a single Meilisearch index.
type Meili struct {
	client  meili.ServiceManager
	index   string
	healthy atomic.Bool
	done    chan struct{}
	once    sync.Once
	log     *slog.Logger

	mu      sync.Mutex
	indexed map[string]struct{}
}

// NewMeili creates a Meilisearch client and configures the index. An
// unreachable server is not an error: the client reports unhealthy and keeps
// probing in the background.
func NewMeili(logger *slog.Logger, url, apiKey, index string) *Meili {
	m := &Meili{
		client:  meili.New(url, meili.WithAPIKey(apiKey)),
		index:   index,
		done:    make(chan struct{}),
		log:     logger.With("adapter", "meilisearch"),
		indexed: make(map[string]struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.log.Warn("meilisearch unavailable", slog.String("url", url), slog.String("error", err.Error()))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		m.log.Debug("create index (may already exist)", slog.String("index", m.index), slog.String("error", err.Error()))
	}

	idx := m.client.Index(m.index)
	filterable := []interface{}{"category", "version"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", slog.String("error", err.Error()))
	}
	searchable := []string{"label", "text"}
	if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", slog.String("error", err.Error()))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	m.once.Do(func() { close(m.done) })
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Ping reports an error when Meilisearch is unreachable.
func (m *Meili) Ping(context.Context) error {
	if _, err := m.client.Health(); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("meilisearch: %w", err)
	}
	return nil
}

// Replace upserts records and removes previously indexed records that are no
// longer present.
func (m *Meili) Replace(_ context.Context, records []provider.SearchRecord) error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.client.Index(m.index)
	if len(records) > 0 {
		if _, err := idx.AddDocuments(records, nil); err != nil {
			return fmt.Errorf("meilisearch add documents: %w", err)
		}
	}

	current := make(map[string]struct{}, len(records))
	for _, r := range records {
		current[r.ID] = struct{}{}
	}
	for id := range m.indexed {
		if _, ok := current[id]; ok {
			continue
		}
		if _, err := idx.DeleteDocument(id, nil); err != nil {
			m.log.Warn("delete stale document", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	m.indexed = current
	return nil
}

// Search runs a full-text query against the index.
func (m *Meili) Search(_ context.Context, query string, limit int) ([]provider.SearchRecord, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	resp, err := m.client.Index(m.index).Search(query, &meili.SearchRequest{
		Limit:                 int64(limit),
		AttributesToHighlight: []string{"text"},
		AttributesToCrop:      []string{"text"},
		CropLength:            24,
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	out := make([]provider.SearchRecord, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		out = append(out, hitToRecord(hit))
	}
	return out, nil
}

func hitToRecord(hit meili.Hit) provider.SearchRecord {
	r := provider.SearchRecord{
		ID:       decodeString(hit, "id"),
		Path:     decodeString(hit, "path"),
		Category: decodeString(hit, "category"),
		Slug:     decodeString(hit, "slug"),
		Version:  decodeString(hit, "version"),
		Label:    decodeString(hit, "label"),
		Text:     decodeString(hit, "text"),
	}
	r.Snippet = firstNonBlank(decodeFormattedString(hit, "text"), r.Text)
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
