// Package compiler is a client for the document compiler service, which
// expands a liturgy for a date, observance and set of preferences.
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/provider"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// Provider posts compile requests over HTTP. Requests are never retried.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider for baseURL. A zero timeout selects the default.
func NewProvider(baseURL string, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "compiler"),
	}
}

// compileBody is the wire form of provider.CompileRequest. Preferences travel
// as [key, value] pairs.
type compileBody struct {
	Document    domain.Document            `json:"document"`
	Calendar    domain.CalendarID          `json:"calendar"`
	Day         domain.LiturgicalDay       `json:"day"`
	Observed    string                     `json:"observed"`
	Preferences json.RawMessage            `json:"preferences"`
	Schema      []domain.LiturgyPreference `json:"schema,omitempty"`
}

// Compile returns the compiled document, or nil when the liturgy compiles to
// nothing for the given day. Failures wrap domain.ErrCompile.
func (p *Provider) Compile(ctx context.Context, req provider.CompileRequest) (*domain.Document, error) {
	prefs, err := req.Preferences.EncodePairs()
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	body, err := json.Marshal(compileBody{
		Document:    req.Document,
		Calendar:    req.Calendar,
		Day:         req.Day,
		Observed:    req.Observed,
		Preferences: json.RawMessage(prefs),
		Schema:      req.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("compiler: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/compile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("compiler: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.log.ErrorContext(ctx, "compile request failed", slog.String("observed", req.Observed), slog.String("error", err.Error()))
		return nil, fmt.Errorf("compiler: request failed: %w: %w", domain.ErrCompile, err)
	}
	defer resp.Body.Close()

	p.log.DebugContext(ctx, "compile response",
		slog.String("observed", req.Observed),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("compiler: status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(msg)), domain.ErrCompile)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("compiler: read body: %w: %w", domain.ErrCompile, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("compiler: decode json: %w: %w", domain.ErrCompile, err)
	}
	return &doc, nil
}
