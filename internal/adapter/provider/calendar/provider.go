// Package calendar is a client for the liturgical calendar service.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/provider"
)

const defaultTimeout = 10 * time.Second

// Provider looks up liturgical days over HTTP.
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
		log:        logger.With("adapter", "calendar"),
	}
}

// LiturgicalDay returns the observance for one date.
// An unknown calendar or an out-of-range date yields domain.ErrNotFound.
func (p *Provider) LiturgicalDay(ctx context.Context, req provider.DayRequest) (*domain.LiturgicalDay, error) {
	q := url.Values{}
	q.Set("evening", strconv.FormatBool(req.Evening))
	reqURL := fmt.Sprintf("%s/calendars/%s/days/%s?%s",
		p.baseURL, url.PathEscape(req.Calendar.String()), req.Date.String(), q.Encode())

	p.log.DebugContext(ctx, "calendar request",
		slog.String("calendar", req.Calendar.String()),
		slog.String("date", req.Date.String()),
		slog.Bool("evening", req.Evening),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar: create request: %w", err)
	}

	var day domain.LiturgicalDay
	if err := p.do(ctx, httpReq, nil, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

type batchRequest struct {
	Dates   []domain.Date `json:"dates"`
	Evening bool          `json:"evening"`
}

// LiturgicalDays looks up several dates of one calendar in a single call.
// The result is index-aligned with dates.
func (p *Provider) LiturgicalDays(ctx context.Context, calendar domain.CalendarID, dates []domain.Date) ([]domain.LiturgicalDay, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(batchRequest{Dates: dates})
	if err != nil {
		return nil, fmt.Errorf("calendar: encode batch: %w", err)
	}
	reqURL := fmt.Sprintf("%s/calendars/%s/days:batch", p.baseURL, url.PathEscape(calendar.String()))

	p.log.DebugContext(ctx, "calendar batch request",
		slog.String("calendar", calendar.String()),
		slog.Int("dates", len(dates)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var days []domain.LiturgicalDay
	if err := p.do(ctx, httpReq, body, &days); err != nil {
		return nil, err
	}
	if len(days) != len(dates) {
		return nil, fmt.Errorf("calendar: batch returned %d days for %d dates", len(days), len(dates))
	}
	return days, nil
}

func (p *Provider) do(ctx context.Context, req *http.Request, body []byte, out any) error {
	resp, err := p.doWithRetry(ctx, req, body)
	if err != nil {
		p.log.ErrorContext(ctx, "calendar request failed", slog.String("url", req.URL.Path), slog.String("error", err.Error()))
		return fmt.Errorf("calendar: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("calendar %s: %w", req.URL.Path, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("calendar: read body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("calendar: decode json: %w", err)
	}
	return nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
// Calendar lookups are idempotent, so replaying a batch POST is safe.
func (p *Provider) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	attempt := func() (*http.Response, error) {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}
		return p.httpClient.Do(req)
	}

	resp, err := attempt()

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "calendar retry", slog.String("url", req.URL.Path), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	return attempt()
}
