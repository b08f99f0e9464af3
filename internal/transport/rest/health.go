package rest

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"

	probeTimeout = 3 * time.Second
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Component is a dependency reported by /ready and /health. An Optional
// component (cache, search) degrades the service when it is down but
// never takes it out of rotation.
type Component struct {
	Name     string
	Pinger   pinger
	Optional bool
}

type HealthHandler struct {
	components []Component
	version    string
	timeout    time.Duration
}

func NewHealthHandler(version string, components ...Component) *HealthHandler {
	return &HealthHandler{components: components, version: version, timeout: probeTimeout}
}

type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

type CompStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Live answers 200 as long as the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Timestamp: time.Now()})
}

// Ready checks the required components only. Failed ones are named in
// the body so the orchestrator's events say what is missing.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	required := make([]Component, 0, len(h.components))
	for _, c := range h.components {
		if !c.Optional {
			required = append(required, c)
		}
	}

	results := h.check(r.Context(), required)

	failed := make(map[string]CompStatus)
	for name, st := range results {
		if st.Status == statusDown {
			failed[name] = CompStatus{Status: statusDown, Error: st.Error}
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:     statusDown,
			Components: failed,
			Timestamp:  time.Now(),
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Timestamp: time.Now()})
}

// Health reports every component with its latency. A failed optional
// component yields "degraded" with 200; a failed required one yields
// "down" with 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	results := h.check(r.Context(), h.components)

	overall := statusOK
	for _, st := range results {
		if st.Status != statusDown {
			continue
		}
		if !st.Optional {
			overall = statusDown
			break
		}
		overall = statusDegraded
	}

	code := http.StatusOK
	if overall == statusDown {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: results,
		Timestamp:  time.Now(),
	})
}

// check pings the components concurrently, each under its own timeout,
// so one hung dependency cannot starve the others of their budget.
func (h *HealthHandler) check(ctx context.Context, components []Component) map[string]CompStatus {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]CompStatus, len(components))
	)
	for _, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := h.ping(ctx, c)
			mu.Lock()
			out[c.Name] = st
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

func (h *HealthHandler) ping(ctx context.Context, c Component) CompStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := c.Pinger.Ping(ctx)
	if err != nil {
		return CompStatus{Status: statusDown, Optional: c.Optional, Error: err.Error()}
	}
	return CompStatus{Status: statusOK, Optional: c.Optional, Latency: time.Since(start).String()}
}
