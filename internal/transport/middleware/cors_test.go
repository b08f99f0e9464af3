package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
)

var corsCfg = config.CORSConfig{
	AllowedOrigins:   "https://bcp.example, https://office.example",
	AllowedMethods:   "GET,POST,OPTIONS",
	AllowedHeaders:   "Authorization,Content-Type",
	AllowCredentials: true,
	MaxAge:           600,
}

func TestCORS_Preflight(t *testing.T) {
	wrapped := CORS(corsCfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/document/office", nil)
	req.Header.Set("Origin", "https://office.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	want := map[string]string{
		"Access-Control-Allow-Origin":      "https://office.example",
		"Access-Control-Allow-Methods":     "GET,POST,OPTIONS",
		"Access-Control-Allow-Headers":     "Authorization,Content-Type",
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Max-Age":           "600",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestCORS_PlainOptionsReachesRouter(t *testing.T) {
	called := false
	wrapped := CORS(corsCfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "https://bcp.example")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if !called {
		t.Fatal("OPTIONS without Access-Control-Request-Method must reach the handler")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.CORSConfig
		origin      string
		wantAllow   string
		wantCreds   string
		wantExposed bool
	}{
		{name: "listed origin with spaces trimmed", cfg: corsCfg, origin: "https://bcp.example", wantAllow: "https://bcp.example", wantCreds: "true", wantExposed: true},
		{name: "unlisted origin", cfg: corsCfg, origin: "https://evil.example"},
		{name: "no origin header", cfg: corsCfg, origin: ""},
		{
			name:        "wildcard echoes origin",
			cfg:         config.CORSConfig{AllowedOrigins: "*"},
			origin:      "https://any.example",
			wantAllow:   "https://any.example",
			wantExposed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			wrapped := CORS(tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/document/office", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if !called {
				t.Fatal("expected handler to be called")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
			exposed := rec.Header().Get("Access-Control-Expose-Headers")
			if tt.wantExposed != strings.Contains(exposed, RequestIDHeader) {
				t.Errorf("Expose-Headers = %q", exposed)
			}
			if got := rec.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want Origin", got)
			}
		})
	}
}
