package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/pkg/middleware"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	var mw middleware.Stack

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://wallet.example"}}
	require.NoError(t, cfg.Finalize(nil))

	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "http://wallet.example", false, "", http.StatusOK},
		{"allowed origin", cfg, "GET", "http://wallet.example", false, "http://wallet.example", http.StatusOK},
		{"denied origin", cfg, "GET", "http://other.example", false, "", http.StatusOK},
		{"preflight", cfg, "OPTIONS", "http://wallet.example", true, "http://wallet.example", http.StatusNoContent},
		{"wildcard", &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}}, "GET", "http://any.example", false, "http://any.example", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/sessions", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()

			middleware.CORS(tt.cfg)(ok()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSDefaultsAllowFaceHeader(t *testing.T) {
	cfg := &middleware.CORSConfig{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Contains(t, cfg.AllowedHeaders, "X-Faces-Detected")
	assert.Contains(t, cfg.ExposedHeaders, middleware.RequestIDHeader)
	assert.Equal(t, 3600, cfg.MaxAge)
}

func TestCORSEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", " http://a.example , ,http://b.example")

	cfg := &middleware.CORSConfig{}
	require.NoError(t, cfg.Finalize(&middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
	}))

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins)
}

func TestCORSMerge(t *testing.T) {
	base := &middleware.CORSConfig{Origins: []string{"http://a.example"}, MaxAge: 60}
	base.Merge(&middleware.CORSConfig{Enabled: true, AllowedMethods: []string{"GET"}})

	assert.True(t, base.Enabled)
	assert.Equal(t, []string{"http://a.example"}, base.Origins)
	assert.Equal(t, []string{"GET"}, base.AllowedMethods)
	assert.Equal(t, 60, base.MaxAge)
}

func TestLoggerRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/sessions/abc", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(middleware.RequestIDHeader))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "id=req-1")
}

func TestLoggerGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(slog.New(slog.NewTextHandler(&buf, nil)))(ok())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)
	assert.True(t, strings.Contains(buf.String(), "level=INFO"))
}

func TestMetricsLabelsByPattern(t *testing.T) {
	reg := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Metrics(reg, "api")(mux)

	for _, id := range []string{"a", "b"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/sessions/"+id, nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "veridid_http_requests_total"))

	expected := `
# HELP veridid_http_requests_total HTTP requests by route, method, and status code
# TYPE veridid_http_requests_total counter
veridid_http_requests_total{code="200",method="GET",module="api",route="GET /sessions/{id}"} 2
veridid_http_requests_total{code="404",method="GET",module="api",route="unmatched"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "veridid_http_requests_total"))
}
