package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/prometheus"
	"github.com/irisuniflora/VF/internal/interfaces/http/handlers"
	"github.com/irisuniflora/VF/internal/interfaces/http/middleware"
	"github.com/irisuniflora/VF/internal/testutil"
)

func newRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	logger := testutil.NewMockLogger()

	opts := viewer.DefaultOptions()
	opts.CoalesceWindow = 0
	opts.CameraRetryDelays = []time.Duration{time.Millisecond}
	svc := viewer.NewService(opts, viewer.WithLogger(logger))
	t.Cleanup(svc.Close)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "vf"}, logger)
	require.NoError(t, err)
	ld := loader.New()

	cors := middleware.DefaultCORSConfig()
	logCfg := middleware.DefaultLoggingConfig()
	return NewRouter(RouterConfig{
		FileHandler:      handlers.NewFileHandler(ld, logger, 0),
		StructureHandler: handlers.NewStructureHandler(ld, svc, logger, 0),
		ViewerHandler:    handlers.NewViewerHandler(svc, 0),
		HealthHandler:    handlers.NewHealthHandler("vf", "test"),
		StaticDir:        staticDir,
		CORS:             &cors,
		Logging:          &logCfg,
		Logger:           logger,
		Metrics:          prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
		MetricsPath:      "/metrics",
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRouter_Routes(t *testing.T) {
	router := newRouter(t, "")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK},
		{"api health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"read_pdb without path", http.MethodPost, "/api/read_pdb", `{}`, http.StatusBadRequest},
		{"structures", http.MethodGet, "/api/v1/structures", "", http.StatusOK},
		{"state without structure", http.MethodGet, "/api/v1/viewer/state", "", http.StatusConflict},
		{"unknown route", http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/health", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_LoadAndClick(t *testing.T) {
	router := newRouter(t, "")
	path := filepath.Join(t.TempDir(), "sample.pdb")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SamplePDB), 0o600))

	w := serve(router, http.MethodPost, "/api/v1/structures", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(router, http.MethodPost, "/api/v1/viewer/click?flush=true", `{"residue":"B:10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"selection":["B:10"]`)
}

func TestRouter_MetricsAndRequestID(t *testing.T) {
	router := newRouter(t, "")

	w := serve(router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vf_http_requests_total{method="GET",route="/api/health",status_code="200"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newRouter(t, "")
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/viewer/click", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>viewer</html>"), 0o600))
	router := newRouter(t, dir)

	w := serve(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viewer")

	w = serve(router, http.MethodGet, "/api/health", "")
	assert.JSONEq(t, `{"status":"ok","service":"vf"}`, w.Body.String())
}
