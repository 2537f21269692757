package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_APIHealth(t *testing.T) {
	h := NewHealthHandler("vf-viewer", "1.2.3")
	w := httptest.NewRecorder()

	h.APIHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"vf-viewer"}`, w.Body.String())
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("vf", "1.2.3", CheckFunc{Label: "redis", Fn: func(context.Context) error {
		t.Fatal("liveness must not probe dependencies")
		return nil
	}})
	w := httptest.NewRecorder()

	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := CheckFunc{Label: "redis", Fn: func(context.Context) error { return nil }}
	down := CheckFunc{Label: "minio", Fn: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("no checkers", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("vf", "dev").Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})

	t.Run("all healthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("vf", "dev", ok).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "healthy", resp.Components["redis"].Status)
	})

	t.Run("one failing", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler("vf", "dev", ok, down).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "healthy", resp.Components["redis"].Status)
		assert.Equal(t, "unhealthy", resp.Components["minio"].Status)
		assert.Equal(t, "connection refused", resp.Components["minio"].Error)
	})
}
