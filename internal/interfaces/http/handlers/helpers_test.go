package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/testutil"
)

// newViewer returns a viewer service that rebuilds on every mutation.
func newViewer(t *testing.T) *viewer.Service {
	t.Helper()
	opts := viewer.DefaultOptions()
	opts.CoalesceWindow = 0
	opts.CameraRetryDelays = []time.Duration{time.Millisecond}
	svc := viewer.NewService(opts, viewer.WithLogger(testutil.NewMockLogger()))
	t.Cleanup(svc.Close)
	return svc
}

// newTestRouter mounts the structure and viewer handlers the way the
// server does.
func newTestRouter(t *testing.T, svc *viewer.Service) http.Handler {
	t.Helper()
	sh := NewStructureHandler(loader.New(), svc, testutil.NewMockLogger(), 0)
	vh := NewViewerHandler(svc, 0)

	r := chi.NewRouter()
	r.Route("/api/v1/structures", func(sr chi.Router) {
		sr.Get("/", sh.List)
		sr.Post("/", sh.Load)
		sr.Put("/active", sh.Activate)
		sr.Get("/{structureID}", sh.Get)
		sr.Delete("/{structureID}", sh.Remove)
		sr.Get("/{structureID}/sequence", sh.Sequence)
	})
	r.Route("/api/v1/viewer", func(vr chi.Router) {
		vr.Get("/state", vh.State)
		vr.Get("/scene", vh.Scene)
		vr.Get("/interactions", vh.Interactions)
		vr.Post("/click", vh.Click)
		vr.Post("/click-empty", vh.ClickEmpty)
		vr.Put("/selection", vh.Select)
		vr.Post("/pointer", vh.Pointer)
		vr.Post("/regions", vh.CreateRegion)
		vr.Put("/regions/active", vh.ActivateRegion)
		vr.Delete("/regions/{regionID}", vh.DeleteRegion)
		vr.Put("/color", vh.SetColor)
		vr.Delete("/color", vh.ClearColor)
		vr.Put("/style", vh.SetStyle)
		vr.Put("/scheme", vh.SetScheme)
		vr.Post("/representations/{kind}/toggle", vh.ToggleRepresentation)
		vr.Put("/representations/{kind}/mode", vh.SetRepresentationMode)
		vr.Post("/nearby/toggle", vh.ToggleNearby)
		vr.Post("/hetero/toggle", vh.ToggleHetero)
		vr.Post("/interactions/toggle", vh.ToggleInteractions)
		vr.Post("/overlay/toggle", vh.ToggleOverlay)
		vr.Put("/chains", vh.SetChains)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// loadSample posts the sample structure inline and returns its info.
func loadSample(t *testing.T, h http.Handler) viewer.StructureInfo {
	t.Helper()
	body, err := json.Marshal(loader.Request{Name: "sample", Content: testutil.SamplePDB})
	require.NoError(t, err)
	w := do(t, h, http.MethodPost, "/api/v1/structures", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[LoadResponse](t, w).Structure
}
