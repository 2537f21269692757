package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/selection"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// ViewerActions is the interactive half of the viewer service.
type ViewerActions interface {
	Click(ctx context.Context, k structure.ResidueKey, mods selection.Modifiers) error
	ClickEmpty(ctx context.Context) error
	Select(ctx context.Context, spec string) error
	CreateRegion(ctx context.Context) (selection.RegionView, error)
	ActivateRegion(ctx context.Context, regionID *int) error
	DeleteRegion(ctx context.Context, regionID int) error
	SetColor(ctx context.Context, color string, scope viewer.ColorScope) error
	ClearColor(ctx context.Context, scope viewer.ColorScope) error
	SetStyle(ctx context.Context, style string) error
	SetScheme(ctx context.Context, scheme string) error
	ToggleRepresentation(ctx context.Context, kind string) (bool, error)
	SetRepresentationMode(ctx context.Context, kind, mode string) error
	ToggleNearby(ctx context.Context) (bool, error)
	ToggleHetero(ctx context.Context) (bool, error)
	ToggleOverlay(ctx context.Context) (bool, error)
	ToggleInteractions(ctx context.Context) (bool, error)
	SetChains(ctx context.Context, chains []string) error
	Pointer(ev render.PointerEvent) error

	State() (viewer.StateView, error)
	Scene(ctx context.Context) (viewer.SceneView, error)
	Interactions() ([]interaction.Readout, error)
	Flush() bool
}

// ViewerHandler serves /api/v1/viewer.  Mutations return the resulting
// state; with ?flush=true the pending rebuild runs before the response.
type ViewerHandler struct {
	viewer      ViewerActions
	maxBodySize int64
}

func NewViewerHandler(v ViewerActions, maxBodySize int64) *ViewerHandler {
	return &ViewerHandler{viewer: v, maxBodySize: maxBodySize}
}

// ToggleResponse reports the state of a switch after toggling it.
type ToggleResponse struct {
	Enabled bool `json:"enabled"`
}

// respondState finishes a successful mutation.
func (h *ViewerHandler) respondState(w http.ResponseWriter, r *http.Request) {
	if flushRequested(r) {
		h.viewer.Flush()
	}
	st, err := h.viewer.State()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ViewerHandler) respondToggle(w http.ResponseWriter, r *http.Request, on bool, err error) {
	if err != nil {
		writeAppError(w, err)
		return
	}
	if flushRequested(r) {
		h.viewer.Flush()
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Enabled: on})
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (h *ViewerHandler) State(w http.ResponseWriter, _ *http.Request) {
	st, err := h.viewer.State()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ViewerHandler) Scene(w http.ResponseWriter, r *http.Request) {
	if flushRequested(r) {
		h.viewer.Flush()
	}
	sc, err := h.viewer.Scene(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *ViewerHandler) Interactions(w http.ResponseWriter, _ *http.Request) {
	edges, err := h.viewer.Interactions()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"edges": edges})
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection
// ─────────────────────────────────────────────────────────────────────────────

type clickRequest struct {
	Residue string `json:"residue"`
	Ctrl    bool   `json:"ctrl"`
	Shift   bool   `json:"shift"`
}

func (h *ViewerHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	k, err := structure.ParseResidueKey(req.Residue)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.Click(r.Context(), k, selection.Modifiers{Ctrl: req.Ctrl, Shift: req.Shift}); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

func (h *ViewerHandler) ClickEmpty(w http.ResponseWriter, r *http.Request) {
	if err := h.viewer.ClickEmpty(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

type selectRequest struct {
	Residues string `json:"residues"`
}

func (h *ViewerHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.Select(r.Context(), req.Residues); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Regions
// ─────────────────────────────────────────────────────────────────────────────

func (h *ViewerHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	reg, err := h.viewer.CreateRegion(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	if flushRequested(r) {
		h.viewer.Flush()
	}
	writeJSON(w, http.StatusCreated, reg)
}

type activateRegionRequest struct {
	// RegionID nil activates the global context.
	RegionID *int `json:"region_id"`
}

func (h *ViewerHandler) ActivateRegion(w http.ResponseWriter, r *http.Request) {
	var req activateRegionRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.ActivateRegion(r.Context(), req.RegionID); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

func (h *ViewerHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "regionID"))
	if err != nil {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "region id must be an integer"))
		return
	}
	if err := h.viewer.DeleteRegion(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Appearance
// ─────────────────────────────────────────────────────────────────────────────

type colorRequest struct {
	Color string `json:"color"`
	Scope string `json:"scope"`
}

func (h *ViewerHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	scope, err := viewer.ParseColorScope(req.Scope)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetColor(r.Context(), req.Color, scope); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

// ClearColor handles DELETE /color?scope=selection|uniform.
func (h *ViewerHandler) ClearColor(w http.ResponseWriter, r *http.Request) {
	scope, err := viewer.ParseColorScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.ClearColor(r.Context(), scope); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

type styleRequest struct {
	Style string `json:"style"`
}

func (h *ViewerHandler) SetStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetStyle(r.Context(), req.Style); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

type schemeRequest struct {
	Scheme string `json:"scheme"`
}

func (h *ViewerHandler) SetScheme(w http.ResponseWriter, r *http.Request) {
	var req schemeRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetScheme(r.Context(), req.Scheme); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

func (h *ViewerHandler) ToggleRepresentation(w http.ResponseWriter, r *http.Request) {
	on, err := h.viewer.ToggleRepresentation(r.Context(), chi.URLParam(r, "kind"))
	h.respondToggle(w, r, on, err)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *ViewerHandler) SetRepresentationMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetRepresentationMode(r.Context(), chi.URLParam(r, "kind"), req.Mode); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

func (h *ViewerHandler) ToggleNearby(w http.ResponseWriter, r *http.Request) {
	on, err := h.viewer.ToggleNearby(r.Context())
	h.respondToggle(w, r, on, err)
}

func (h *ViewerHandler) ToggleHetero(w http.ResponseWriter, r *http.Request) {
	on, err := h.viewer.ToggleHetero(r.Context())
	h.respondToggle(w, r, on, err)
}

func (h *ViewerHandler) ToggleOverlay(w http.ResponseWriter, r *http.Request) {
	on, err := h.viewer.ToggleOverlay(r.Context())
	h.respondToggle(w, r, on, err)
}

func (h *ViewerHandler) ToggleInteractions(w http.ResponseWriter, r *http.Request) {
	on, err := h.viewer.ToggleInteractions(r.Context())
	h.respondToggle(w, r, on, err)
}

type chainsRequest struct {
	Chains []string `json:"chains"`
}

// SetChains handles PUT /chains.  An empty list shows every chain.
func (h *ViewerHandler) SetChains(w http.ResponseWriter, r *http.Request) {
	var req chainsRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetChains(r.Context(), req.Chains); err != nil {
		writeAppError(w, err)
		return
	}
	h.respondState(w, r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Input
// ─────────────────────────────────────────────────────────────────────────────

// Pointer handles POST /pointer.  The event is queued for the gesture
// tracker; 202 means accepted, not applied.
func (h *ViewerHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	var ev render.PointerEvent
	if err := decodeJSON(w, r, h.maxBodySize, &ev); err != nil {
		writeAppError(w, err)
		return
	}
	if err := ev.Validate(); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.Pointer(ev); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
