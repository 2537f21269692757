package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

// StructureLoader resolves and parses a structure source.
type StructureLoader interface {
	Load(ctx context.Context, req loader.Request) (loader.Document, *structure.Registry, error)
}

// StructureWorkspace is the structure lifecycle half of the viewer service.
type StructureWorkspace interface {
	LoadStructure(ctx context.Context, name, source string, reg *structure.Registry) (viewer.StructureInfo, error)
	SetActive(ctx context.Context, id string) error
	RemoveStructure(ctx context.Context, id string) error
	Structures() []viewer.StructureInfo
	Structure(id string) (viewer.StructureInfo, error)
	Sequence(id string) (viewer.SequenceView, error)
	Flush() bool
}

// StructureHandler serves /api/v1/structures.
type StructureHandler struct {
	loader      StructureLoader
	viewer      StructureWorkspace
	logger      logging.Logger
	maxBodySize int64
}

func NewStructureHandler(l StructureLoader, v StructureWorkspace, logger logging.Logger, maxBodySize int64) *StructureHandler {
	return &StructureHandler{loader: l, viewer: v, logger: logger, maxBodySize: maxBodySize}
}

// LoadResponse describes a loaded structure and where its text came from.
type LoadResponse struct {
	Structure viewer.StructureInfo `json:"structure"`
	Document  loader.Document      `json:"document"`
}

// Load handles POST /api/v1/structures.
func (h *StructureHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req loader.Request
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	doc, reg, err := h.loader.Load(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	source := doc.Location
	if source == "" {
		source = string(doc.Source)
	}
	info, err := h.viewer.LoadStructure(r.Context(), doc.Name, source, reg)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if flushRequested(r) {
		h.viewer.Flush()
	}
	writeJSON(w, http.StatusCreated, LoadResponse{Structure: info, Document: doc})
}

// List handles GET /api/v1/structures.
func (h *StructureHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"structures": h.viewer.Structures()})
}

// Get handles GET /api/v1/structures/{structureID}.
func (h *StructureHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.viewer.Structure(chi.URLParam(r, "structureID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Remove handles DELETE /api/v1/structures/{structureID}.
func (h *StructureHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.viewer.RemoveStructure(r.Context(), chi.URLParam(r, "structureID")); err != nil {
		writeAppError(w, err)
		return
	}
	if flushRequested(r) {
		h.viewer.Flush()
	}
	w.WriteHeader(http.StatusNoContent)
}

type activateRequest struct {
	ID string `json:"id"`
}

// Activate handles PUT /api/v1/structures/active.
func (h *StructureHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.viewer.SetActive(r.Context(), req.ID); err != nil {
		writeAppError(w, err)
		return
	}
	if flushRequested(r) {
		h.viewer.Flush()
	}
	info, err := h.viewer.Structure(req.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Sequence handles GET /api/v1/structures/{structureID}/sequence.
func (h *StructureHandler) Sequence(w http.ResponseWriter, r *http.Request) {
	seq, err := h.viewer.Sequence(chi.URLParam(r, "structureID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seq)
}
