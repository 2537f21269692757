package handlers

import (
	"context"
	"net/http"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/pkg/errors"
)

// FileReader reads structure text from a local path.
type FileReader interface {
	ReadFile(ctx context.Context, path string) (loader.Document, error)
}

// FileHandler serves POST /api/read_pdb.  Its bodies use the
// {"success": ...} envelope rather than ErrorResponse.
type FileHandler struct {
	files       FileReader
	logger      logging.Logger
	maxBodySize int64
}

func NewFileHandler(files FileReader, logger logging.Logger, maxBodySize int64) *FileHandler {
	return &FileHandler{files: files, logger: logger, maxBodySize: maxBodySize}
}

type ReadPDBRequest struct {
	PDBPath string `json:"pdb_path"`
}

type ReadPDBResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *FileHandler) ReadPDB(w http.ResponseWriter, r *http.Request) {
	var req ReadPDBRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		h.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.PDBPath == "" {
		h.fail(w, http.StatusBadRequest, "pdb_path required")
		return
	}

	doc, err := h.files.ReadFile(r.Context(), req.PDBPath)
	switch {
	case err == nil:
		// content and path are always present on success, even when empty.
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "content": doc.Content, "path": req.PDBPath})
	case errors.IsCode(err, errors.ErrCodeStructurePathRequired):
		h.fail(w, http.StatusBadRequest, "pdb_path required")
	case errors.IsCode(err, errors.ErrCodeStructureNotFound):
		h.fail(w, http.StatusNotFound, "File not found: "+req.PDBPath)
	default:
		h.logger.Error("read_pdb failed", logging.String("path", req.PDBPath), logging.Err(err))
		msg := err.Error()
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		h.fail(w, http.StatusInternalServerError, msg)
	}
}

func (h *FileHandler) fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ReadPDBResponse{Success: false, Error: msg})
}
