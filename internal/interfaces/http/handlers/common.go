package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/irisuniflora/VF/pkg/errors"
)

// DefaultMaxBodySize bounds JSON request bodies when the handler is built
// without an explicit limit.
const DefaultMaxBodySize = 64 << 20

// ErrorResponse is the error body of the /api/v1 surface.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps an error to its code's HTTP status.  Errors without a
// code are reported as internal and their text is not exposed.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}
	writeJSON(w, appErr.HTTPStatus(), ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// decodeJSON reads a JSON body of at most limit bytes into dst.  An empty
// body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid JSON body")
	}
	return nil
}

// flushRequested reports ?flush=true.
func flushRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("flush"))
	return err == nil && v
}
