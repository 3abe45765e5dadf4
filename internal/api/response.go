package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/izposoja/internal/store"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// storeError maps a store error to a JSON response.
func storeError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if ve, ok := store.IsValidation(err); ok {
		jsonError(w, http.StatusBadRequest, ve.Message)
		return
	}
	slog.Error("failed to "+action, "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to "+action)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
