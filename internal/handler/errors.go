package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"instagramclone/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

const (
	codeInvalidRequest   = "invalid_request"
	codeUnsupportedMedia = "unsupported_media"
	codeTooLarge         = "payload_too_large"
	codeInternal         = "internal"
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{models.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{models.ErrForbidden, http.StatusForbidden, "forbidden"},
	{models.ErrNotFound, http.StatusNotFound, "not_found"},
	{models.ErrNoFile, http.StatusBadRequest, "no_file"},
	{models.ErrEmptyComment, http.StatusBadRequest, "empty_comment"},
	{models.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
}

// WriteError sends the JSON error body used by every endpoint.
func WriteError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a domain error to its status. Anything unknown is
// logged and reported as a bare 500 so internals do not leak.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			WriteError(w, e.err.Error(), e.code, e.status)
			return
		}
	}

	h.Log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	WriteError(w, "internal server error", codeInternal, http.StatusInternalServerError)
}
