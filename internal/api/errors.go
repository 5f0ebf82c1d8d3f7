package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/softrh/softrh/internal/documents"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/recruitment"
	"github.com/softrh/softrh/internal/vacation"
)

const (
	errInvalidRequest = "invalid_request_error"
	errNotFound       = "not_found"
	errConflict       = "conflict"
	errAPI            = "api_error"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps service errors onto HTTP status and error type.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, recordstore.ErrNotFound), errors.Is(err, recruitment.ErrCandidateNotFound):
		return http.StatusNotFound, errNotFound
	case errors.Is(err, hr.ErrInvalid),
		errors.Is(err, recordstore.ErrInvalidPatch),
		errors.Is(err, recordstore.ErrInvalidImport),
		errors.Is(err, recordstore.ErrInvalidQuery):
		return http.StatusBadRequest, errInvalidRequest
	case errors.Is(err, documents.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errInvalidRequest
	case errors.Is(err, vacation.ErrOverlappingRequest), errors.Is(err, vacation.ErrNotPending):
		return http.StatusConflict, errConflict
	}
	return http.StatusInternalServerError, errAPI
}

func writeError(w http.ResponseWriter, err error) {
	code, typ := statusOf(err)
	httpError(w, code, typ, "%v", err)
}
