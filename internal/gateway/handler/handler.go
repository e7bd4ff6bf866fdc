package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medxtutor/internal/chat"
	"medxtutor/internal/gateway/repository/artifact"
	"medxtutor/internal/gateway/repository/sessionstore"
	"medxtutor/internal/genclient"
	"medxtutor/internal/pipeline"
)

// Service holds the pipeline manager and stores behind every HTTP endpoint.
type Service struct {
	mgr       *pipeline.Manager
	artifacts artifact.Store
	records   *sessionstore.Store
}

func NewService(mgr *pipeline.Manager, artifacts artifact.Store, records *sessionstore.Store) *Service {
	return &Service{mgr: mgr, artifacts: artifacts, records: records}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses. Unclassified
// errors stay 500 with their message intact; the frontend renders messages
// verbatim.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, genclient.ErrUserInput):
		status = http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnknownSession), errors.Is(err, artifact.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, genclient.ErrServiceUnreachable):
		status = http.StatusBadGateway
	case errors.Is(err, pipeline.ErrChatUnavailable),
		errors.Is(err, pipeline.ErrNoPointer),
		errors.Is(err, pipeline.ErrAnalyzing),
		errors.Is(err, pipeline.ErrSuperseded),
		errors.Is(err, chat.ErrBusy):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}
