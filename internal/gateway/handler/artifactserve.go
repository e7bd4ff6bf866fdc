package handler

import (
	"net/http"
	"strings"
)

// HandleArtifact serves a stored image by session and name. Content type is
// sniffed server-side; stored objects are always images.
func (s *Service) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("session_id"))
	name := strings.TrimSpace(q.Get("name"))
	if sessionID == "" || name == "" {
		http.Error(w, "session_id and name are required", http.StatusBadRequest)
		return
	}
	data, err := s.artifacts.Get(r.Context(), sessionID, name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
