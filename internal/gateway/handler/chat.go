package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"medxtutor/internal/pipeline"
)

// HandleChatSend is the plain-HTTP fallback for clients not holding a
// websocket. Same semantics as a ws "send" frame.
func (s *Service) HandleChatSend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	sess, err := s.mgr.Get(in.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	cont := sess.Chat()
	if cont == nil {
		writeError(w, pipeline.ErrChatUnavailable)
		return
	}
	reply, err := cont.Send(r.Context(), in.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.mgr.Persist(r.Context(), sess.ID); err != nil {
		log.Printf("persist session %s: %v", sess.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reply":    reply,
		"messages": cont.Messages(),
	})
}
