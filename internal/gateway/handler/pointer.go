package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"medxtutor/internal/genclient"
)

type pointerRequest struct {
	SessionID string  `json:"sessionId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Question  string  `json:"question,omitempty"`
}

func decodePointerRequest(w http.ResponseWriter, r *http.Request) (pointerRequest, bool) {
	var in pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return pointerRequest{}, false
	}
	return in, true
}

// HandlePointerOpen marks a spot on the image and opens the explore flow.
// The analysis starts in the background; its state is polled via the view.
func (s *Service) HandlePointerOpen(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	in, ok := decodePointerRequest(w, r)
	if !ok {
		return
	}
	if err := s.mgr.OpenPointer(in.SessionID, in.X, in.Y); err != nil {
		writeError(w, err)
		return
	}
	go func() {
		if err := s.mgr.EnsurePointerAnalysis(context.Background(), in.SessionID); err != nil {
			log.Printf("pointer analysis %s: %v", in.SessionID, err)
		}
	}()
	s.respondView(w, in.SessionID, http.StatusAccepted)
}

// HandlePointerAsk relays a follow-up question about the analyzed mark.
func (s *Service) HandlePointerAsk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	in, ok := decodePointerRequest(w, r)
	if !ok {
		return
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		writeError(w, genclient.ErrUserInput)
		return
	}
	reply, err := s.mgr.AskPointer(r.Context(), in.SessionID, question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// HandlePointerClose dismisses the mark.
func (s *Service) HandlePointerClose(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	in, ok := decodePointerRequest(w, r)
	if !ok {
		return
	}
	if err := s.mgr.ClosePointer(in.SessionID); err != nil {
		writeError(w, err)
		return
	}
	s.respondView(w, in.SessionID, http.StatusOK)
}

func (s *Service) respondView(w http.ResponseWriter, sessionID string, status int) {
	sess, err := s.mgr.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, sess.View())
}
