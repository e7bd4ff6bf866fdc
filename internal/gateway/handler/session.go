package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"medxtutor/internal/genclient"
	"medxtutor/internal/pipeline"
)

const maxUploadBytes = 16 << 20

// HandleCreateSession makes a fresh idle session and returns its view.
func (s *Service) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	sess := s.mgr.CreateSession()
	writeJSON(w, http.StatusCreated, sess.View())
}

// HandleSessionView returns the current snapshot. Clients poll this while a
// pipeline run is in flight to observe step labels and phase transitions.
func (s *Service) HandleSessionView(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sess, err := s.mgr.Get(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// HandleSwitchMode resets the session and selects the entry mode.
func (s *Service) HandleSwitchMode(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		SessionID string `json:"sessionId"`
		Mode      string `json:"mode"`
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
	if err := sess.SwitchMode(pipeline.Mode(strings.TrimSpace(in.Mode))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// HandleGenerate starts the describe-a-case pipeline in the background and
// returns immediately; progress is observed through the view endpoint.
func (s *Service) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		SessionID   string `json:"sessionId"`
		Description string `json:"description"`
		Age         int    `json:"age"`
		Gender      string `json:"gender"`
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
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, fmt.Errorf("%w: condition description is required", genclient.ErrUserInput))
		return
	}
	go func() {
		if err := s.mgr.StartGenerate(context.Background(), sess.ID, in.Description, in.Age, in.Gender); err != nil {
			log.Printf("generate pipeline %s: %v", sess.ID, err)
		}
	}()
	writeJSON(w, http.StatusAccepted, sess.View())
}

// HandleUpload attaches an image to the session for later analysis. Accepts
// either a multipart form or a JSON body carrying a base64 data URI.
func (s *Service) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		s.handleUploadJSON(w, r)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	sessionID := r.FormValue("session_id")
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if err := s.mgr.AttachUpload(r.Context(), sessionID, data, mimeType); err != nil {
		writeError(w, err)
		return
	}
	s.respondView(w, sessionID, http.StatusOK)
}

func (s *Service) handleUploadJSON(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID    string `json:"sessionId"`
		ImageDataURI string `json:"imageDataUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	img, err := genclient.ParseDataURI(in.ImageDataURI)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", genclient.ErrUserInput, err))
		return
	}
	if err := s.mgr.AttachUpload(r.Context(), in.SessionID, img.Data, img.MIMEType); err != nil {
		writeError(w, err)
		return
	}
	s.respondView(w, in.SessionID, http.StatusOK)
}

// HandleAnalyze starts the upload pipeline over the attached image.
func (s *Service) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		SessionID string `json:"sessionId"`
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
	// Reject up front; once the pipeline runs in the background the client
	// only sees errors through the polled view.
	if !sess.HasUpload() {
		writeError(w, fmt.Errorf("%w: no image has been uploaded", genclient.ErrUserInput))
		return
	}
	go func() {
		if err := s.mgr.StartAnalyze(context.Background(), sess.ID); err != nil {
			log.Printf("analyze pipeline %s: %v", sess.ID, err)
		}
	}()
	writeJSON(w, http.StatusAccepted, sess.View())
}

// HandleQuizAnswer records one answer selection.
func (s *Service) HandleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		SessionID string `json:"sessionId"`
		Index     int    `json:"index"`
		Option    int    `json:"option"`
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
	if err := sess.AnswerQuiz(in.Index, in.Option); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// HandleRecords lists archived session snapshots.
func (s *Service) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.records == nil {
		writeJSON(w, http.StatusOK, map[string]any{"records": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": s.records.List()})
}
