package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"medxtutor/internal/chat"
	"medxtutor/internal/gateway/repository/artifact"
	"medxtutor/internal/gateway/repository/sessionstore"
	"medxtutor/internal/genclient"
)

// Artifact names under which a session's images are stored.
const (
	artifactXray    = "xray"
	artifactUpload  = "upload"
	artifactPointer = "pointer"
	artifactDiagram = "pointer-diagram"
)

const renderCacheSize = 32

// Manager owns the live sessions and sequences their pipeline runs against
// the generation backend. Completed runs are snapshotted into the session
// store for later review; images go to the artifact store.
type Manager struct {
	backend   Backend
	artifacts artifact.Store
	records   *sessionstore.Store

	mu       sync.RWMutex
	sessions map[string]*Session

	// renders caches annotated frames so re-marking the same spot does not
	// redraw the image.
	renders *lru.Cache[string, []byte]
}

func NewManager(backend Backend, artifacts artifact.Store, records *sessionstore.Store) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("pipeline: backend is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("pipeline: artifact store is required")
	}
	renders, err := lru.New[string, []byte](renderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("pipeline: render cache: %w", err)
	}
	return &Manager{
		backend:   backend,
		artifacts: artifacts,
		records:   records,
		sessions:  make(map[string]*Session),
		renders:   renders,
	}, nil
}

// CreateSession registers a fresh idle session and returns it.
func (m *Manager) CreateSession() *Session {
	s := newSession()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[strings.TrimSpace(sessionID)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
	}
	return s, nil
}

// StartGenerate runs the describe-a-case pipeline: clinical prompt, image
// synthesis, then the shared explanation/quiz/chat tail. The session is fully
// reset first; any in-flight run is superseded.
func (m *Manager) StartGenerate(ctx context.Context, sessionID, description string, age int, gender string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: condition description is required", genclient.ErrUserInput)
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.fullResetLocked()
	s.mode = ModeGenerate
	epoch := s.bumpEpochLocked()
	s.step = stepInitializing
	s.mu.Unlock()

	s.setStep(epoch, stepPrompt)
	prompt, err := m.backend.AuthorClinicalPrompt(ctx, description, age, gender)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	if !s.apply(epoch, func(s *Session) {
		s.clinicalPrompt = prompt
		s.phase = PhasePromptReady
		s.step = stepImage
	}) {
		return ErrSuperseded
	}

	img, err := m.backend.SynthesizeImage(ctx, prompt)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	m.putArtifact(ctx, s.ID, artifactXray, img)
	if !s.apply(epoch, func(s *Session) {
		s.artifact = img
		s.artifactSource = artifactXray
		s.phase = PhaseImageReady
		s.step = stepExplanation
	}) {
		return ErrSuperseded
	}

	return m.runTail(ctx, s, epoch, prompt)
}

// AttachUpload stores an uploaded image on the session and previews it as the
// artifact immediately. Analysis does not start until StartAnalyze.
func (m *Manager) AttachUpload(ctx context.Context, sessionID string, data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: uploaded file is empty", genclient.ErrUserInput)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: %q is not an image", genclient.ErrUserInput, mimeType)
	}
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	img := genclient.ImageData{MIMEType: mimeType, Data: data}
	s.mu.Lock()
	s.bumpEpochLocked()
	s.analysisResetLocked()
	s.mode = ModeUpload
	s.uploaded = &img
	s.artifact = img
	s.artifactSource = artifactUpload
	s.mu.Unlock()

	m.putArtifact(ctx, s.ID, artifactUpload, img)
	return nil
}

// StartAnalyze runs the upload pipeline over the previously attached image:
// remote description, then the shared explanation/quiz/chat tail.
func (m *Manager) StartAnalyze(ctx context.Context, sessionID string) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.uploaded == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no image has been uploaded", genclient.ErrUserInput)
	}
	up := *s.uploaded
	s.analysisResetLocked()
	s.mode = ModeUpload
	epoch := s.bumpEpochLocked()
	s.step = stepAnalyze
	s.mu.Unlock()

	desc, err := m.backend.AnalyzeUpload(ctx, up.Data, up.MIMEType)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	if !s.apply(epoch, func(s *Session) {
		s.clinicalPrompt = desc
		s.phase = PhaseDescriptionReady
		s.step = stepExplanation
	}) {
		return ErrSuperseded
	}

	return m.runTail(ctx, s, epoch, desc)
}

// runTail is the pipeline segment shared by both modes: explanation, quiz,
// then chat priming. clinicalPrompt is the case context both modes converge
// on before this point.
func (m *Manager) runTail(ctx context.Context, s *Session, epoch uint64, clinicalPrompt string) error {
	explanation, err := m.backend.AuthorExplanation(ctx, clinicalPrompt)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	if !s.apply(epoch, func(s *Session) {
		s.explanation = explanation
		s.phase = PhaseExplanationReady
		s.step = stepQuiz
	}) {
		return ErrSuperseded
	}

	quiz, err := m.backend.AuthorQuiz(ctx, clinicalPrompt)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	if !s.apply(epoch, func(s *Session) {
		s.quiz = quiz
		s.answers = make([]QuizAnswer, len(quiz))
		s.phase = PhaseQuizReady
		s.step = stepChat
	}) {
		return ErrSuperseded
	}

	primer := fmt.Sprintf("Clinical Prompt: %s\n\nMedical Explanation: %s", clinicalPrompt, explanation)
	remote, err := m.backend.StartChat(ctx, primer)
	if err != nil {
		s.fail(epoch, err)
		return err
	}
	if !s.apply(epoch, func(s *Session) {
		s.chat = chat.New(remote)
		s.phase = PhaseChatReady
		s.step = ""
	}) {
		return ErrSuperseded
	}

	m.persist(ctx, s)
	return nil
}

// putArtifact stores an image without failing the run; a missing artifact
// copy only degrades review, not the live session.
func (m *Manager) putArtifact(ctx context.Context, sessionID, name string, img genclient.ImageData) {
	if err := m.artifacts.Put(ctx, sessionID, name, img.Data, img.MIMEType); err != nil {
		log.Printf("pipeline: store artifact %s/%s: %v", sessionID, name, err)
	}
}

// Persist snapshots the session into the record store. Safe to call at any
// phase; records for unfinished runs simply show less.
func (m *Manager) Persist(ctx context.Context, sessionID string) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	m.persist(ctx, s)
	return nil
}

func (m *Manager) persist(ctx context.Context, s *Session) {
	if m.records == nil {
		return
	}

	s.mu.Lock()
	rec := sessionstore.Record{
		SessionID:      s.ID,
		Mode:           string(s.mode),
		Phase:          string(s.phase),
		ClinicalPrompt: s.clinicalPrompt,
		Explanation:    s.explanation,
		QuizCount:      len(s.quiz),
		UpdatedAt:      time.Now(),
	}
	cont := s.chat
	s.mu.Unlock()

	if cont != nil {
		for _, msg := range cont.Messages() {
			rec.Transcript = append(rec.Transcript, sessionstore.Turn{
				Role: string(msg.Role),
				Text: msg.Text,
			})
		}
	}
	names, err := m.artifacts.List(ctx, s.ID)
	if err != nil {
		log.Printf("pipeline: list artifacts %s: %v", s.ID, err)
	} else {
		rec.ArtifactNames = names
	}
	m.records.Put(rec)
}
