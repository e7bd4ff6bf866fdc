// Package pipeline drives the ordered phases of the generate and upload
// flows, owns the per-session state they produce, and exposes chat and
// point-and-query as continuations of that state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"medxtutor/internal/chat"
	"medxtutor/internal/genclient"
)

// Backend covers the remote generation tasks the pipeline sequences.
type Backend interface {
	AuthorClinicalPrompt(ctx context.Context, userInput string, age int, gender string) (string, error)
	SynthesizeImage(ctx context.Context, clinicalPrompt string) (genclient.ImageData, error)
	AnalyzeUpload(ctx context.Context, data []byte, mimeType string) (string, error)
	AuthorExplanation(ctx context.Context, clinicalPrompt string) (string, error)
	AuthorQuiz(ctx context.Context, clinicalPrompt string) ([]genclient.QuizItem, error)
	AnalyzePointer(ctx context.Context, annotated genclient.ImageData) (genclient.PointerAnalysis, error)
	StartChat(ctx context.Context, primerContext string) (chat.Remote, error)
}

var (
	// ErrSuperseded marks a phase result that arrived after a newer run
	// reset the session; the result is dropped, never applied.
	ErrSuperseded = errors.New("pipeline run superseded by a newer request")

	// ErrChatUnavailable guards chat and point-and-query before the pipeline
	// has reached its chat-ready state.
	ErrChatUnavailable = errors.New("chat is not available yet")

	ErrNoPointer = errors.New("no pointer is set")

	// ErrAnalyzing is returned when a pointer analysis is already in flight.
	ErrAnalyzing = errors.New("pointer analysis already in progress")

	ErrUnknownSession = errors.New("unknown session")
)

// QuizAnswer is the per-question answer state. Monotonic: once answered an
// item never changes.
type QuizAnswer struct {
	Selected int  `json:"selected"`
	Answered bool `json:"answered"`
}

// Pointer is one user-selected region of interest plus its analysis state.
// At most one exists per session; its existence implies the explore side-flow
// is open.
type Pointer struct {
	X, Y      float64
	Phase     PointerPhase
	Annotated genclient.ImageData
	Analysis  genclient.PointerAnalysis
	Failure   string
}

// Session holds everything one pipeline run derives. All mutation happens
// under mu; the epoch gates late-arriving phase results from abandoned runs.
type Session struct {
	ID string

	mu    sync.Mutex
	mode  Mode
	phase Phase
	step  string
	// failure carries the pipeline-level error message verbatim once the
	// session is in PhaseFailed.
	failure string
	epoch   uint64

	clinicalPrompt string
	artifact       genclient.ImageData
	artifactSource string
	uploaded       *genclient.ImageData
	explanation    string
	quiz           []genclient.QuizItem
	answers        []QuizAnswer
	chat           *chat.Continuation
	pointer        *Pointer
}

var sessionSeq atomic.Uint64

func newSession() *Session {
	return &Session{
		ID:    fmt.Sprintf("sess-%d-%d", time.Now().UnixNano(), sessionSeq.Add(1)),
		mode:  ModeGenerate,
		phase: PhaseIdle,
	}
}

// fullResetLocked clears everything from a previous run, inputs and images
// included.
func (s *Session) fullResetLocked() {
	s.analysisResetLocked()
	s.artifact = genclient.ImageData{}
	s.artifactSource = ""
	s.uploaded = nil
}

// analysisResetLocked clears analysis results only, preserving the artifact
// so an uploaded preview does not flicker between runs.
func (s *Session) analysisResetLocked() {
	s.phase = PhaseIdle
	s.step = ""
	s.failure = ""
	s.clinicalPrompt = ""
	s.explanation = ""
	s.quiz = nil
	s.answers = nil
	s.chat = nil
	s.pointer = nil
}

func (s *Session) bumpEpochLocked() uint64 {
	s.epoch++
	return s.epoch
}

// apply runs mutate under the lock only if the session is still on the given
// epoch. Reports whether the mutation was applied.
func (s *Session) apply(epoch uint64, mutate func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	mutate(s)
	return true
}

func (s *Session) setStep(epoch uint64, label string) bool {
	return s.apply(epoch, func(s *Session) { s.step = label })
}

// fail moves the session to its terminal failed state. Fields set by
// completed phases stay visible; no further phases run.
func (s *Session) fail(epoch uint64, err error) {
	s.apply(epoch, func(s *Session) {
		s.phase = PhaseFailed
		s.failure = err.Error()
		s.step = ""
	})
}

// HasUpload reports whether an uploaded image is attached to the session.
func (s *Session) HasUpload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded != nil
}

// Chat returns the session's conversation, or nil before chat is ready.
func (s *Session) Chat() *chat.Continuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

// SwitchMode resets the session unconditionally and selects the entry mode,
// even when the modes are otherwise idle.
func (s *Session) SwitchMode(mode Mode) error {
	if mode != ModeGenerate && mode != ModeUpload {
		return fmt.Errorf("%w: unsupported mode %q", genclient.ErrUserInput, string(mode))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpEpochLocked()
	s.fullResetLocked()
	s.mode = mode
	return nil
}

// AnswerQuiz records a selection for one quiz item. Already-answered items
// ignore further selections.
func (s *Session) AnswerQuiz(index, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.answers) {
		return fmt.Errorf("%w: quiz index %d out of range", genclient.ErrUserInput, index)
	}
	if option < 0 || option > 3 {
		return fmt.Errorf("%w: option %d out of range", genclient.ErrUserInput, option)
	}
	if s.answers[index].Answered {
		return nil
	}
	s.answers[index] = QuizAnswer{Selected: option, Answered: true}
	return nil
}
