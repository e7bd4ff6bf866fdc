package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"medxtutor/internal/annotate"
	"medxtutor/internal/genclient"
)

const pointerQuestionPrefix = "(User pointed at image) "

// OpenPointer marks a spot on the session's image and opens the explore
// side-flow. Coordinates are fractions of the image dimensions. A previous
// mark, analyzed or not, is replaced.
func (m *Manager) OpenPointer(sessionID string, x, y float64) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return fmt.Errorf("%w: pointer coordinates (%v, %v) out of range", genclient.ErrUserInput, x, y)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseChatReady {
		return ErrChatUnavailable
	}
	s.pointer = &Pointer{X: x, Y: y, Phase: PointerUnanalyzed}
	return nil
}

// EnsurePointerAnalysis runs the remote analysis for the current mark exactly
// once. A mark already analyzed is a no-op; one mid-analysis is rejected. A
// failed mark may be retried.
func (m *Manager) EnsurePointerAnalysis(ctx context.Context, sessionID string) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	p := s.pointer
	if p == nil {
		s.mu.Unlock()
		return ErrNoPointer
	}
	switch p.Phase {
	case PointerAnalyzed:
		s.mu.Unlock()
		return nil
	case PointerAnalyzing:
		s.mu.Unlock()
		return ErrAnalyzing
	}
	p.Phase = PointerAnalyzing
	src := s.artifact
	x, y := p.X, p.Y
	epoch := s.epoch
	s.mu.Unlock()

	annotated, err := m.renderMark(src, x, y)
	if err == nil {
		m.putArtifact(ctx, s.ID, artifactPointer, annotated)
		var analysis genclient.PointerAnalysis
		analysis, err = m.backend.AnalyzePointer(ctx, annotated)
		if err == nil {
			m.putArtifact(ctx, s.ID, artifactDiagram, analysis.Diagram)
			s.apply(epoch, func(s *Session) {
				if s.pointer != p {
					return
				}
				p.Phase = PointerAnalyzed
				p.Annotated = annotated
				p.Analysis = analysis
			})
			return nil
		}
	}

	s.apply(epoch, func(s *Session) {
		if s.pointer != p {
			return
		}
		p.Phase = PointerFailed
		p.Failure = err.Error()
	})
	return err
}

// AskPointer sends a follow-up question about the analyzed mark through the
// session chat, attaching the annotated frame so the model sees the spot.
func (m *Manager) AskPointer(ctx context.Context, sessionID, question string) (string, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}

	// Snapshot the mark under the lock; the background analysis writes its
	// phase and annotated frame under the same lock.
	s.mu.Lock()
	p := s.pointer
	cont := s.chat
	var phase PointerPhase
	var annotated genclient.ImageData
	if p != nil {
		phase = p.Phase
		annotated = p.Annotated
	}
	s.mu.Unlock()
	if p == nil {
		return "", ErrNoPointer
	}
	if cont == nil {
		return "", ErrChatUnavailable
	}
	if phase != PointerAnalyzed {
		return "", fmt.Errorf("%w: mark has not been analyzed", genclient.ErrUserInput)
	}
	return cont.SendWithImage(ctx, question, annotated, pointerQuestionPrefix+question)
}

// ClosePointer dismisses the mark. Closing with no mark is a no-op; an
// analysis still in flight finds its mark gone and discards its result.
func (m *Manager) ClosePointer(sessionID string) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pointer = nil
	s.mu.Unlock()
	return nil
}

// renderMark draws the marker over the source image, reusing a cached render
// when the same spot on the same image was marked before.
func (m *Manager) renderMark(src genclient.ImageData, x, y float64) (genclient.ImageData, error) {
	if len(src.Data) == 0 {
		return genclient.ImageData{}, annotate.ErrImageLoad
	}
	key := fmt.Sprintf("%x:%.4f:%.4f", sha256.Sum256(src.Data), x, y)
	if data, ok := m.renders.Get(key); ok {
		return genclient.ImageData{MIMEType: "image/png", Data: data}, nil
	}
	data, err := annotate.Mark(src.Data, x, y)
	if err != nil {
		return genclient.ImageData{}, err
	}
	m.renders.Add(key, data)
	return genclient.ImageData{MIMEType: "image/png", Data: data}, nil
}
