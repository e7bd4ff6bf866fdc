package pipeline

import (
	"medxtutor/internal/chat"
	"medxtutor/internal/genclient"
)

// SessionView is the renderable snapshot of a session. Images travel as data
// URIs so a client needs no second fetch to show them.
type SessionView struct {
	ID             string               `json:"id"`
	Mode           Mode                 `json:"mode"`
	Phase          Phase                `json:"phase"`
	Step           string               `json:"step,omitempty"`
	Failure        string               `json:"failure,omitempty"`
	ClinicalPrompt string               `json:"clinicalPrompt,omitempty"`
	Image          string               `json:"image,omitempty"`
	Explanation    string               `json:"explanation,omitempty"`
	Quiz           []genclient.QuizItem `json:"quiz,omitempty"`
	Answers        []QuizAnswer         `json:"answers,omitempty"`
	Messages       []chat.Message       `json:"messages,omitempty"`
	Pointer        *PointerView         `json:"pointer,omitempty"`
}

// PointerView mirrors the explore side-flow: the mark, its analysis state,
// and the analysis products once available.
type PointerView struct {
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Phase       PointerPhase `json:"phase"`
	Annotated   string       `json:"annotated,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	Diagram     string       `json:"diagram,omitempty"`
	Failure     string       `json:"failure,omitempty"`
}

// View snapshots the session for rendering.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:             s.ID,
		Mode:           s.mode,
		Phase:          s.phase,
		Step:           s.step,
		Failure:        s.failure,
		ClinicalPrompt: s.clinicalPrompt,
		Explanation:    s.explanation,
		Quiz:           s.quiz,
		Answers:        s.answers,
	}
	if len(s.artifact.Data) > 0 {
		v.Image = s.artifact.DataURI()
	}
	if s.chat != nil {
		v.Messages = s.chat.Messages()
	}
	if p := s.pointer; p != nil {
		pv := &PointerView{X: p.X, Y: p.Y, Phase: p.Phase, Failure: p.Failure}
		if len(p.Annotated.Data) > 0 {
			pv.Annotated = p.Annotated.DataURI()
		}
		if p.Phase == PointerAnalyzed {
			pv.Explanation = p.Analysis.Explanation
			if len(p.Analysis.Diagram.Data) > 0 {
				pv.Diagram = p.Analysis.Diagram.DataURI()
			}
		}
		v.Pointer = pv
	}
	return v
}
