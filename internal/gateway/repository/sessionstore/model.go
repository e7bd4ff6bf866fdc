package sessionstore

import (
	"strings"
	"time"
)

// Turn is one archived conversation entry.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Record is the reviewable snapshot of one pipeline run: the derived case
// context, its explanation, and the chat transcript so far. Images stay in
// the artifact store; the record only carries their names.
type Record struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	Phase          string    `json:"phase"`
	ClinicalPrompt string    `json:"clinical_prompt"`
	Explanation    string    `json:"explanation"`
	QuizCount      int       `json:"quiz_count"`
	ArtifactNames  []string  `json:"artifact_names,omitempty"`
	Transcript     []Turn    `json:"transcript,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func normalizeRecord(r Record) Record {
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.Mode = strings.TrimSpace(r.Mode)
	r.Phase = strings.TrimSpace(r.Phase)
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	return r
}
