package sessionstore

import (
	"encoding/json"
	"strings"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS tutoring_sessions (
  session_id TEXT PRIMARY KEY,
  mode TEXT NOT NULL DEFAULT '',
  phase TEXT NOT NULL DEFAULT '',
  clinical_prompt TEXT NOT NULL DEFAULT '',
  explanation TEXT NOT NULL DEFAULT '',
  quiz_count INTEGER NOT NULL DEFAULT 0,
  artifact_names JSONB NOT NULL DEFAULT '[]',
  transcript JSONB NOT NULL DEFAULT '[]',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

func (s *Store) getDB(sessionID string) (Record, bool) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Record{}, false
	}
	row := s.db.QueryRow(`SELECT session_id, mode, phase, clinical_prompt, explanation, quiz_count, artifact_names, transcript, updated_at
FROM tutoring_sessions WHERE session_id = $1`, id)

	var record Record
	var names, transcript []byte
	if err := row.Scan(&record.SessionID, &record.Mode, &record.Phase, &record.ClinicalPrompt,
		&record.Explanation, &record.QuizCount, &names, &transcript, &record.UpdatedAt); err != nil {
		return Record{}, false
	}
	_ = json.Unmarshal(names, &record.ArtifactNames)
	_ = json.Unmarshal(transcript, &record.Transcript)
	return normalizeRecord(record), true
}

func (s *Store) putDB(record Record) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	n := normalizeRecord(record)
	if n.SessionID == "" {
		return
	}
	names, err := json.Marshal(n.ArtifactNames)
	if err != nil {
		names = []byte("[]")
	}
	transcript, err := json.Marshal(n.Transcript)
	if err != nil {
		transcript = []byte("[]")
	}
	_, _ = s.db.Exec(`
INSERT INTO tutoring_sessions (
  session_id, mode, phase, clinical_prompt, explanation, quiz_count, artifact_names, transcript, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (session_id)
DO UPDATE SET mode=EXCLUDED.mode,
  phase=EXCLUDED.phase,
  clinical_prompt=EXCLUDED.clinical_prompt,
  explanation=EXCLUDED.explanation,
  quiz_count=EXCLUDED.quiz_count,
  artifact_names=EXCLUDED.artifact_names,
  transcript=EXCLUDED.transcript,
  updated_at=EXCLUDED.updated_at`,
		n.SessionID, n.Mode, n.Phase, n.ClinicalPrompt, n.Explanation, n.QuizCount, names, transcript, n.UpdatedAt)
}

func (s *Store) listDB() []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT session_id, mode, phase, clinical_prompt, explanation, quiz_count, artifact_names, transcript, updated_at
FROM tutoring_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]Record, 0, 32)
	for rows.Next() {
		var record Record
		var names, transcript []byte
		if err := rows.Scan(&record.SessionID, &record.Mode, &record.Phase, &record.ClinicalPrompt,
			&record.Explanation, &record.QuizCount, &names, &transcript, &record.UpdatedAt); err != nil {
			continue
		}
		_ = json.Unmarshal(names, &record.ArtifactNames)
		_ = json.Unmarshal(transcript, &record.Transcript)
		out = append(out, normalizeRecord(record))
	}
	return out
}

func (s *Store) deleteDB(sessionID string) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return
	}
	_, _ = s.db.Exec(`DELETE FROM tutoring_sessions WHERE session_id = $1`, id)
}
