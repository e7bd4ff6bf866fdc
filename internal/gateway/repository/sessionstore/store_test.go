package sessionstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := New(path)

	rec := Record{
		SessionID:      "sess-1",
		Mode:           "generate",
		Phase:          "chat_ready",
		ClinicalPrompt: "Frontal chest radiograph.",
		Explanation:    "Shows a clear costophrenic angle.",
		QuizCount:      10,
		ArtifactNames:  []string{"xray"},
		Transcript:     []Turn{{Role: "user", Text: "hi"}, {Role: "model", Text: "hello"}},
	}
	s.Put(rec)

	got, ok := s.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, rec.ClinicalPrompt, got.ClinicalPrompt)
	assert.Equal(t, 10, got.QuizCount)
	assert.False(t, got.UpdatedAt.IsZero(), "normalization should stamp UpdatedAt")

	// A fresh store instance reads the same file.
	reloaded := New(path)
	got, ok = reloaded.Get("sess-1")
	require.True(t, ok)
	assert.Len(t, got.Transcript, 2)
}

func TestPutIgnoresBlankSessionID(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sessions.json"))
	s.Put(Record{SessionID: "   "})
	assert.Empty(t, s.List())
}

func TestListNewestFirst(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sessions.json"))
	s.Put(Record{SessionID: "old", UpdatedAt: time.Now().Add(-time.Hour)})
	s.Put(Record{SessionID: "new", UpdatedAt: time.Now()})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].SessionID)
}

func TestDelete(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sessions.json"))
	s.Put(Record{SessionID: "sess-1"})
	s.Delete("sess-1")
	_, ok := s.Get("sess-1")
	assert.False(t, ok)
}
