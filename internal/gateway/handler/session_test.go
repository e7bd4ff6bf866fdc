package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"medxtutor/internal/chat"
	"medxtutor/internal/gateway/repository/artifact"
	"medxtutor/internal/gateway/repository/sessionstore"
	"medxtutor/internal/genclient"
	"medxtutor/internal/pipeline"
)

type stubBackend struct {
	xray []byte
}

func (b *stubBackend) AuthorClinicalPrompt(_ context.Context, userInput string, _ int, _ string) (string, error) {
	return "Radiograph for " + userInput, nil
}

func (b *stubBackend) SynthesizeImage(_ context.Context, _ string) (genclient.ImageData, error) {
	return genclient.ImageData{MIMEType: "image/png", Data: b.xray}, nil
}

func (b *stubBackend) AnalyzeUpload(_ context.Context, _ []byte, _ string) (string, error) {
	return "An uploaded film.", nil
}

func (b *stubBackend) AuthorExplanation(_ context.Context, _ string) (string, error) {
	return "An explanation.", nil
}

func (b *stubBackend) AuthorQuiz(_ context.Context, _ string) ([]genclient.QuizItem, error) {
	items := make([]genclient.QuizItem, 10)
	for i := range items {
		items[i] = genclient.QuizItem{
			Question:           fmt.Sprintf("Q%d", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: 0,
			Explanation:        "because",
		}
	}
	return items, nil
}

func (b *stubBackend) AnalyzePointer(_ context.Context, _ genclient.ImageData) (genclient.PointerAnalysis, error) {
	return genclient.PointerAnalysis{
		Explanation: "A rib.",
		Diagram:     genclient.ImageData{MIMEType: "image/png", Data: b.xray},
	}, nil
}

func (b *stubBackend) StartChat(_ context.Context, _ string) (chat.Remote, error) {
	return stubRemote{}, nil
}

type stubRemote struct{}

func (stubRemote) Send(_ context.Context, text string) (string, error) {
	return "re: " + text, nil
}

func (stubRemote) SendWithImage(_ context.Context, text string, _ genclient.ImageData) (string, error) {
	return "re: " + text, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.Gray{Y: 50})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	records := sessionstore.New(filepath.Join(t.TempDir(), "sessions.json"))
	artifacts := artifact.NewMemoryStore()
	mgr, err := pipeline.NewManager(&stubBackend{xray: testPNG(t)}, artifacts, records)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return NewService(mgr, artifacts, records)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec, decodeBody(t, rec)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createSession(t *testing.T, svc *Service) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	svc.HandleCreateSession(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", rec.Code)
	}
	var id string
	if err := json.Unmarshal(decodeBody(t, rec)["id"], &id); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return id
}

func pollPhase(t *testing.T, svc *Service, sessionID string, want pipeline.Phase) map[string]json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/view?session_id="+sessionID, nil)
		rec := httptest.NewRecorder()
		svc.HandleSessionView(rec, req)
		body := decodeBody(t, rec)
		var phase string
		_ = json.Unmarshal(body["phase"], &phase)
		if pipeline.Phase(phase) == want {
			return body
		}
		if pipeline.Phase(phase) == pipeline.PhaseFailed {
			t.Fatalf("pipeline failed: %s", rec.Body.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached phase %q", sessionID, want)
	return nil
}

func TestGenerateEndpointDrivesPipeline(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	rec, _ := postJSON(t, svc.HandleGenerate, map[string]any{
		"sessionId":   id,
		"description": "greenstick fracture",
		"age":         9,
		"gender":      "male",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("generate status = %d: %s", rec.Code, rec.Body.String())
	}

	body := pollPhase(t, svc, id, pipeline.PhaseChatReady)
	var quiz []genclient.QuizItem
	if err := json.Unmarshal(body["quiz"], &quiz); err != nil || len(quiz) != 10 {
		t.Fatalf("quiz = %v (err %v)", len(quiz), err)
	}
}

func TestGenerateRejectsBlankDescription(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	rec, _ := postJSON(t, svc.HandleGenerate, map[string]any{"sessionId": id, "description": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadAndAnalyzeEndpoints(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("session_id", id)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="film.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(testPNG(t)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	svc.HandleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = postJSON(t, svc.HandleAnalyze, map[string]any{"sessionId": id})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("analyze status = %d", rec.Code)
	}
	pollPhase(t, svc, id, pipeline.PhaseChatReady)
}

func TestAnalyzeWithoutUploadIsRejected(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	rec, body := postJSON(t, svc.HandleAnalyze, map[string]any{"sessionId": id})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("analyze status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected an error body, got %s", rec.Body.String())
	}
}

func TestUploadJSONDataURI(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t))
	b, _ := json.Marshal(map[string]any{"sessionId": id, "imageDataUri": uri})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.HandleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	var view struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Image == "" {
		t.Fatal("expected an image preview")
	}
}

func TestQuizAnswerEndpoint(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)
	postJSON(t, svc.HandleGenerate, map[string]any{"sessionId": id, "description": "kyphosis"})
	pollPhase(t, svc, id, pipeline.PhaseChatReady)

	rec, body := postJSON(t, svc.HandleQuizAnswer, map[string]any{"sessionId": id, "index": 1, "option": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz answer status = %d", rec.Code)
	}
	var answers []pipeline.QuizAnswer
	if err := json.Unmarshal(body["answers"], &answers); err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	if !answers[1].Answered || answers[1].Selected != 2 {
		t.Fatalf("answers[1] = %+v", answers[1])
	}
}

func TestPointerEndpoints(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)
	postJSON(t, svc.HandleGenerate, map[string]any{"sessionId": id, "description": "pleural effusion"})
	pollPhase(t, svc, id, pipeline.PhaseChatReady)

	rec, _ := postJSON(t, svc.HandlePointerOpen, map[string]any{"sessionId": id, "x": 0.4, "y": 0.6})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("pointer open status = %d: %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/view?session_id="+id, nil)
		viewRec := httptest.NewRecorder()
		svc.HandleSessionView(viewRec, req)
		var view struct {
			Pointer *pipeline.PointerView `json:"pointer"`
		}
		if err := json.Unmarshal(viewRec.Body.Bytes(), &view); err != nil {
			t.Fatalf("decode view: %v", err)
		}
		if view.Pointer != nil && view.Pointer.Phase == pipeline.PointerAnalyzed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pointer never analyzed: %s", viewRec.Body.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec, body := postJSON(t, svc.HandlePointerAsk, map[string]any{"sessionId": id, "question": "what bone is that"})
	if rec.Code != http.StatusOK {
		t.Fatalf("pointer ask status = %d: %s", rec.Code, rec.Body.String())
	}
	var reply string
	_ = json.Unmarshal(body["reply"], &reply)
	if reply != "re: what bone is that" {
		t.Fatalf("reply = %q", reply)
	}

	rec, _ = postJSON(t, svc.HandlePointerClose, map[string]any{"sessionId": id})
	if rec.Code != http.StatusOK {
		t.Fatalf("pointer close status = %d", rec.Code)
	}
}

func TestChatSendEndpoint(t *testing.T) {
	svc := newTestService(t)
	id := createSession(t, svc)

	rec, _ := postJSON(t, svc.HandleChatSend, map[string]any{"sessionId": id, "text": "hello"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("pre-chat send status = %d", rec.Code)
	}

	postJSON(t, svc.HandleGenerate, map[string]any{"sessionId": id, "description": "atelectasis"})
	pollPhase(t, svc, id, pipeline.PhaseChatReady)

	rec, body := postJSON(t, svc.HandleChatSend, map[string]any{"sessionId": id, "text": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body.String())
	}
	var reply string
	_ = json.Unmarshal(body["reply"], &reply)
	if reply != "re: hello" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestViewUnknownSession(t *testing.T) {
	svc := newTestService(t)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/view?session_id=sess-missing", nil)
	rec := httptest.NewRecorder()
	svc.HandleSessionView(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
