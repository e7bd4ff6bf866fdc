package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"medxtutor/internal/genclient"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.Gray{Y: 40})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// chatReadySession runs the upload flow over a real PNG so pointer marks have
// a decodable artifact.
func chatReadySession(t *testing.T, fb *fakeBackend) (*Manager, *Session) {
	t.Helper()
	mgr, _ := newTestManager(t, fb)
	sess := mgr.CreateSession()
	if err := mgr.AttachUpload(context.Background(), sess.ID, testPNG(t), "image/png"); err != nil {
		t.Fatalf("AttachUpload: %v", err)
	}
	if err := mgr.StartAnalyze(context.Background(), sess.ID); err != nil {
		t.Fatalf("StartAnalyze: %v", err)
	}
	return mgr, sess
}

func TestPointerLifecycle(t *testing.T) {
	fb := &fakeBackend{}
	mgr, sess := chatReadySession(t, fb)

	if err := mgr.OpenPointer(sess.ID, 0.5, 0.25); err != nil {
		t.Fatalf("OpenPointer: %v", err)
	}
	v := sess.View()
	if v.Pointer == nil || v.Pointer.Phase != PointerUnanalyzed {
		t.Fatalf("pointer view = %+v", v.Pointer)
	}

	if err := mgr.EnsurePointerAnalysis(context.Background(), sess.ID); err != nil {
		t.Fatalf("EnsurePointerAnalysis: %v", err)
	}
	v = sess.View()
	if v.Pointer.Phase != PointerAnalyzed {
		t.Fatalf("pointer phase = %q", v.Pointer.Phase)
	}
	if v.Pointer.Explanation != "That is the clavicle." {
		t.Fatalf("pointer explanation = %q", v.Pointer.Explanation)
	}
	if !strings.HasPrefix(v.Pointer.Annotated, "data:image/png;base64,") {
		t.Fatalf("annotated = %q", v.Pointer.Annotated[:min(len(v.Pointer.Annotated), 40)])
	}
	if v.Pointer.Diagram == "" {
		t.Fatal("expected a diagram data URI")
	}

	// Re-ensuring an analyzed mark must not call the backend again.
	calls := len(fb.callNames())
	if err := mgr.EnsurePointerAnalysis(context.Background(), sess.ID); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	if got := len(fb.callNames()); got != calls {
		t.Fatalf("backend called %d more times on re-ensure", got-calls)
	}

	if err := mgr.ClosePointer(sess.ID); err != nil {
		t.Fatalf("ClosePointer: %v", err)
	}
	if sess.View().Pointer != nil {
		t.Fatal("pointer should be cleared after close")
	}
}

func TestOpenPointerBeforeChatReady(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeBackend{})
	sess := mgr.CreateSession()

	if err := mgr.OpenPointer(sess.ID, 0.5, 0.5); !errors.Is(err, ErrChatUnavailable) {
		t.Fatalf("err = %v, want ErrChatUnavailable", err)
	}
}

func TestOpenPointerRejectsOutOfRangeCoords(t *testing.T) {
	fb := &fakeBackend{}
	mgr, sess := chatReadySession(t, fb)

	if err := mgr.OpenPointer(sess.ID, 1.5, 0.5); !errors.Is(err, genclient.ErrUserInput) {
		t.Fatalf("err = %v, want ErrUserInput", err)
	}
}

func TestPointerAnalysisFailureIsRetryable(t *testing.T) {
	wantErr := errors.New("vision model down")
	fb := &fakeBackend{pointerErr: wantErr}
	mgr, sess := chatReadySession(t, fb)

	if err := mgr.OpenPointer(sess.ID, 0.3, 0.7); err != nil {
		t.Fatalf("OpenPointer: %v", err)
	}
	if err := mgr.EnsurePointerAnalysis(context.Background(), sess.ID); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	v := sess.View()
	if v.Pointer.Phase != PointerFailed || v.Pointer.Failure == "" {
		t.Fatalf("pointer after failure = %+v", v.Pointer)
	}

	fb.pointerErr = nil
	if err := mgr.EnsurePointerAnalysis(context.Background(), sess.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sess.View().Pointer.Phase != PointerAnalyzed {
		t.Fatal("retry should reach the analyzed state")
	}
}

func TestAskPointerRequiresAnalysis(t *testing.T) {
	fb := &fakeBackend{}
	mgr, sess := chatReadySession(t, fb)

	if _, err := mgr.AskPointer(context.Background(), sess.ID, "what is this"); !errors.Is(err, ErrNoPointer) {
		t.Fatalf("err = %v, want ErrNoPointer", err)
	}

	if err := mgr.OpenPointer(sess.ID, 0.5, 0.5); err != nil {
		t.Fatalf("OpenPointer: %v", err)
	}
	if _, err := mgr.AskPointer(context.Background(), sess.ID, "what is this"); !errors.Is(err, genclient.ErrUserInput) {
		t.Fatalf("unanalyzed ask err = %v", err)
	}

	if err := mgr.EnsurePointerAnalysis(context.Background(), sess.ID); err != nil {
		t.Fatalf("EnsurePointerAnalysis: %v", err)
	}
	reply, err := mgr.AskPointer(context.Background(), sess.ID, "what is this")
	if err != nil {
		t.Fatalf("AskPointer: %v", err)
	}
	if reply != "image reply to what is this" {
		t.Fatalf("reply = %q", reply)
	}

	// The transcript shows the pointer phrasing, not the raw question.
	msgs := sess.Chat().Messages()
	last := msgs[len(msgs)-2]
	if last.Text != "(User pointed at image) what is this" {
		t.Fatalf("user turn = %q", last.Text)
	}
}

// Asking about a mark while its analysis is still running must observe a
// consistent phase rather than race with the background transition.
func TestAskPointerDuringAnalysis(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBackend{pointerGate: gate}
	mgr, sess := chatReadySession(t, fb)

	if err := mgr.OpenPointer(sess.ID, 0.4, 0.6); err != nil {
		t.Fatalf("OpenPointer: %v", err)
	}

	ensured := make(chan error, 1)
	go func() {
		ensured <- mgr.EnsurePointerAnalysis(context.Background(), sess.ID)
	}()

	asked := make(chan struct{})
	go func() {
		defer close(asked)
		for i := 0; i < 200; i++ {
			if i == 100 {
				close(gate)
			}
			reply, err := mgr.AskPointer(context.Background(), sess.ID, "what is this")
			if err == nil {
				if reply != "image reply to what is this" {
					t.Errorf("reply = %q", reply)
				}
				continue
			}
			if !errors.Is(err, genclient.ErrUserInput) {
				t.Errorf("ask err = %v", err)
			}
		}
	}()

	if err := <-ensured; err != nil {
		t.Fatalf("EnsurePointerAnalysis: %v", err)
	}
	<-asked

	if _, err := mgr.AskPointer(context.Background(), sess.ID, "what is this"); err != nil {
		t.Fatalf("ask after analysis: %v", err)
	}
	if sess.View().Pointer.Phase != PointerAnalyzed {
		t.Fatalf("pointer phase = %q", sess.View().Pointer.Phase)
	}
}
