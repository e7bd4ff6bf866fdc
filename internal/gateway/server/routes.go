package server

import (
	"net/http"

	"medxtutor/internal/gateway/handler"
	"medxtutor/internal/gateway/middleware"
)

func NewMux(svc *handler.Service) http.Handler {
	mux := http.NewServeMux()

	// Session lifecycle
	mux.HandleFunc("/api/sessions", svc.HandleCreateSession)
	mux.HandleFunc("/api/sessions/view", svc.HandleSessionView)
	mux.HandleFunc("/api/sessions/mode", svc.HandleSwitchMode)
	mux.HandleFunc("/api/sessions/records", svc.HandleRecords)

	// Pipeline entry points
	mux.HandleFunc("/api/generate", svc.HandleGenerate)
	mux.HandleFunc("/api/upload", svc.HandleUpload)
	mux.HandleFunc("/api/analyze", svc.HandleAnalyze)

	// Quiz and chat
	mux.HandleFunc("/api/quiz/answer", svc.HandleQuizAnswer)
	mux.HandleFunc("/api/chat/send", svc.HandleChatSend)
	mux.HandleFunc("/ws/chat", svc.HandleChatWS)

	// Point-and-query
	mux.HandleFunc("/api/pointer/open", svc.HandlePointerOpen)
	mux.HandleFunc("/api/pointer/ask", svc.HandlePointerAsk)
	mux.HandleFunc("/api/pointer/close", svc.HandlePointerClose)

	// Stored images
	mux.HandleFunc("/api/artifacts", svc.HandleArtifact)

	return middleware.CORS(mux)
}
