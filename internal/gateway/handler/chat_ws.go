package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"medxtutor/internal/chat"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type chatWSOutbound struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
	Code     string         `json:"code,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// HandleChatWS upgrades to a websocket bound to one session's conversation.
// Replies arrive as "reply" frames; the full transcript is replayed on
// connect so a reconnecting client resynchronizes without a second endpoint.
func (s *Service) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	if cont := sess.Chat(); cont != nil {
		pushChatWS(writeCh, chatWSOutbound{Type: "messages", Messages: cont.Messages()})
	}

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChatWS(writeCh, chatWSOutbound{Type: "pong"})
		case "send":
			cont := sess.Chat()
			if cont == nil {
				pushChatWS(writeCh, chatWSOutbound{
					Type:    "error",
					Code:    "chat_unavailable",
					Message: "chat is not available yet",
				})
				continue
			}
			reply, sendErr := cont.Send(ctx, in.Text)
			if sendErr != nil {
				pushChatWS(writeCh, chatWSOutbound{
					Type:     "error",
					Code:     "send_failed",
					Message:  sendErr.Error(),
					Messages: cont.Messages(),
				})
				continue
			}
			if err := s.mgr.Persist(ctx, sess.ID); err != nil {
				log.Printf("persist session %s: %v", sess.ID, err)
			}
			pushChatWS(writeCh, chatWSOutbound{
				Type:     "reply",
				Text:     reply,
				Messages: cont.Messages(),
			})
		default:
			pushChatWS(writeCh, chatWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + strings.TrimSpace(in.Type),
			})
		}
	}
}

func pushChatWS(writeCh chan chatWSOutbound, out chatWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
