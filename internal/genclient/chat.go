package genclient

import (
	"context"
	"strings"

	genai "google.golang.org/genai"
)

// RemoteChat is an opaque handle to the service's stateful chat feature. The
// true conversation state lives remotely; callers keep their own log.
type RemoteChat struct {
	chat *genai.Chat
}

// StartChat opens a service-side conversation seeded with the context primer
// turn and a canned acknowledgment turn, under the tutoring behavior profile.
func (c *Client) StartChat(ctx context.Context, primerContext string) (*RemoteChat, error) {
	history := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Here is the context for the X-ray we will be discussing:\n\n" + primerContext),
		}, genai.RoleUser),
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(chatPrimerAck),
		}, genai.RoleModel),
	}
	chat, err := c.cli.Chats.Create(ctx, c.textModel, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: chatProfile}}},
		Temperature:       genai.Ptr[float32](0.5),
	}, history)
	if err != nil {
		return nil, transportError("start chat", err)
	}
	return &RemoteChat{chat: chat}, nil
}

// Send issues one text chat turn. The service advances its own history; the
// caller appends both turns to its local log.
func (r *RemoteChat) Send(ctx context.Context, text string) (string, error) {
	resp, err := r.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", transportError("chat turn", err)
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", taskError("chat turn", ErrEmptyResponse)
	}
	return out, nil
}

// SendWithImage issues one mixed chat turn carrying an image and a question.
func (r *RemoteChat) SendWithImage(ctx context.Context, text string, img ImageData) (string, error) {
	resp, err := r.chat.SendMessage(ctx,
		genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		genai.Part{Text: text},
	)
	if err != nil {
		return "", transportError("chat turn", err)
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", taskError("chat turn", ErrEmptyResponse)
	}
	return out, nil
}
