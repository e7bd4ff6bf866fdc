// Package chat keeps the local conversation log for a tutoring session and
// relays turns to the generation service's stateful chat feature. The remote
// handle is treated as a capability token; the local log is the single source
// of truth for rendering.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medxtutor/internal/genclient"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn in the conversation. Never mutated after append.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Remote is the service-side chat capability a continuation relays to.
type Remote interface {
	Send(ctx context.Context, text string) (string, error)
	SendWithImage(ctx context.Context, text string, img genclient.ImageData) (string, error)
}

var ErrBusy = errors.New("a chat message is already in flight")

// Continuation owns one conversation: the remote handle plus the append-only
// local log. Sends are serialized; a send while one is in flight is rejected
// without touching the log.
type Continuation struct {
	mu     sync.Mutex
	remote Remote
	log    []Message
	busy   bool
}

func New(remote Remote) *Continuation {
	return &Continuation{remote: remote}
}

// Send issues one text turn. The user turn is appended before the call; the
// model reply, or a synthesized error turn, is appended after. The log grows
// by exactly two entries per accepted send, success or not.
func (c *Continuation) Send(ctx context.Context, text string) (string, error) {
	if err := c.begin(text, text); err != nil {
		return "", err
	}
	reply, err := c.remote.Send(ctx, text)
	c.finish(reply, err)
	return reply, err
}

// SendWithImage issues one mixed turn. displayText is what the local log
// records for the user turn (e.g. a pointer-question marker), while text and
// img are what the service receives.
func (c *Continuation) SendWithImage(ctx context.Context, text string, img genclient.ImageData, displayText string) (string, error) {
	if strings.TrimSpace(displayText) == "" {
		displayText = text
	}
	if err := c.begin(text, displayText); err != nil {
		return "", err
	}
	reply, err := c.remote.SendWithImage(ctx, text, img)
	c.finish(reply, err)
	return reply, err
}

// Messages returns a snapshot of the conversation log.
func (c *Continuation) Messages() []Message {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.log))
	copy(out, c.log)
	return out
}

func (c *Continuation) begin(text, displayText string) error {
	if strings.TrimSpace(text) == "" {
		return genclient.ErrUserInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.log = append(c.log, Message{Role: RoleUser, Text: displayText})
	return nil
}

func (c *Continuation) finish(reply string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.log = append(c.log, Message{Role: RoleModel, Text: "Error: " + err.Error()})
		return
	}
	c.log = append(c.log, Message{Role: RoleModel, Text: reply})
}
