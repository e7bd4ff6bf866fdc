package pipeline

import (
	"context"

	"medxtutor/internal/chat"
	"medxtutor/internal/genclient"
)

// clientBackend lifts *genclient.Client to the Backend interface. Only
// StartChat needs bridging; its concrete chat handle satisfies chat.Remote.
type clientBackend struct {
	*genclient.Client
}

func FromClient(c *genclient.Client) Backend {
	return clientBackend{c}
}

func (b clientBackend) StartChat(ctx context.Context, primerContext string) (chat.Remote, error) {
	r, err := b.Client.StartChat(ctx, primerContext)
	if err != nil {
		return nil, err
	}
	return r, nil
}
