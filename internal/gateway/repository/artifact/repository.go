package artifact

import (
	"context"
	"errors"
)

// Store persists the images a session produces: the generated X-ray, uploaded
// previews, annotated frames, and pointer diagrams.
type Store interface {
	Put(ctx context.Context, sessionID, name string, content []byte, contentType string) error
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	GetURL(ctx context.Context, sessionID, name string) (string, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")
