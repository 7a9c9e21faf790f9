package ports

import (
	"context"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/stream"
)

// ModelRequest is everything a provider needs to produce the next assistant turn.
type ModelRequest struct {
	System   string
	Messages domain.Transcript
	Tools    []domain.ToolDefinition
}

// Model is a language model provider.
// Stream returns as soon as the response starts; events are pulled from the result.
type Model interface {
	Stream(ctx context.Context, req ModelRequest) (stream.Stream, error)
}
