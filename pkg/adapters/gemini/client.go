// Package gemini adapts the Google Gen AI SDK to ports.Model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/stream"
	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

var ErrMissingAPIKey = errors.New("gemini API key is required")

// contentStreamer is the subset of *genai.Models used by the client.
type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client implements ports.Model on top of the Gemini API.
type Client struct {
	models      contentStreamer
	model       string
	temperature *float32
	newID       func() string
}

// Option configures a Client.
type Option func(*Client)

// WithModel selects the model name.
func WithModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = &t
	}
}

// WithIDGenerator overrides how ids are assigned to function calls the API
// returns without one.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newClient(gc.Models, opts...), nil
}

func newClient(models contentStreamer, opts ...Option) *Client {
	c := &Client{
		models: models,
		model:  DefaultModel,
		newID:  newCallID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Model = (*Client)(nil)

// Stream implements ports.Model. The SDK iterator is converted into a pull
// stream; closing the stream stops the iterator.
func (c *Client) Stream(ctx context.Context, req ports.ModelRequest) (stream.Stream, error) {
	contents, err := Contents(req.Messages)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini: transcript has no content")
	}

	config := &genai.GenerateContentConfig{
		Temperature: c.temperature,
		Tools:       Tools(req.Tools),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	seq := c.models.GenerateContentStream(ctx, c.model, contents, config)
	next, stop := iter.Pull2(seq)
	return &responseStream{next: next, stop: stop, newID: c.newID}, nil
}
