// Package uistream is a model client for endpoints that speak the UI message
// stream protocol: the transcript is POSTed as JSON and the reply arrives as
// server-sent events decoded by stream.NewDecoder.
package uistream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/stream"
)

const maxErrorBodyBytes = 2048

var (
	ErrUnauthorized = errors.New("model endpoint rejected credentials")
	ErrRateLimited  = errors.New("model endpoint rate limited")
	ErrUnavailable  = errors.New("model endpoint unavailable")
)

// Client implements ports.Model over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends the key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithModel names the model in every request body.
func WithModel(name string) Option {
	return func(c *Client) {
		c.model = name
	}
}

// WithHTTPClient replaces the default HTTP client. No overall timeout is set
// by default because responses are streamed for as long as the turn lasts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a client posting to endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Model = (*Client)(nil)

// Stream implements ports.Model.
func (c *Client) Stream(ctx context.Context, req ports.ModelRequest) (stream.Stream, error) {
	body, err := json.Marshal(encodeRequest(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, fmt.Errorf("model endpoint error: %s - %s", resp.Status, string(errorBody))
	}

	return stream.NewDecoder(resp.Body), nil
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	System   string        `json:"system,omitempty"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	ID    string     `json:"id"`
	Role  string     `json:"role"`
	Parts []chatPart `json:"parts"`
}

// chatPart mirrors the UI message part shape: text parts carry Text, tool
// parts are typed "tool-<name>" and carry the call state.
type chatPart struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	State      string          `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

type chatTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

func encodeRequest(model string, req ports.ModelRequest) chatRequest {
	out := chatRequest{
		Model:    model,
		System:   req.System,
		Messages: make([]chatMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		cm := chatMessage{ID: m.ID, Role: string(m.Role), Parts: make([]chatPart, 0, len(m.Parts))}
		for _, p := range m.Parts {
			switch p.Type {
			case domain.PartText:
				cm.Parts = append(cm.Parts, chatPart{Type: "text", Text: p.Text})
			case domain.PartTool:
				if p.Tool == nil {
					continue
				}
				cm.Parts = append(cm.Parts, chatPart{
					Type:       "tool-" + p.Tool.Name,
					ToolCallID: p.Tool.ID,
					State:      string(p.Tool.State),
					Input:      p.Tool.Input,
					Output:     p.Tool.Output,
					ErrorText:  p.Tool.ErrorText,
				})
			}
		}
		out.Messages = append(out.Messages, cm)
	}
	for _, def := range req.Tools {
		out.Tools = append(out.Tools, chatTool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		})
	}
	return out
}
