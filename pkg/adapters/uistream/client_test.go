package uistream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Stream(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		require.NoError(t, stream.Encode(w, stream.TextDelta{Text: "On it."}))
		require.NoError(t, stream.Encode(w, stream.ToolInputAvailable{
			CallID:   "c1",
			ToolName: "setCaption",
			Input:    json.RawMessage(`{"text":"Plan"}`),
		}))
		require.NoError(t, stream.Encode(w, stream.Finish{Reason: "tool-calls"}))
		require.NoError(t, stream.EncodeDone(w))
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"), WithModel("test-model"))

	prior := domain.Message{
		ID:   "a1",
		Role: domain.RoleAssistant,
		Parts: []domain.Part{{Type: domain.PartTool, Tool: &domain.ToolCall{
			ID:     "c0",
			Name:   "getWhiteboard",
			State:  domain.CallOutputAvailable,
			Input:  json.RawMessage(`{}`),
			Output: json.RawMessage(`{"clusters":[]}`),
		}}},
	}
	req := ports.ModelRequest{
		System: "be tidy",
		Messages: domain.Transcript{
			domain.NewUserMessage("u1", "hello", time.Now()),
			prior,
		},
		Tools: []domain.ToolDefinition{{Name: "setCaption", Description: "Sets the caption"}},
	}

	s, err := c.Stream(context.Background(), req)
	require.NoError(t, err)
	events, err := stream.Drain(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, stream.TextDelta{Text: "On it."}, events[0])
	avail, ok := events[1].(stream.ToolInputAvailable)
	require.True(t, ok)
	assert.Equal(t, "setCaption", avail.ToolName)
	assert.JSONEq(t, `{"text":"Plan"}`, string(avail.Input))
	assert.Equal(t, stream.Finish{Reason: "tool-calls"}, events[2])

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "be tidy", got.System)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "text", got.Messages[0].Parts[0].Type)
	assert.Equal(t, "hello", got.Messages[0].Parts[0].Text)
	toolPart := got.Messages[1].Parts[0]
	assert.Equal(t, "tool-getWhiteboard", toolPart.Type)
	assert.Equal(t, "c0", toolPart.ToolCallID)
	assert.Equal(t, "output-available", toolPart.State)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "setCaption", got.Tools[0].Name)
}

func TestClient_Stream_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"unavailable", http.StatusBadGateway, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL).Stream(context.Background(), ports.ModelRequest{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Stream_BadRequestIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "messages required", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Stream(context.Background(), ports.ModelRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages required")
}
