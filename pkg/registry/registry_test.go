package registry_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Definitions(t *testing.T) {
	defs := registry.Default().Definitions()

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
		assert.Equal(t, domain.SiteClient, d.Site, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		assert.Equal(t, "object", d.Parameters["type"], d.Name)
	}

	assert.Equal(t, []string{
		registry.NameLogMessage,
		registry.NameGetWhiteboard,
		registry.NameAddCard,
		registry.NameUpdateCard,
		registry.NameRemoveCard,
		registry.NameRemoveCluster,
		registry.NameSetCaption,
		registry.NameClearWhiteboard,
	}, names)
}

func TestDefault_SchemasAreJSON(t *testing.T) {
	for _, d := range registry.Default().Definitions() {
		_, err := json.Marshal(d.Parameters)
		require.NoError(t, err, d.Name)
	}

	def, ok := registry.Default().Lookup(registry.NameAddCard)
	require.True(t, ok)
	assert.Equal(t, []any{"id", "color", "text"}, def.Parameters["required"])
}

func TestDecode(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name  string
		tool  string
		input string
		want  registry.Tool
	}{
		{
			name:  "add card with cluster",
			tool:  registry.NameAddCard,
			input: `{"id":"a","color":"red","text":"Alice","cluster":"Team"}`,
			want:  registry.AddCard{ID: "a", Color: "red", Text: "Alice", Cluster: "Team"},
		},
		{
			name:  "add card without cluster",
			tool:  registry.NameAddCard,
			input: `{"id":"a","color":"blue","text":"Alice"}`,
			want:  registry.AddCard{ID: "a", Color: "blue", Text: "Alice"},
		},
		{
			name:  "update with tag only",
			tool:  registry.NameUpdateCard,
			input: `{"id":"a","tag":"🔥"}`,
			want:  registry.UpdateCard{ID: "a", Tag: domain.StringPtr("🔥")},
		},
		{
			name:  "update with null tag",
			tool:  registry.NameUpdateCard,
			input: `{"id":"a","tag":null,"cluster":"Sales"}`,
			want:  registry.UpdateCard{ID: "a", Cluster: domain.StringPtr("Sales")},
		},
		{
			name:  "get whiteboard with empty input",
			tool:  registry.NameGetWhiteboard,
			input: ``,
			want:  registry.GetWhiteboard{},
		},
		{
			name:  "clear with null input",
			tool:  registry.NameClearWhiteboard,
			input: `null`,
			want:  registry.ClearWhiteboard{},
		},
		{
			name:  "remove cluster",
			tool:  registry.NameRemoveCluster,
			input: `{"id":"Team"}`,
			want:  registry.RemoveCluster{ID: "Team"},
		},
		{
			name:  "log message",
			tool:  registry.NameLogMessage,
			input: `{"message":"hi"}`,
			want:  registry.LogMessage{Message: "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Decode(tt.tool, json.RawMessage(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.tool, got.ToolName())
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name  string
		tool  string
		input string
	}{
		{"not an object", registry.NameAddCard, `[1,2]`},
		{"malformed json", registry.NameAddCard, `{"id":`},
		{"missing id", registry.NameAddCard, `{"color":"red","text":"x"}`},
		{"bad color", registry.NameAddCard, `{"id":"a","color":"purple","text":"x"}`},
		{"empty text", registry.NameAddCard, `{"id":"a","color":"red","text":"  "}`},
		{"text too long", registry.NameAddCard, `{"id":"a","color":"red","text":"` + strings.Repeat("x", registry.MaxTextLength+1) + `"}`},
		{"wrong type", registry.NameAddCard, `{"id":7,"color":"red","text":"x"}`},
		{"unknown key", registry.NameRemoveCard, `{"id":"a","force":true}`},
		{"tag too long", registry.NameUpdateCard, `{"id":"a","tag":"` + strings.Repeat("🔥", registry.MaxTagLength+1) + `"}`},
		{"blank cluster", registry.NameUpdateCard, `{"id":"a","cluster":""}`},
		{"multi-line caption", registry.NameSetCaption, `{"text":"one\ntwo"}`},
		{"empty message", registry.NameLogMessage, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Decode(tt.tool, json.RawMessage(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestDecode_UnknownTool(t *testing.T) {
	_, err := registry.Default().Decode("deleteEverything", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrUnknownTool)
}

func TestRegister_OverwriteKeepsOrder(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(domain.ToolDefinition{Name: "a"}, registry.Variant[registry.GetWhiteboard]())
	reg.Register(domain.ToolDefinition{Name: "b"}, registry.Variant[registry.ClearWhiteboard]())
	reg.Register(domain.ToolDefinition{Name: "a", Description: "again"}, registry.Variant[registry.GetWhiteboard]())

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].Name)
	assert.Equal(t, "again", defs[0].Description)
	assert.Equal(t, "b", defs[1].Name)
}
