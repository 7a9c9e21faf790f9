package gemini

import (
	"encoding/json"
	"strings"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Contents converts a transcript into Gemini contents. Assistant tool calls
// become function calls on the model turn, and their terminal results follow
// as function responses on a user turn. Calls that never finished are dropped
// so every function call stays paired with a response.
func Contents(t domain.Transcript) ([]*genai.Content, error) {
	var out []*genai.Content

	for _, m := range t {
		switch m.Role {
		case domain.RoleUser:
			text := m.Text()
			if text == "" {
				continue
			}
			out = append(out, genai.NewContentFromText(text, genai.RoleUser))

		case domain.RoleAssistant:
			model := &genai.Content{Role: genai.RoleModel}
			results := &genai.Content{Role: genai.RoleUser}

			for _, p := range m.Parts {
				switch p.Type {
				case domain.PartText:
					if p.Text != "" {
						model.Parts = append(model.Parts, genai.NewPartFromText(p.Text))
					}
				case domain.PartTool:
					call := p.Tool
					if call == nil || !call.State.Terminal() {
						continue
					}
					args := decodeObject(call.Input)
					model.Parts = append(model.Parts, &genai.Part{
						FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: args},
					})
					results.Parts = append(results.Parts, &genai.Part{
						FunctionResponse: &genai.FunctionResponse{ID: call.ID, Name: call.Name, Response: response(call)},
					})
				}
			}

			if len(model.Parts) > 0 {
				out = append(out, model)
			}
			if len(results.Parts) > 0 {
				out = append(out, results)
			}
		}
	}
	return out, nil
}

// Tools converts tool definitions into one Gemini tool with a function
// declaration per definition. Parameters are passed through as JSON Schema.
func Tools(defs []domain.ToolDefinition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decl := &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
		}
		if def.Parameters != nil {
			decl.ParametersJsonSchema = def.Parameters
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func response(call *domain.ToolCall) map[string]any {
	if call.State == domain.CallOutputError {
		return map[string]any{"error": call.ErrorText}
	}
	var output any
	if len(call.Output) > 0 {
		if err := json.Unmarshal(call.Output, &output); err != nil {
			output = string(call.Output)
		}
	}
	return map[string]any{"output": output}
}

// decodeObject returns the call arguments, or an empty object when the
// input is missing or not a JSON object. The call's error result tells the model why.
func decodeObject(raw json.RawMessage) map[string]any {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

func finishReason(r genai.FinishReason, sawCalls bool) string {
	if sawCalls {
		return "tool-calls"
	}
	switch r {
	case genai.FinishReasonStop, "":
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return "content-filter"
	default:
		return strings.ToLower(string(r))
	}
}

func newCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
