package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decoder builds a typed Tool from raw arguments.
type Decoder func(args map[string]any) (Tool, error)

type entry struct {
	def    domain.ToolDefinition
	decode Decoder
}

// Registry manages the available tools.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten in place.
func (r *Registry) Register(def domain.ToolDefinition, decode Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.Site == "" {
		def.Site = domain.SiteClient
	}
	if _, exists := r.entries[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.entries[def.Name] = entry{def: def, decode: decode}
}

// Lookup returns the definition of a tool by name.
func (r *Registry) Lookup(name string) (domain.ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// Definitions returns every tool definition in registration order.
func (r *Registry) Definitions() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Decode parses and validates the raw JSON input of a tool call.
// Unknown names wrap domain.ErrUnknownTool, malformed payloads wrap domain.ErrInvalidInput.
func (r *Registry) Decode(name string, raw json.RawMessage) (Tool, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}

	args := map[string]any{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return nil, fmt.Errorf("%w: %s input is not a JSON object: %v", domain.ErrInvalidInput, name, err)
		}
	}

	tool, err := e.decode(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
	}
	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tool, nil
}

// Variant returns a Decoder that maps arguments onto T using mapstructure.
// Unknown keys and mistyped values are rejected.
func Variant[T Tool]() Decoder {
	return func(args map[string]any) (Tool, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &out,
			ErrorUnused: true,
			TagName:     "mapstructure",
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(args); err != nil {
			return nil, err
		}
		return out, nil
	}
}
