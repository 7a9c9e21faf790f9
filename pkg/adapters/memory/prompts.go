package memory

import (
	"context"
	"fmt"
	"sort"
)

// Prompts implements ports.PromptLoader using an in-memory map.
type Prompts struct {
	profiles map[string]string
}

// NewPrompts creates a loader serving the given name to body pairs.
func NewPrompts(profiles map[string]string) *Prompts {
	copied := make(map[string]string, len(profiles))
	for k, v := range profiles {
		copied[k] = v
	}
	return &Prompts{profiles: copied}
}

// Prompt returns the body of the named profile.
func (p *Prompts) Prompt(ctx context.Context, name string) (string, error) {
	body, ok := p.profiles[name]
	if !ok {
		return "", fmt.Errorf("prompt not found: %s", name)
	}
	return body, nil
}

// ListPrompts returns all profile names.
func (p *Prompts) ListPrompts(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(p.profiles))
	for k := range p.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
