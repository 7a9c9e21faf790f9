package ports

import "context"

// PromptLoader resolves system prompt profiles by name.
// This allows the prompt source (Loam, FS, Memory) to be decoupled.
type PromptLoader interface {
	// Prompt returns the body of the named profile.
	Prompt(ctx context.Context, name string) (string, error)

	// ListPrompts returns the names of all available profiles.
	ListPrompts(ctx context.Context) ([]string, error)
}
