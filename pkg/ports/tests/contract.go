package tests

import (
	"context"
	"testing"

	"github.com/aretw0/whiteboard/pkg/ports"
)

// PromptLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.PromptLoader.
// profiles maps each profile name the loader was seeded with to its expected body.
func PromptLoaderContractTest(t *testing.T, loader ports.PromptLoader, profiles map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Prompt_Success", func(t *testing.T) {
		for name, want := range profiles {
			got, err := loader.Prompt(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting prompt %s: %v", name, err)
			}
			if got != want {
				t.Errorf("body mismatch for %s. got %q, want %q", name, got, want)
			}
		}
	})

	t.Run("Prompt_NotFound", func(t *testing.T) {
		_, err := loader.Prompt(ctx, "non-existent-profile")
		if err == nil {
			t.Error("expected error for non-existent profile, got nil")
		}
	})

	t.Run("ListPrompts", func(t *testing.T) {
		names, err := loader.ListPrompts(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing prompts: %v", err)
		}

		if len(names) != len(profiles) {
			t.Errorf("expected %d profiles, got %d", len(profiles), len(names))
		}

		for i := 1; i < len(names); i++ {
			if names[i-1] > names[i] {
				t.Errorf("profiles not sorted: %q before %q", names[i-1], names[i])
			}
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}
		for name := range profiles {
			if !lookup[name] {
				t.Errorf("profile %s missing from list", name)
			}
		}
	})
}
