package loam

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/whiteboard/internal/testutils"
	"github.com/aretw0/whiteboard/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	testutils.WriteFiles(t, dir, files)

	l, err := Open(dir)
	require.NoError(t, err)
	return l
}

func TestLoader_Profile(t *testing.T) {
	l := setupLoader(t, map[string]string{
		"planner.md": `---
description: Plans work on the board
model: gemini-2.5-flash
max_steps: 4
---
You organize the user's ideas into clusters.`,
	})

	p, err := l.Profile(context.Background(), "planner")
	require.NoError(t, err)

	assert.Equal(t, "planner", p.Name)
	assert.Equal(t, "Plans work on the board", p.Metadata.Description)
	assert.Equal(t, "gemini-2.5-flash", p.Metadata.Model)
	assert.Equal(t, 4, p.Metadata.MaxSteps)
	assert.Equal(t, "You organize the user's ideas into clusters.", p.Prompt)

	prompt, err := l.Prompt(context.Background(), "planner")
	require.NoError(t, err)
	assert.Equal(t, p.Prompt, prompt)
}

func TestLoader_Profile_Errors(t *testing.T) {
	l := setupLoader(t, map[string]string{
		"empty.md": `---
description: nothing here
---
`,
	})

	_, err := l.Profile(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = l.Prompt(context.Background(), "missing")
	assert.Error(t, err)
}

func TestLoader_ListPrompts_NormalizesNames(t *testing.T) {
	l := setupLoader(t, map[string]string{
		"zeta.md": `---
id: zeta.md
---
Z`,
		"alpha.md": `---
description: implicit id
---
A`,
	})

	names, err := l.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestLoader_ListPrompts_DetectsCollisions(t *testing.T) {
	l := setupLoader(t, map[string]string{
		"one.md": `---
id: shared
---
One`,
		"two.md": `---
id: shared
---
Two`,
	})

	_, err := l.ListPrompts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestNew_WrapsTypedRepository(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t, loam.WithVersioning(false))

	l := New(loam.NewTypedRepository[PromptMetadata](repo))
	names, err := l.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = l.Prompt(context.Background(), "missing")
	assert.Error(t, err)
}

func TestLoader_Contract(t *testing.T) {
	l := setupLoader(t, map[string]string{
		"default.md": `---
description: general board assistant
---
You explain ideas with cards.`,
		"planner.md": `---
max_steps: 3
---
You plan.`,
	})

	tests.PromptLoaderContractTest(t, l, map[string]string{
		"default": "You explain ideas with cards.",
		"planner": "You plan.",
	})
}
