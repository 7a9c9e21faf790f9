package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
)

// ErrEmptyPrompt is returned when a profile document has no body.
var ErrEmptyPrompt = errors.New("prompt profile has no body")

// Loader adapts a Loam repository of markdown documents to ports.PromptLoader.
// Each document is a prompt profile: frontmatter is PromptMetadata and the
// body is the system prompt.
type Loader struct {
	Repo *loam.TypedRepository[PromptMetadata]
}

// New creates a new Loam prompt loader.
func New(repo *loam.TypedRepository[PromptMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes (or opens) a Loam repository at dir without versioning.
func Open(dir string) (*Loader, error) {
	repo, err := loam.Init(dir, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("loam init failed for %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[PromptMetadata](repo)), nil
}

// Profile resolves a profile by name. Loam matches "default" to default.md.
func (l *Loader) Profile(ctx context.Context, name string) (Profile, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		return Profile{}, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	body := strings.TrimSpace(doc.Content)
	if body == "" {
		return Profile{}, fmt.Errorf("%s: %w", name, ErrEmptyPrompt)
	}

	id := doc.Data.ID
	if id == "" {
		id = doc.ID
	}

	return Profile{
		Name:     trimExtension(id),
		Metadata: doc.Data,
		Prompt:   body,
	}, nil
}

// Prompt implements ports.PromptLoader.
func (l *Loader) Prompt(ctx context.Context, name string) (string, error) {
	p, err := l.Profile(ctx, name)
	if err != nil {
		return "", err
	}
	return p.Prompt, nil
}

// ListPrompts implements ports.PromptLoader. Names are sorted.
func (l *Loader) ListPrompts(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		name := trimExtension(rawID)

		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: profile '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch emits the id of every profile document that changes until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
