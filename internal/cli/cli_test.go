package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/whiteboard/internal/config"
	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/internal/presentation/tui"
	"github.com/aretw0/whiteboard/pkg/adapters/file"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/ports"
	"github.com/aretw0/whiteboard/pkg/registry"
	"github.com/aretw0/whiteboard/pkg/stream"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// scriptedModel replays one canned turn per request and records the system prompt.
type scriptedModel struct {
	mu      sync.Mutex
	turns   [][]stream.Event
	systems []string
}

func (m *scriptedModel) Stream(ctx context.Context, req ports.ModelRequest) (stream.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems = append(m.systems, req.System)
	if len(m.turns) == 0 {
		return stream.Replay(stream.TextDelta{Text: "ok"}), nil
	}
	next := m.turns[0]
	m.turns = m.turns[1:]
	return stream.Replay(next...), nil
}

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreMemory
	return cfg
}

func newTestRuntime(t *testing.T, cfg config.Config, model ports.Model) *Runtime {
	t.Helper()
	rt, err := NewRuntime(context.Background(), cfg,
		WithModel(model),
		WithRuntimeLogger(logging.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestNewRuntime_DefaultPrompt(t *testing.T) {
	model := &scriptedModel{}
	rt := newTestRuntime(t, memoryConfig(), model)

	sess, err := rt.Open(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.NoError(t, sess.Submit(context.Background(), "hi"))

	require.Len(t, model.systems, 1)
	assert.Equal(t, registry.SystemPrompt, model.systems[0])

	rec, err := rt.Store.Load(context.Background(), "s1")
	require.NoError(t, err, "sessions are checkpointed through the manager")
	assert.Len(t, rec.Transcript, 2)
}

func TestNewRuntime_LoamProfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coach.md"), []byte(`---
description: terse coach
max_steps: 2
---
Be brief.`), 0644))

	cfg := memoryConfig()
	cfg.PromptsDir = dir
	cfg.Profile = "coach"

	model := &scriptedModel{}
	rt := newTestRuntime(t, cfg, model)
	assert.Equal(t, 2, rt.Config.MaxSteps)

	sess, err := rt.Open(context.Background(), "s1", nil)
	require.NoError(t, err)
	require.NoError(t, sess.Submit(context.Background(), "hi"))
	assert.Equal(t, []string{"Be brief."}, model.systems)
}

func TestNewRuntime_MissingExplicitProfile(t *testing.T) {
	cfg := memoryConfig()
	cfg.Profile = "nope"

	_, err := NewRuntime(context.Background(), cfg, WithModel(&scriptedModel{}), WithRuntimeLogger(logging.NewNop()))
	assert.Error(t, err)
}

func TestNewRuntime_WithoutModel(t *testing.T) {
	rt, err := NewRuntime(context.Background(), memoryConfig(), WithoutModel(), WithRuntimeLogger(logging.NewNop()))
	require.NoError(t, err)

	sess, err := rt.Open(context.Background(), "s1", nil)
	require.NoError(t, err)
	err = sess.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, errNoModel)
}

func TestNewRuntime_Seed(t *testing.T) {
	cfg := memoryConfig()
	cfg.Seed = true
	rt := newTestRuntime(t, cfg, &scriptedModel{})

	sess, err := rt.Open(context.Background(), "seeded", nil)
	require.NoError(t, err)
	assert.Positive(t, sess.Snapshot().CardCount())
}

func TestNewRuntime_EncryptedStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	rt := newTestRuntime(t, cfg, &scriptedModel{})

	rec := domain.NewSessionRecord("secret")
	rec.Snapshot.Caption = "top secret"
	require.NoError(t, rt.Manager.Save(context.Background(), rec))

	loaded, err := rt.Manager.Load(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "top secret", loaded.Snapshot.Caption)

	raw, err := file.New(cfg.Store.Dir).Load(context.Background(), "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Snapshot.Caption)
}

func runChat(t *testing.T, rt *Runtime, input string, fresh bool) string {
	t.Helper()
	var out bytes.Buffer
	err := Chat(context.Background(), rt, ChatOptions{
		SessionID: "chat",
		Fresh:     fresh,
		In:        strings.NewReader(input),
		Out:       &out,
		Printer:   tui.NewPrinter(&out, tui.WithProfile(termenv.Ascii)),
	})
	require.NoError(t, err)
	return out.String()
}

func TestChat_RunsTurnsAndPrintsBoard(t *testing.T) {
	model := &scriptedModel{turns: [][]stream.Event{
		{
			stream.ToolInputAvailable{CallID: "c1", ToolName: registry.NameAddCard, Input: json.RawMessage(`{"id":"a","color":"red","text":"Alice","cluster":"Team"}`)},
			stream.ToolInputAvailable{CallID: "c2", ToolName: registry.NameRemoveCard, Input: json.RawMessage(`{"id":"ghost"}`)},
		},
		{stream.TextDelta{Text: "Added Alice."}},
	}}
	rt := newTestRuntime(t, memoryConfig(), model)

	out := runChat(t, rt, "add alice\n/mermaid\n/quit\n", false)

	assert.Contains(t, out, "Session 'chat' active.")
	assert.Contains(t, out, "✓ addCard")
	assert.Contains(t, out, "✗ removeCard")
	assert.Contains(t, out, "Added Alice.")
	assert.Contains(t, out, "[Team]")
	assert.Contains(t, out, "  ■ Alice  (a)")
	assert.Contains(t, out, `subgraph cluster_0["Team"]`)
}

func TestChat_ResumeAndFresh(t *testing.T) {
	model := &scriptedModel{}
	rt := newTestRuntime(t, memoryConfig(), model)

	runChat(t, rt, "hello\n", false)
	out := runChat(t, rt, "/board\n", false)
	assert.Contains(t, out, "Resuming session 'chat' (2 messages).")

	out = runChat(t, rt, "", true)
	assert.Contains(t, out, "Session 'chat' active.")
}

func TestChat_ReportsInvalidInput(t *testing.T) {
	rt := newTestRuntime(t, memoryConfig(), &scriptedModel{})

	out := runChat(t, rt, "bad \xff input\n/help\n", false)
	assert.Contains(t, out, "Please try again.")
	assert.Contains(t, out, "/mermaid")
}

func TestLineReader(t *testing.T) {
	r := newLineReader(strings.NewReader("one\r\ntwo"))
	ctx := context.Background()

	line, err := r.Line(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = r.Line(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = r.Line(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newLineReader(pr).Line(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLineReader_CloseStopsPump(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := newLineReader(strings.NewReader("first\nsecond\nthird\n"))
	line, err := r.Line(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	// The pump is now parked sending "second" with nobody reading.
	r.Close()
	r.Close()
}

func TestErrorsSurfaceFromStore(t *testing.T) {
	rt := newTestRuntime(t, memoryConfig(), &scriptedModel{})
	_, err := rt.Manager.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
