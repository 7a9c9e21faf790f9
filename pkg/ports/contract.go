package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a record with a tagged card and a finished tool call
		record := domain.NewSessionRecord(sessionID)
		record.Snapshot = domain.Snapshot{
			Clusters: []domain.Cluster{{
				Name:  "Team",
				Cards: []domain.Card{{ID: "a", Color: domain.ColorRed, Text: "Alice", Tag: domain.StringPtr("🔥")}},
			}},
			Caption: "demo",
		}
		record.Transcript = domain.Transcript{
			domain.NewUserMessage("u1", "add alice", time.Now().UTC()),
			{
				ID:   "a1",
				Role: domain.RoleAssistant,
				Parts: []domain.Part{{Type: domain.PartTool, Tool: &domain.ToolCall{
					ID: "c1", Name: "addCard", State: domain.CallOutputAvailable,
					Input: []byte(`{"id":"a"}`), Output: []byte(`{"ok":true}`),
				}}},
			},
		}

		// 2. Save
		err := store.Save(ctx, sessionID, record)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, "demo", loaded.Snapshot.Caption)
		card, cluster, ok := loaded.Snapshot.FindCard("a")
		require.True(t, ok)
		assert.Equal(t, "Team", cluster)
		require.NotNil(t, card.Tag)
		assert.Equal(t, "🔥", *card.Tag)

		require.Len(t, loaded.Transcript, 2)
		calls := loaded.Transcript[1].ToolCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, domain.CallOutputAvailable, calls[0].State)
		assert.JSONEq(t, `{"id":"a"}`, string(calls[0].Input))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, sessionID, domain.NewSessionRecord(sessionID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSessionRecord(id1))
		_ = store.Save(ctx, id2, domain.NewSessionRecord(id2))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
