package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/whiteboard/pkg/board"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/aretw0/whiteboard/pkg/registry"
)

// LogAck is the output of a successful logMessage call.
const LogAck = "Message logged to console"

// execute applies a decoded tool to the board. Board tools answer with the
// resulting snapshot.
func (c *Controller) execute(tool registry.Tool) (json.RawMessage, error) {
	var (
		snap domain.Snapshot
		err  error
	)

	switch t := tool.(type) {
	case registry.GetWhiteboard:
		snap = c.board.Snapshot()
	case registry.AddCard:
		snap, err = c.board.AddCard(t.Card(), t.Cluster)
	case registry.UpdateCard:
		snap, err = c.board.UpdateCard(t.ID, board.CardUpdate{Tag: t.Tag, Cluster: t.Cluster})
		err = c.tolerateMissing(err, domain.ErrCardNotFound)
	case registry.RemoveCard:
		snap, err = c.board.RemoveCard(t.ID)
	case registry.RemoveCluster:
		snap, err = c.board.RemoveCluster(t.ID)
		err = c.tolerateMissing(err, domain.ErrClusterNotFound)
	case registry.SetCaption:
		snap, err = c.board.SetCaption(t.Text)
	case registry.ClearWhiteboard:
		snap, err = c.board.Clear()
	case registry.LogMessage:
		fmt.Fprintf(c.console, "[model] %s\n", t.Message)
		c.logger.Info("model message", "message", t.Message)
		return json.Marshal(LogAck)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, tool.ToolName())
	}

	if err != nil {
		return nil, err
	}
	return snap.JSON()
}

// tolerateMissing turns a not-found error into success unless strict.
// The board is unchanged in that case, so the returned snapshot is current.
func (c *Controller) tolerateMissing(err, missing error) error {
	if err == nil || c.strict || !errors.Is(err, missing) {
		return err
	}
	c.logger.Warn("tool targeted a missing entity", "error", err)
	return nil
}
