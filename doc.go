/*
Package whiteboard drives a shared whiteboard of clusters and cards from the
tool calls of a language model.

A model streams text and tool calls; the host validates each call against a
fixed catalog, executes it exactly once against the board, records the result
in the transcript and, when every call of the turn has a result, asks the
model to continue.

# Architecture

  - pkg/board: the whiteboard state engine (clusters, cards, caption).
  - pkg/registry: the tool catalog, input schemas and typed decoding.
  - pkg/controller: the tool-call lifecycle of one assistant turn.
  - pkg/session: conversation sessions and the continuation policy.
  - pkg/adapters: model providers, state stores and transports (HTTP, MCP).

# Usage

	model := uistream.New("http://localhost:3000/api/chat")

	eng, err := whiteboard.New(model)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := eng.Build(domain.NewSessionRecord("demo"), nil)
	if err != nil {
		log.Fatal(err)
	}

	if err := sess.Submit(ctx, "Draw our team: Alice leads, Bob and Carol report to her"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(sess.Snapshot().CardCount())

Durable sessions are managed by session.Manager over any ports.StateStore
(memory, file or Redis).
*/
package whiteboard
