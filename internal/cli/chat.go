package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aretw0/whiteboard/internal/presentation/graph"
	"github.com/aretw0/whiteboard/internal/presentation/tui"
	"github.com/aretw0/whiteboard/pkg/domain"
)

// ChatOptions configures an interactive chat.
type ChatOptions struct {
	SessionID string
	Fresh     bool
	In        io.Reader
	Out       io.Writer
	Printer   *tui.Printer
}

const chatHelp = `Commands:
  /board     show the whiteboard
  /mermaid   print the whiteboard as a Mermaid diagram
  /help      show this help
  /quit      leave the chat (the session is kept)`

// Chat runs a line-oriented conversation against one session until the
// input ends, the user quits or ctx is cancelled. Turn failures are reported
// and the conversation goes on.
func Chat(ctx context.Context, rt *Runtime, opts ChatOptions) error {
	if opts.Printer == nil {
		opts.Printer = tui.NewPrinter(opts.Out)
	}
	p := opts.Printer

	if opts.Fresh {
		if err := rt.Manager.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	var changed atomic.Bool
	sess, err := rt.Open(ctx, opts.SessionID, func(domain.Snapshot) { changed.Store(true) })
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer rt.Manager.Close(opts.SessionID)

	if n := len(sess.Transcript()); n > 0 {
		p.System("Resuming session '%s' (%d messages).", sess.ID(), n)
		p.Board(sess.Snapshot())
	} else {
		p.System("Session '%s' active. Type /help for commands.", sess.ID())
	}

	in := newLineReader(opts.In)
	defer in.Close()
	for {
		fmt.Fprint(opts.Out, "> ")
		line, err := in.Line(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				fmt.Fprintln(opts.Out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(opts.Out, chatHelp)
			continue
		case "/board":
			p.Board(sess.Snapshot())
			continue
		case "/mermaid":
			fmt.Fprint(opts.Out, graph.GenerateMermaid(sess.Snapshot(), nil))
			continue
		}

		before := len(sess.Transcript())
		changed.Store(false)
		submitErr := sess.Submit(ctx, line)

		transcript := sess.Transcript()
		for _, msg := range transcript[min(before, len(transcript)):] {
			if msg.Role == domain.RoleAssistant {
				p.Message(msg)
			}
		}
		if changed.Load() {
			p.Board(sess.Snapshot())
		}

		switch {
		case submitErr == nil:
		case errors.Is(submitErr, context.Canceled):
			return nil
		case errors.Is(submitErr, domain.ErrInvalidInput):
			fmt.Fprintf(opts.Out, "Error: %v. Please try again.\n", submitErr)
		default:
			p.System("%v", submitErr)
		}
	}
}
