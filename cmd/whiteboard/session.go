package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aretw0/whiteboard/internal/cli"
	"github.com/aretw0/whiteboard/internal/presentation/graph"
	"github.com/aretw0/whiteboard/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage stored sessions",
}

var sessionListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd, cli.WithoutModel())
		if err != nil {
			return err
		}
		defer rt.Close()

		ids, err := rt.Manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCARDS\tMESSAGES\tUPDATED")
		for _, id := range ids {
			rec, err := rt.Manager.Load(cmd.Context(), id)
			if err != nil {
				fmt.Fprintf(w, "%s\t?\t?\t%v\n", id, err)
				continue
			}
			updated := "-"
			if !rec.UpdatedAt.IsZero() {
				updated = rec.UpdatedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", id, rec.Snapshot.CardCount(), len(rec.Transcript), updated)
		}
		return w.Flush()
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "Show a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		rt, err := newRuntime(cmd, cli.WithoutModel())
		if err != nil {
			return err
		}
		defer rt.Close()

		rec, err := rt.Manager.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session %q: %w", args[0], err)
		}

		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		case "mermaid":
			fmt.Println(graph.GenerateMermaid(rec.Snapshot, nil))
			return nil
		case "board":
			p := tui.NewPrinter(os.Stdout)
			for _, msg := range rec.Transcript {
				p.Message(msg)
			}
			p.Board(rec.Snapshot)
			return nil
		default:
			return fmt.Errorf("unknown format %q (want json, mermaid or board)", format)
		}
	},
}

var sessionRemoveCmd = &cobra.Command{
	Use:     "rm [session-id]...",
	Aliases: []string{"delete"},
	Short:   "Delete stored sessions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd, cli.WithoutModel())
		if err != nil {
			return err
		}
		defer rt.Close()

		for _, id := range args {
			if err := rt.Manager.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete session %q: %w", id, err)
			}
			fmt.Printf("Deleted session '%s'.\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionInspectCmd, sessionRemoveCmd)
	sessionInspectCmd.Flags().StringP("format", "f", "board", "Output format: board, json or mermaid")
}
