package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aretw0/whiteboard"
	"github.com/aretw0/whiteboard/internal/cli"
	"github.com/aretw0/whiteboard/pkg/adapters/mcp"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the whiteboard tools as an MCP server",
	Long: `Starts a Model Context Protocol server whose tools act on one stored
session board. Every change is saved back to the session store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")
		sessionID, _ := cmd.Flags().GetString("session")

		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		// Stdout carries JSON-RPC under stdio, so logMessage goes to stderr.
		rt, err := newRuntime(cmd, cli.WithoutModel(), cli.WithConsole(os.Stderr))
		if err != nil {
			return err
		}
		defer rt.Close()

		rec, err := rt.Manager.LoadOrStart(sigCtx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session %q: %w", sessionID, err)
		}

		var mu sync.Mutex
		save := func(snap domain.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			rec.Snapshot = snap
			rec.UpdatedAt = time.Now().UTC()
			if err := rt.Manager.Save(context.Background(), rec); err != nil {
				rt.Logger.Error("failed to save board", "session_id", sessionID, "error", err)
			}
		}

		ctrl := rt.Engine.Controller(sessionID, rec.Snapshot, save)
		srv := mcp.NewServer(ctrl, whiteboard.Version, mcp.WithLogger(rt.Logger))

		if transport == "sse" {
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			rt.Logger.Info("Starting MCP server", "transport", transport, "address", addr, "session_id", sessionID)
			return srv.ServeSSE(sigCtx, addr, baseURL)
		}
		rt.Logger.Info("Starting MCP server", "transport", transport, "session_id", sessionID)
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Listen address for the sse transport")
	mcpCmd.Flags().String("base-url", "", "Public base URL for the sse transport")
	mcpCmd.Flags().StringP("session", "s", "default", "Session whose board the tools act on")
}
