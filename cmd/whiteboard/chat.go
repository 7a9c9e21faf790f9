package main

import (
	"os"

	"github.com/aretw0/whiteboard"
	"github.com/aretw0/whiteboard/internal/cli"
	"github.com/aretw0/whiteboard/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the model and watch the whiteboard change",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		plain, _ := cmd.Flags().GetBool("plain")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		rt, err := newRuntime(cmd, cli.WithConsole(os.Stdout))
		if err != nil {
			return err
		}
		defer rt.Close()

		var printerOpts []tui.PrinterOption
		if !plain {
			printerOpts = append(printerOpts, tui.WithMarkdown(tui.NewRenderer()))
		}
		if !plain && tui.IsInteractive() {
			tui.PrintBanner(os.Stdout, whiteboard.Version)
		}

		return cli.Chat(sigCtx, rt, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			In:        os.Stdin,
			Out:       os.Stdout,
			Printer:   tui.NewPrinter(os.Stdout, printerOpts...),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "default", "Session ID to open or create")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
