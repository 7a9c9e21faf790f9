package main

import (
	"fmt"
	"runtime"

	"github.com/aretw0/whiteboard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Whiteboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("whiteboard %s (%s/%s, %s)\n", whiteboard.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
