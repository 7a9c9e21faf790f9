package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the whiteboard banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" __      __.__    .__  __        ___.                          .___", "#f87171"},
		{"/  \\    /  \\  |__ |__|/  |_  ____\\_ |__   _________ _______  __| _/", "#fb923c"},
		{"\\   \\/\\/   /  |  \\|  \\   __\\/ __ \\| __ \\ /  _ \\__  \\\\_  __ \\/ __ | ", "#facc15"},
		{" \\        /|   Y  \\  ||  | \\  ___/| \\_\\ (  <_> ) __ \\|  | \\/ /_/ | ", "#4ade80"},
		{"  \\__/\\  / |___|  /__||__|  \\___  >___  /\\____(____  /__|  \\____ | ", "#60a5fa"},
		{"       \\/       \\/              \\/    \\/           \\/           \\/ ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
