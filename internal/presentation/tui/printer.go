package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/muesli/termenv"
)

var cardColors = map[domain.Color]string{
	domain.ColorRed:    "#ef4444",
	domain.ColorBlue:   "#3b82f6",
	domain.ColorGreen:  "#22c55e",
	domain.ColorYellow: "#eab308",
}

// Printer writes transcript messages and board snapshots to a terminal.
type Printer struct {
	w        io.Writer
	profile  termenv.Profile
	markdown func(string) (string, error)
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithProfile forces a color profile. termenv.Ascii disables styling.
func WithProfile(p termenv.Profile) PrinterOption {
	return func(pr *Printer) {
		pr.profile = p
	}
}

// WithMarkdown renders assistant text through fn (see NewRenderer).
func WithMarkdown(fn func(string) (string, error)) PrinterOption {
	return func(pr *Printer) {
		pr.markdown = fn
	}
}

// NewPrinter creates a printer detecting the color profile of the environment.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w, profile: termenv.ColorProfile()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// System prints a host notice.
func (p *Printer) System(format string, args ...any) {
	fmt.Fprintf(p.w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// Message prints an assistant message: prose and one line per tool call.
func (p *Printer) Message(msg domain.Message) {
	for _, part := range msg.Parts {
		switch part.Type {
		case domain.PartText:
			p.text(part.Text)
		case domain.PartTool:
			if part.Tool != nil {
				fmt.Fprintln(p.w, p.style(ToolLine(*part.Tool), toolColor(part.Tool.State)))
			}
		}
	}
	if msg.Error != "" {
		fmt.Fprintln(p.w, p.style("✗ turn failed: "+msg.Error, "#ef4444"))
	}
}

func (p *Printer) text(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	out := s
	if p.markdown != nil {
		if rendered, err := p.markdown(s); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(p.w, strings.TrimSpace(out))
}

// Board prints the snapshot: caption, then each cluster with its cards.
func (p *Printer) Board(snap domain.Snapshot) {
	if snap.Caption != "" {
		fmt.Fprintln(p.w, p.profile.String(snap.Caption).Bold())
	}
	if len(snap.Clusters) == 0 {
		fmt.Fprintln(p.w, "(empty board)")
		return
	}
	for _, cluster := range snap.Clusters {
		fmt.Fprintf(p.w, "[%s]\n", cluster.Name)
		for _, card := range cluster.Cards {
			line := fmt.Sprintf("  ■ %s", card.Text)
			if card.Tag != nil && *card.Tag != "" {
				line += " " + *card.Tag
			}
			line = p.style(line, cardColors[card.Color])
			fmt.Fprintf(p.w, "%s  (%s)\n", line, card.ID)
		}
	}
}

func (p *Printer) style(s, color string) string {
	if p.profile == termenv.Ascii || color == "" {
		return s
	}
	return p.profile.String(s).Foreground(p.profile.Color(color)).String()
}

// ToolLine summarizes a tool call by state: 🔧 while pending, ✓ when done,
// ✗ with the error text when it failed.
func ToolLine(call domain.ToolCall) string {
	switch call.State {
	case domain.CallOutputAvailable:
		return "✓ " + call.Name
	case domain.CallOutputError:
		return fmt.Sprintf("✗ %s: %s", call.Name, call.ErrorText)
	default:
		return "🔧 " + call.Name
	}
}

func toolColor(s domain.CallState) string {
	switch s {
	case domain.CallOutputAvailable:
		return "#22c55e"
	case domain.CallOutputError:
		return "#ef4444"
	default:
		return "#a1a1aa"
	}
}
