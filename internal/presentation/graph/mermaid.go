package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// BoardOverlay marks cards to highlight on the diagram, e.g. the ones touched
// by the latest turn.
type BoardOverlay struct {
	Touched []string
}

var colorStyles = map[domain.Color]string{
	domain.ColorRed:    "fill:#fecaca,stroke:#b91c1c,color:#000",
	domain.ColorBlue:   "fill:#bfdbfe,stroke:#1d4ed8,color:#000",
	domain.ColorGreen:  "fill:#bbf7d0,stroke:#15803d,color:#000",
	domain.ColorYellow: "fill:#fef08a,stroke:#a16207,color:#000",
}

// GenerateMermaid produces a Mermaid flowchart of the board:
// - each cluster is a subgraph, in board order
// - each card is a node labelled with its text and tag, classed by color
// - the caption, when set, becomes the diagram title
func GenerateMermaid(snap domain.Snapshot, overlay *BoardOverlay) string {
	var sb strings.Builder
	if snap.Caption != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeLabel(snap.Caption)))
		sb.WriteString("---\n")
	}
	sb.WriteString("graph TD\n")

	for i, cluster := range snap.Clusters {
		clusterID := fmt.Sprintf("cluster_%d", i)
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", clusterID, escapeLabel(cluster.Name)))
		if len(cluster.Cards) == 0 {
			// Mermaid drops empty subgraphs; keep a placeholder so the cluster shows.
			sb.WriteString(fmt.Sprintf("        %s_empty[\" \"]\n", clusterID))
		}
		for _, card := range cluster.Cards {
			label := escapeLabel(card.Text)
			if card.Tag != nil && *card.Tag != "" {
				label = fmt.Sprintf("%s <br/> #%s", label, escapeLabel(*card.Tag))
			}
			sb.WriteString(fmt.Sprintf("        %s[\"%s\"]:::%s\n", sanitizeMermaidID(card.ID), label, card.Color))
		}
		sb.WriteString("    end\n")
	}

	sb.WriteString("\n")
	for _, c := range domain.Colors {
		sb.WriteString(fmt.Sprintf("    classDef %s %s;\n", c, colorStyles[c]))
	}

	if overlay != nil && len(overlay.Touched) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef touched stroke-width:4px;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Touched {
			if _, _, ok := snap.FindCard(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if seen[safeID] {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s touched;\n", safeID))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "card_" + s
}
