package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/whiteboard/internal/presentation/graph"
	"github.com/aretw0/whiteboard/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		snap     domain.Snapshot
		overlay  *graph.BoardOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Clusters As Subgraphs",
			snap: domain.Snapshot{Clusters: []domain.Cluster{
				{Name: "Ideas", Cards: []domain.Card{{ID: "c1", Color: domain.ColorYellow, Text: "Ship it"}}},
				{Name: "Risks"},
			}},
			contains: []string{
				`subgraph cluster_0["Ideas"]`,
				`card_c1["Ship it"]:::yellow`,
				`subgraph cluster_1["Risks"]`,
				`cluster_1_empty[" "]`,
				"classDef red",
			},
			excludes: []string{"title:"},
		},
		{
			name: "Caption And Tag",
			snap: domain.Snapshot{
				Caption: `Q3 "plan"`,
				Clusters: []domain.Cluster{
					{Name: "default", Cards: []domain.Card{{ID: "c-2", Color: domain.ColorRed, Text: "Fix", Tag: domain.StringPtr("bug")}}},
				},
			},
			contains: []string{
				"title: Q3 'plan'",
				`card_c_2["Fix <br/> #bug"]:::red`,
			},
		},
		{
			name: "Touched Overlay",
			snap: domain.Snapshot{Clusters: []domain.Cluster{
				{Name: "A", Cards: []domain.Card{{ID: "x.1", Color: domain.ColorBlue, Text: "one"}}},
			}},
			overlay: &graph.BoardOverlay{Touched: []string{"x.1", "x.1", "gone"}},
			contains: []string{
				"classDef touched",
				"class card_x_1 touched;",
			},
			excludes: []string{"card_gone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.snap, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if c := strings.Count(got, "class card_x_1 touched;"); c > 1 {
				t.Errorf("touched class applied %d times", c)
			}
		})
	}
}
