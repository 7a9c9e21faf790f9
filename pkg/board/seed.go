package board

import "github.com/aretw0/whiteboard/pkg/domain"

// Seed returns the demo organization board used by the --seed flag.
func Seed() domain.Snapshot {
	return domain.Snapshot{
		Clusters: []domain.Cluster{
			{Name: "Team", Cards: []domain.Card{
				{ID: "alice", Color: domain.ColorBlue, Text: "Alice"},
				{ID: "bob", Color: domain.ColorRed, Text: "Bob"},
			}},
			{Name: "Management", Cards: []domain.Card{
				{ID: "ceo", Color: domain.ColorYellow, Text: "CEO", Tag: domain.StringPtr("🔥")},
			}},
			{Name: "Engineering", Cards: []domain.Card{
				{ID: "dev1", Color: domain.ColorGreen, Text: "Dev1"},
				{ID: "dev2", Color: domain.ColorBlue, Text: "Dev2", Tag: domain.StringPtr("💡")},
			}},
			{Name: "Sales", Cards: []domain.Card{
				{ID: "sales1", Color: domain.ColorRed, Text: "Sales1"},
			}},
		},
	}
}
