package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultCluster is the cluster used when a card is added without an explicit cluster.
const DefaultCluster = "default"

// Color is one of the fixed card colors.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// Colors lists the valid card colors in catalog order.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Valid reports whether c is one of the enumerated colors.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return true
	}
	return false
}

// ParseColor converts a raw string into a Color.
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: color %q must be one of red, blue, green, yellow", ErrInvalidInput, s)
	}
	return c, nil
}

// Card is a single sticker on the whiteboard.
// Tag is nil when the card carries no tag.
type Card struct {
	ID    string  `json:"id" yaml:"id"`
	Color Color   `json:"color" yaml:"color"`
	Text  string  `json:"text" yaml:"text"`
	Tag   *string `json:"tag" yaml:"tag"`
}

// Cluster is a named, ordered group of cards.
type Cluster struct {
	Name  string `json:"name" yaml:"name"`
	Cards []Card `json:"cards" yaml:"cards"`
}

// Snapshot is the complete state of a whiteboard at one instant.
// It is the payload returned for every tool call touching the board.
type Snapshot struct {
	Clusters []Cluster `json:"clusters" yaml:"clusters"`
	Caption  string    `json:"caption" yaml:"caption"`
}

// EmptySnapshot returns a board with no clusters and no caption.
func EmptySnapshot() Snapshot {
	return Snapshot{Clusters: []Cluster{}}
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Clusters: make([]Cluster, len(s.Clusters)),
		Caption:  s.Caption,
	}
	for i, cl := range s.Clusters {
		cards := make([]Card, len(cl.Cards))
		for j, c := range cl.Cards {
			cards[j] = c.clone()
		}
		out.Clusters[i] = Cluster{Name: cl.Name, Cards: cards}
	}
	return out
}

// Equal reports whether s and o hold the same clusters, cards and caption.
// Tags compare by value.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Caption != o.Caption || len(s.Clusters) != len(o.Clusters) {
		return false
	}
	for i, cl := range s.Clusters {
		other := o.Clusters[i]
		if cl.Name != other.Name || len(cl.Cards) != len(other.Cards) {
			return false
		}
		for j, c := range cl.Cards {
			if !c.equal(other.Cards[j]) {
				return false
			}
		}
	}
	return true
}

func (c Card) equal(o Card) bool {
	if c.ID != o.ID || c.Color != o.Color || c.Text != o.Text {
		return false
	}
	if c.Tag == nil || o.Tag == nil {
		return c.Tag == nil && o.Tag == nil
	}
	return *c.Tag == *o.Tag
}

func (c Card) clone() Card {
	if c.Tag != nil {
		tag := *c.Tag
		c.Tag = &tag
	}
	return c
}

// FindCard returns the card with the given id and the name of its cluster.
func (s Snapshot) FindCard(id string) (Card, string, bool) {
	for _, cl := range s.Clusters {
		for _, c := range cl.Cards {
			if c.ID == id {
				return c, cl.Name, true
			}
		}
	}
	return Card{}, "", false
}

// Cluster returns the cluster with the given name.
func (s Snapshot) Cluster(name string) (Cluster, bool) {
	for _, cl := range s.Clusters {
		if cl.Name == name {
			return cl, true
		}
	}
	return Cluster{}, false
}

// CardCount returns the number of cards across all clusters.
func (s Snapshot) CardCount() int {
	n := 0
	for _, cl := range s.Clusters {
		n += len(cl.Cards)
	}
	return n
}

// JSON serializes the snapshot in the wire format used for tool results.
func (s Snapshot) JSON() (json.RawMessage, error) {
	// Clone never yields nil slices, so empty boards encode as [] rather than null.
	return json.Marshal(s.Clone())
}

// StringPtr is a helper for building optional string fields.
func StringPtr(s string) *string {
	return &s
}
