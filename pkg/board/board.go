package board

import (
	"fmt"
	"sync"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// Observer is notified with the resulting snapshot after every mutation.
type Observer func(domain.Snapshot)

// CardUpdate describes the optional changes applied by UpdateCard.
// A nil field is left untouched.
type CardUpdate struct {
	Tag     *string
	Cluster *string
}

// Board is the whiteboard state engine. Safe for concurrent use.
type Board struct {
	mu       sync.RWMutex
	clusters []domain.Cluster
	caption  string

	observers []Observer
}

// Option configures a Board.
type Option func(*Board)

// WithSnapshot initializes the board from a previously captured snapshot.
func WithSnapshot(s domain.Snapshot) Option {
	return func(b *Board) {
		c := s.Clone()
		b.clusters = pruneEmpty(c.Clusters)
		b.caption = c.Caption
	}
}

// WithSeed preloads the demo organization board.
func WithSeed() Option {
	return WithSnapshot(Seed())
}

// WithObserver registers a callback invoked after each mutation.
func WithObserver(fn Observer) Option {
	return func(b *Board) {
		if fn != nil {
			b.observers = append(b.observers, fn)
		}
	}
}

// New creates an empty board.
func New(opts ...Option) *Board {
	b := &Board{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns the current state. It never blocks on a mutation for
// longer than the mutation itself.
func (b *Board) Snapshot() domain.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// AddCard appends the card to the named cluster, creating the cluster if absent.
// An empty cluster name selects domain.DefaultCluster. The stored card is always tagless.
func (b *Board) AddCard(card domain.Card, cluster string) (domain.Snapshot, error) {
	if cluster == "" {
		cluster = domain.DefaultCluster
	}
	card.Tag = nil

	return b.mutate(func() error {
		if _, _, ok := b.locate(card.ID); ok {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateID, card.ID)
		}
		b.appendTo(cluster, card)
		return nil
	})
}

// UpdateCard retags and/or relocates a card in one step.
// The move is applied before the tag change. Unknown ids yield ErrCardNotFound
// and leave the board untouched.
func (b *Board) UpdateCard(id string, upd CardUpdate) (domain.Snapshot, error) {
	return b.mutate(func() error {
		ci, pi, ok := b.locate(id)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrCardNotFound, id)
		}

		if upd.Cluster != nil {
			target := *upd.Cluster
			if target == "" {
				target = domain.DefaultCluster
			}
			// Moving to the current cluster is a no-op, order is preserved.
			if b.clusters[ci].Name != target {
				card := b.detach(ci, pi)
				b.appendTo(target, card)
			}
			ci, pi, _ = b.locate(id)
		}

		if upd.Tag != nil {
			tag := *upd.Tag
			b.clusters[ci].Cards[pi].Tag = &tag
		}
		return nil
	})
}

// RemoveCard deletes the card wherever it is. Removing an absent id is a no-op.
func (b *Board) RemoveCard(id string) (domain.Snapshot, error) {
	return b.mutate(func() error {
		if ci, pi, ok := b.locate(id); ok {
			b.detach(ci, pi)
		}
		return nil
	})
}

// RemoveCluster deletes a cluster and every card in it.
// An absent name leaves the board unchanged and reports ErrClusterNotFound so
// callers can decide whether to surface it.
func (b *Board) RemoveCluster(name string) (domain.Snapshot, error) {
	return b.mutate(func() error {
		for i, cl := range b.clusters {
			if cl.Name == name {
				b.clusters = append(b.clusters[:i], b.clusters[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %q", domain.ErrClusterNotFound, name)
	})
}

// Clear resets the board to zero clusters and an empty caption.
func (b *Board) Clear() (domain.Snapshot, error) {
	return b.mutate(func() error {
		b.clusters = nil
		b.caption = ""
		return nil
	})
}

// SetCaption replaces the caption.
func (b *Board) SetCaption(text string) (domain.Snapshot, error) {
	return b.mutate(func() error {
		b.caption = text
		return nil
	})
}

// mutate applies fn under the write lock. When fn fails the board is restored
// to its prior state so a failed operation is never partially visible.
func (b *Board) mutate(fn func() error) (domain.Snapshot, error) {
	b.mu.Lock()
	before := b.snapshotLocked()
	if err := fn(); err != nil {
		b.clusters = before.Clusters
		b.caption = before.Caption
		b.mu.Unlock()
		return before.Clone(), err
	}
	after := b.snapshotLocked()
	observers := b.observers
	b.mu.Unlock()

	// No-ops leave observers undisturbed.
	if after.Equal(before) {
		return after, nil
	}
	for _, obs := range observers {
		obs(after.Clone())
	}
	return after, nil
}

func (b *Board) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{Clusters: b.clusters, Caption: b.caption}.Clone()
}

// locate returns the cluster and position of a card.
func (b *Board) locate(id string) (int, int, bool) {
	for ci, cl := range b.clusters {
		for pi, c := range cl.Cards {
			if c.ID == id {
				return ci, pi, true
			}
		}
	}
	return -1, -1, false
}

// detach removes the card at (ci, pi) and prunes the cluster when it empties.
func (b *Board) detach(ci, pi int) domain.Card {
	cl := &b.clusters[ci]
	card := cl.Cards[pi]
	cl.Cards = append(cl.Cards[:pi], cl.Cards[pi+1:]...)
	if len(cl.Cards) == 0 {
		b.clusters = append(b.clusters[:ci], b.clusters[ci+1:]...)
	}
	return card
}

func (b *Board) appendTo(cluster string, card domain.Card) {
	for i := range b.clusters {
		if b.clusters[i].Name == cluster {
			b.clusters[i].Cards = append(b.clusters[i].Cards, card)
			return
		}
	}
	b.clusters = append(b.clusters, domain.Cluster{Name: cluster, Cards: []domain.Card{card}})
}

func pruneEmpty(clusters []domain.Cluster) []domain.Cluster {
	out := clusters[:0]
	for _, cl := range clusters {
		if len(cl.Cards) > 0 {
			out = append(out, cl)
		}
	}
	return out
}
