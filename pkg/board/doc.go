/*
Package board implements the whiteboard state engine.

A Board owns the canonical mapping of clusters to cards and exposes atomic
mutations. Every mutation either fully applies or leaves the board untouched,
and returns a complete Snapshot of the result, never a delta.

Cluster lifecycle rules enforced here:

  - Adding a card to an unknown cluster creates it (appended at the end).
  - A cluster whose last card is removed or moved out disappears.
  - Card ids are unique across the whole board, not per cluster.

Boards are plain values owned by their caller; there is no package-level state,
so independent sessions and tests never share a board.
*/
package board
