/*
Package domain contains the core domain models of the whiteboard engine.

It defines the whiteboard entities (Cards, Clusters and the Snapshot that
describes a whole board), the tool-call lifecycle types exchanged with the
remote model, and the conversation transcript. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Card: A colored, labeled, optionally tagged sticker placed in one Cluster.
  - Cluster: A named, ordered group of Cards. Created on first insert, gone when empty.
  - Snapshot: The complete, immutable state of a whiteboard (clusters + caption).
  - ToolCall: A structured action requested by the model and executed locally.
  - Message: One transcript entry (user or assistant) made of text and tool parts.
*/
package domain
