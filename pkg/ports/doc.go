/*
Package ports defines the driven ports (interfaces) of the whiteboard orchestration.

These interfaces decouple the session loop from external implementations, allowing
it to work with various model providers, storage backends and prompt sources.

# Key Interfaces

  - Model: Opens a streamed completion for a transcript and tool catalog.
  - StateStore: Persists and loads SessionRecords (board snapshot plus transcript).
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - PromptLoader: Resolves named system prompt profiles.
*/
package ports
