/*
Package session runs whiteboard conversations and manages their persistence.

A Session owns one transcript and one controller. Submit appends the user's
message and drives model turns until the continuation policy says to wait:
after a turn whose tool calls have all reached a terminal state the session
resubmits on its own, bounded by a step limit. At most one model request is
in flight per session.

The Manager coordinates concurrent access to stored sessions across replicas,
integrating per-process locks with optional distributed locking and long-term
storage adapters.
*/
package session
