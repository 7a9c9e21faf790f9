// Package stream models the incremental output of a language model turn.
//
// A Stream yields Events one at a time through Next. Consumers loop over it
// until io.EOF; this is the only place the orchestration suspends while a
// turn is running.
package stream
