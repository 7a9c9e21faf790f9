// Package controller drives tool calls through their lifecycle.
//
// A Controller consumes stream events for one assistant message at a time.
// Tool calls move from input-streaming to input-available as their input
// arrives and are then executed synchronously against the board, in arrival
// order, ending in output-available or output-error. A call id is executed at
// most once, however many times its completion is delivered.
package controller
