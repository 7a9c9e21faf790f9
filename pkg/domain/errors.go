package domain

import "errors"

// ErrDuplicateID is returned when a card is added with an id already on the board.
var ErrDuplicateID = errors.New("duplicate card id")

// ErrCardNotFound is returned when an update targets a card that does not exist.
var ErrCardNotFound = errors.New("card not found")

// ErrClusterNotFound is returned when an explicit cluster removal targets an absent cluster.
var ErrClusterNotFound = errors.New("cluster not found")

// ErrInvalidInput is returned when a tool payload fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownTool is returned when the model requests a tool that is not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrBusy is returned when a submission arrives while a model request is in flight.
var ErrBusy = errors.New("session busy: a request is already in flight")

// ErrTurnFailed is returned when the model stream fails before the turn completes.
var ErrTurnFailed = errors.New("turn failed")
