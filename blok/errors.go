package blok

import "errors"

// ErrAlreadyRunning is returned when a start or resume arrives while a batch
// operation is in flight. The request is rejected, never queued.
var ErrAlreadyRunning = errors.New("blok: a batch operation is already running")

// ErrNoSavedOperation is returned by Resume when no interrupted operation
// exists in the store.
var ErrNoSavedOperation = errors.New("blok: no saved operation to resume")

// ErrUnfinishedOperation is returned by Start when an interrupted operation
// is still saved. Resume it or clear it explicitly before starting fresh.
var ErrUnfinishedOperation = errors.New("blok: an unfinished operation exists; resume or clear it first")

// ErrNoUsers is returned when the favorites list of the target entry is empty.
var ErrNoUsers = errors.New("blok: nobody favorited this entry")

// ErrInvalidAction is returned for an action other than mute or block.
var ErrInvalidAction = errors.New("blok: action must be mute or block")
