package operations

import "errors"

var (
	// ErrRunNotFound is returned for unknown or evicted run IDs.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunInProgress is returned when a browser run is already active.
	ErrRunInProgress = errors.New("a browser run is already in progress")
	// ErrUnknownSource is returned when no Source is registered for a kind.
	ErrUnknownSource = errors.New("unknown extraction source")
	// ErrShuttingDown is returned once Shutdown has been called.
	ErrShuttingDown = errors.New("runner is shutting down")
)
