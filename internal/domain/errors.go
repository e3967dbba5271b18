package domain

import "errors"

var (
	// ErrInvalidConfig marks startup configuration failures. These are the
	// only errors that terminate the process.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrWSDisconnect is returned when an operation is attempted on a feed
	// connection that has been closed.
	ErrWSDisconnect = errors.New("websocket disconnected")
)
