// Package server provides the HTTP and WebSocket surface.
package server

import "time"

// Server configuration constants
const (
	// Per-connection control message rate limiting
	RateLimitMessages = 20
	RateLimitWindow   = time.Second

	// How often stale session buffers are reclaimed
	CleanupInterval = time.Minute
)
