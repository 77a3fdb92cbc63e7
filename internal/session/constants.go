// Package session holds per-session participant registry and audio buffering.
package session

import "time"

// Buffer lifecycle constants
const (
	// StaleBufferTTL is how long an idle session buffer survives before
	// cleanup reclaims it.
	StaleBufferTTL = 10 * time.Minute
)
