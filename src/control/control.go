// Package control provides single-instance detection and a stop channel for
// the resident tracker.
//
// On Windows the resident serves a named pipe and answers a line protocol:
// "PING\n" -> "PONG\n" (liveness probe) and "STOP\n" -> "OK\n" (shutdown
// request). On other platforms a PID file under the temp directory plus
// signal 0 / SIGTERM provides the same two operations.
//
// The endpoint can be overridden for testing: CARET_TRACKER_PIPE (Windows
// pipe path) and CARET_TRACKER_PID_FILE (PID file path).
package control

import "context"

const (
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	stopRequest  = "STOP\n"
	okResponse   = "OK\n"
)

// Server owns the control endpoint of a resident instance.
type Server interface {
	// Start begins answering liveness and stop requests.
	Start() error
	// Close releases the endpoint.
	Close() error
}

// NewServer returns the platform implementation. onStop is invoked when a
// client asks the resident to shut down.
func NewServer(onStop func()) Server { return newServer(onStop) }

// Detect reports whether a resident instance is answering on the control
// endpoint.
func Detect(ctx context.Context) bool { return detect(ctx) }

// RequestStop asks a resident instance to shut down. It returns an error
// when no resident is reachable or the request is not acknowledged.
func RequestStop(ctx context.Context) error { return requestStop(ctx) }

// Endpoint returns the effective control endpoint for logging.
func Endpoint() string { return endpoint() }
