// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import "fmt"

// ConfigError reports a configuration problem that makes model calls
// impossible, such as a missing API key. It is returned before any network
// attempt and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// TransportError reports that every model call attempt failed. It wraps the
// error from the final attempt.
type TransportError struct {
	// Attempts is the number of calls made before giving up.
	Attempts int

	// Err is the failure from the last attempt.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports that a parsed model response cannot be assembled
// into an outline, typically because it carries no usable chapter list.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid outline response: " + e.Reason
}
