// Package protocol owns the controller wire protocol: newline-delimited
// JSON, one object per line.
//
// Ownership boundary:
// - incoming command parsing and validation shape
// - outgoing response and register encoding
//
// The controller correlates responses to commands through the `id`
// field. A line that cannot be parsed, or that carries no `id` where
// one is required, produces no response at all; that silence is part of
// the protocol contract, not an error path.
package protocol
